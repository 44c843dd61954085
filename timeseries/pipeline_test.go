// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package timeseries

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/robertkottelin/biomass-sub000/model"
	"github.com/robertkottelin/biomass-sub000/sentinel"
	"github.com/robertkottelin/biomass-sub000/util"
)

// Mock

type mockClient struct {
	searchDates func(ctx context.Context, options sentinel.SearchOptions) ([]time.Time, error)
	fetchRaster func(ctx context.Context, options sentinel.FetchOptions) ([]byte, error)
}

func (m *mockClient) SearchDates(ctx context.Context, options sentinel.SearchOptions) ([]time.Time, error) {
	return m.searchDates(ctx, options)
}

func (m *mockClient) FetchRaster(ctx context.Context, options sentinel.FetchOptions) ([]byte, error) {
	return m.fetchRaster(ctx, options)
}

// rasterPayload builds a minimal little-endian single-band image around
// the given pixel values.
func rasterPayload(width, height int, pixels []float32) []byte {
	order := binary.LittleEndian
	const entryCount = 5
	dataOffset := 8 + 2 + entryCount*12

	payload := make([]byte, dataOffset+4*len(pixels))
	payload[0], payload[1] = 'I', 'I'
	order.PutUint16(payload[2:4], 42)
	order.PutUint32(payload[4:8], 8)
	order.PutUint16(payload[8:10], entryCount)

	writeEntry := func(i int, tag, fieldType uint16, value uint32) {
		entry := payload[10+i*12:]
		order.PutUint16(entry[0:2], tag)
		order.PutUint16(entry[2:4], fieldType)
		order.PutUint32(entry[4:8], 1)
		if fieldType == 3 {
			order.PutUint16(entry[8:10], uint16(value))
		} else {
			order.PutUint32(entry[8:12], value)
		}
	}
	writeEntry(0, 256, 4, uint32(width))
	writeEntry(1, 257, 4, uint32(height))
	writeEntry(2, 258, 3, 32)
	writeEntry(3, 273, 4, uint32(dataOffset))
	writeEntry(4, 339, 3, 3)

	for i, pixel := range pixels {
		order.PutUint32(payload[dataOffset+4*i:], math.Float32bits(pixel))
	}
	return payload
}

var forestPixels = []float32{0.62, 0.71, 0.55, 0.68}
var barrenPixels = []float32{0.11, 0.08, 0.15, 0.05}

func testParcel(t *testing.T) *model.Parcel {
	parcel, err := model.NewParcel([]model.Coordinate{
		{Lat: 61.50, Lon: 24.00},
		{Lat: 61.50, Lon: 24.01},
		{Lat: 61.51, Lon: 24.01},
		{Lat: 61.51, Lon: 24.00},
	}, "pine")
	assert.Nil(t, err)
	return parcel
}

func testConfig(now time.Time) Config {
	cfg := DefaultConfig()
	cfg.YearsBack = 2
	cfg.RequestDelay = 0
	cfg.YearCooldown = 0
	cfg.Now = func() time.Time { return now }
	return cfg
}

func testRunOptions(t *testing.T) RunOptions {
	return RunOptions{
		Parcel:   testParcel(t),
		Species:  model.SpeciesParameters{MaxBiomass: 450, GrowthRate: 0.08, SaturationIndex: 0.85, YoungBiomass: 20},
		StandAge: 30,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 3, cfg.YearsBack)
	assert.Equal(t, time.June, cfg.SeasonStartMonth)
	assert.Equal(t, time.August, cfg.SeasonEndMonth)
	assert.Equal(t, 20.0, cfg.MaxCloudCover)
	assert.Equal(t, 30.0, cfg.ForestedThreshold)
	assert.Equal(t, 0.5, cfg.LowVegetationRatio)
	assert.Equal(t, 50.0, cfg.CoverageWarnLevel)
	assert.Equal(t, 7, cfg.SmoothingWindow)
	assert.Equal(t, 300, cfg.MaxGridSize)
}

func TestRun(t *testing.T) {
	// Mock: one year offers three candidate dates, one of which serves a
	// corrupt payload
	dates2024 := []time.Time{
		time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC),
	}
	client := &mockClient{
		searchDates: func(ctx context.Context, options sentinel.SearchOptions) ([]time.Time, error) {
			start, _ := time.Parse(time.RFC3339, options.AcquiredDate)
			if start.Year() == 2024 {
				return dates2024, nil
			}
			return nil, nil
		},
		fetchRaster: func(ctx context.Context, options sentinel.FetchOptions) ([]byte, error) {
			if options.TimeFrom == "2024-06-10T00:00:00Z" {
				return []byte{'X', 'X'}, nil
			}
			return rasterPayload(2, 2, forestPixels), nil
		},
	}

	// Tested code
	series, err := Run(context.Background(), &util.BasicLogContext{}, client,
		testRunOptions(t), testConfig(time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)))

	// Asserts: the corrupt date is skipped, the rest arrive sorted and
	// smoothed
	assert.Nil(t, err)
	assert.Equal(t, 2, len(series.Samples))
	assert.True(t, series.Samples[0].Date.Before(series.Samples[1].Date))
	assert.Equal(t, "2024-07-20", series.Samples[0].Date.Format(time.DateOnly))

	first := series.Samples[0]
	assert.InDelta(t, 0.64, first.IndexMean, 1e-6)
	assert.True(t, first.IsForested)
	assert.False(t, first.IsWater)
	assert.True(t, first.Biomass > 0)
	assert.InDelta(t, first.Biomass, first.BiomassRollingAvg, 1e-9)
	assert.InDelta(t, (first.Biomass+series.Samples[1].Biomass)/2, series.Samples[1].BiomassRollingAvg, 1e-9)
	assert.False(t, series.LowVegetation)
}

func TestRun_NoGeometry(t *testing.T) {
	client := &mockClient{}

	_, err := Run(context.Background(), &util.BasicLogContext{}, client,
		RunOptions{}, testConfig(time.Now()))

	assert.ErrorIs(t, err, model.ErrNoGeometry)
}

func TestRun_NoSamples(t *testing.T) {
	// Mock: discovery finds nothing in any year
	client := &mockClient{
		searchDates: func(ctx context.Context, options sentinel.SearchOptions) ([]time.Time, error) {
			return nil, nil
		},
	}

	_, err := Run(context.Background(), &util.BasicLogContext{}, client,
		testRunOptions(t), testConfig(time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)))

	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestRun_DiscoveryFailureDegrades(t *testing.T) {
	// Mock: one year's discovery blows up entirely, another delivers
	fetched := 0
	client := &mockClient{
		searchDates: func(ctx context.Context, options sentinel.SearchOptions) ([]time.Time, error) {
			start, _ := time.Parse(time.RFC3339, options.AcquiredDate)
			switch start.Year() {
			case 2023:
				return nil, errors.New("catalog outage")
			case 2024:
				return []time.Time{time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}, nil
			}
			return nil, nil
		},
		fetchRaster: func(ctx context.Context, options sentinel.FetchOptions) ([]byte, error) {
			fetched++
			return rasterPayload(2, 2, forestPixels), nil
		},
	}

	series, err := Run(context.Background(), &util.BasicLogContext{}, client,
		testRunOptions(t), testConfig(time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)))

	assert.Nil(t, err)
	assert.Equal(t, 1, fetched)
	assert.Equal(t, 1, len(series.Samples))
}

func TestRun_SkipsUnfinishedSeason(t *testing.T) {
	// Mock: mid-July, the current year's window is still open
	var searchedYears []int
	client := &mockClient{
		searchDates: func(ctx context.Context, options sentinel.SearchOptions) ([]time.Time, error) {
			start, _ := time.Parse(time.RFC3339, options.AcquiredDate)
			searchedYears = append(searchedYears, start.Year())
			return []time.Time{time.Date(start.Year(), 7, 1, 0, 0, 0, 0, time.UTC)}, nil
		},
		fetchRaster: func(ctx context.Context, options sentinel.FetchOptions) ([]byte, error) {
			return rasterPayload(2, 2, forestPixels), nil
		},
	}

	_, err := Run(context.Background(), &util.BasicLogContext{}, client,
		testRunOptions(t), testConfig(time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)))

	assert.Nil(t, err)
	assert.Equal(t, []int{2023, 2024}, searchedYears)
}

func TestRun_LowVegetationAdvisory(t *testing.T) {
	client := &mockClient{
		searchDates: func(ctx context.Context, options sentinel.SearchOptions) ([]time.Time, error) {
			start, _ := time.Parse(time.RFC3339, options.AcquiredDate)
			if start.Year() == 2024 {
				return []time.Time{time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}, nil
			}
			return nil, nil
		},
		fetchRaster: func(ctx context.Context, options sentinel.FetchOptions) ([]byte, error) {
			return rasterPayload(2, 2, barrenPixels), nil
		},
	}

	series, err := Run(context.Background(), &util.BasicLogContext{}, client,
		testRunOptions(t), testConfig(time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)))

	assert.Nil(t, err)
	assert.True(t, series.LowVegetation)
	assert.False(t, series.Samples[0].IsForested)
}

func TestRun_NoDataPayloadSkipped(t *testing.T) {
	// Mock: every raster is fully cloud-masked
	nan := float32(math.NaN())
	client := &mockClient{
		searchDates: func(ctx context.Context, options sentinel.SearchOptions) ([]time.Time, error) {
			return []time.Time{time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}, nil
		},
		fetchRaster: func(ctx context.Context, options sentinel.FetchOptions) ([]byte, error) {
			return rasterPayload(2, 2, []float32{nan, nan, nan, nan}), nil
		},
	}

	_, err := Run(context.Background(), &util.BasicLogContext{}, client,
		testRunOptions(t), testConfig(time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)))

	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &mockClient{
		searchDates: func(ctx context.Context, options sentinel.SearchOptions) ([]time.Time, error) {
			cancel()
			return []time.Time{time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}, nil
		},
		fetchRaster: func(ctx context.Context, options sentinel.FetchOptions) ([]byte, error) {
			t.Fatal("fetch must not run after cancellation")
			return nil, nil
		},
	}

	_, err := Run(ctx, &util.BasicLogContext{}, client,
		testRunOptions(t), testConfig(time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchWithRetry_ClientErrorIsPermanent(t *testing.T) {
	calls := 0
	client := &mockClient{
		fetchRaster: func(ctx context.Context, options sentinel.FetchOptions) ([]byte, error) {
			calls++
			return nil, util.HTTPErr{Status: 403, Message: "quota exhausted"}
		},
	}
	cfg := testConfig(time.Now())

	_, err := fetchWithRetry(context.Background(), client, sentinel.FetchOptions{}, cfg)

	assert.NotNil(t, err)
	assert.Equal(t, 1, calls)
}

func TestFetchWithRetry_ServerErrorRetries(t *testing.T) {
	calls := 0
	client := &mockClient{
		fetchRaster: func(ctx context.Context, options sentinel.FetchOptions) ([]byte, error) {
			calls++
			if calls < 3 {
				return nil, util.HTTPErr{Status: 503, Message: "overloaded"}
			}
			return []byte("payload"), nil
		},
	}
	cfg := testConfig(time.Now())
	cfg.FetchRetries = 2

	payload, err := fetchWithRetry(context.Background(), client, sentinel.FetchOptions{}, cfg)

	assert.Nil(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []byte("payload"), payload)
}
