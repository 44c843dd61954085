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

// Package timeseries drives the acquisition pipeline: it discovers
// candidate imaging dates over a multi-year window, fetches one raster
// per date under rate limits, converts each into a biomass sample and
// finalizes the sorted, smoothed series. Fetches run strictly
// sequentially; the rate-limiting policy depends on uniform inter-request
// spacing.
package timeseries

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/venicegeo/geojson-go/geojson"

	"github.com/robertkottelin/biomass-sub000/growth"
	"github.com/robertkottelin/biomass-sub000/model"
	"github.com/robertkottelin/biomass-sub000/raster"
	"github.com/robertkottelin/biomass-sub000/sentinel"
	"github.com/robertkottelin/biomass-sub000/util"
)

// ErrNoSamples indicates that no acquisition in the whole window produced
// a usable sample. Fatal for a run, reported as "no data" rather than a
// crash.
var ErrNoSamples = errors.New("no usable acquisitions found for the parcel over the requested years")

// Client is the imagery backend the pipeline drives
type Client interface {
	SearchDates(ctx context.Context, options sentinel.SearchOptions) ([]time.Time, error)
	FetchRaster(ctx context.Context, options sentinel.FetchOptions) ([]byte, error)
}

// Config carries the acquisition policy. Thresholds, delays, season and
// grid breakpoints are tunable policy constants, not correctness
// invariants.
type Config struct {
	Collection string

	// YearsBack extends the window to [currentYear-YearsBack, currentYear]
	YearsBack int

	// Seasonal acquisition window, fixed calendar dates each year
	SeasonStartMonth time.Month
	SeasonStartDay   int
	SeasonEndMonth   time.Month
	SeasonEndDay     int

	MaxCloudCover float64
	ResultLimit   int

	// RequestDelay spaces consecutive per-date fetches; YearCooldown is
	// the longer pause between years. Upstream quota policy.
	RequestDelay time.Duration
	YearCooldown time.Duration

	// FetchRetries bounds backoff retries of one date's fetch before the
	// date is abandoned
	FetchRetries uint64

	SmoothingWindow int

	// ForestedThreshold is the vegetation percent above which a sample
	// counts as forested; LowVegetationRatio is the forested fraction
	// below which the finished run carries an advisory
	ForestedThreshold  float64
	LowVegetationRatio float64

	// CoverageWarnLevel is the valid-pixel percent below which a kept
	// sample is flagged in the log
	CoverageWarnLevel float64

	Breakpoints []ResolutionBreakpoint
	MaxGridSize int

	// Now is replaceable for tests
	Now func() time.Time
}

// DefaultConfig returns the standard acquisition policy
func DefaultConfig() Config {
	return Config{
		Collection:         util.GetCollectionID(),
		YearsBack:          3,
		SeasonStartMonth:   time.June,
		SeasonStartDay:     1,
		SeasonEndMonth:     time.August,
		SeasonEndDay:       31,
		MaxCloudCover:      20,
		ResultLimit:        10,
		RequestDelay:       1 * time.Second,
		YearCooldown:       3 * time.Second,
		FetchRetries:       2,
		SmoothingWindow:    7,
		ForestedThreshold:  30,
		LowVegetationRatio: 0.5,
		CoverageWarnLevel:  50,
		Breakpoints:        DefaultResolutionBreakpoints(),
		MaxGridSize:        300,
		Now:                time.Now,
	}
}

// RunOptions identify one acquisition run
type RunOptions struct {
	Parcel   *model.Parcel
	Species  model.SpeciesParameters
	StandAge float64 // base age in years at the start of the window
}

// Run executes one full acquisition over the configured multi-year
// window and returns the finalized series. Failure of a single date never
// aborts the run; a year whose discovery fails degrades to zero candidate
// dates. Cancellation is cooperative between date iterations.
func Run(ctx context.Context, logCtx util.LogContext, client Client, options RunOptions, cfg Config) (*model.Series, error) {
	if options.Parcel == nil || len(options.Parcel.Coordinates) < 3 {
		return nil, model.ErrNoGeometry
	}

	bbox := options.Parcel.BoundingBox()
	polygon := options.Parcel.Polygon()
	widthKm, heightKm := options.Parcel.FootprintKm()
	gridSize := GridSize(widthKm, heightKm, cfg.Breakpoints, cfg.MaxGridSize)
	util.LogInfo(logCtx, fmt.Sprintf("Parcel footprint %.2fx%.2f km (%.2f ha), using a %dpx output grid",
		widthKm, heightKm, options.Parcel.AreaHectares(), gridSize))

	now := cfg.Now()
	currentYear := now.Year()
	startYear := currentYear - cfg.YearsBack

	samples := []model.Sample{}
	for year := startYear; year <= currentYear; year++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if year == currentYear && now.Before(cfg.seasonEnd(year)) {
			util.LogInfo(logCtx, fmt.Sprintf("Seasonal window for %d has not yet elapsed, skipping", year))
			continue
		}

		dates := discoverYear(ctx, logCtx, client, bbox, year, cfg)
		for _, date := range dates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			sample, ok := acquireDate(ctx, logCtx, client, polygon, bbox, date, startYear, gridSize, options, cfg)
			if ok {
				samples = append(samples, sample)
			}
			if err := sleepCtx(ctx, cfg.RequestDelay); err != nil {
				return nil, err
			}
		}
		if err := sleepCtx(ctx, cfg.YearCooldown); err != nil {
			return nil, err
		}
	}

	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].Date.Before(samples[j].Date) })
	if err := SmoothSamples(samples, cfg.SmoothingWindow); err != nil {
		return nil, err
	}

	series := &model.Series{Samples: samples}
	if series.ForestedFraction() < cfg.LowVegetationRatio {
		series.LowVegetation = true
		util.LogAlert(logCtx, fmt.Sprintf(
			"Only %.0f%% of samples look forested; the parcel may not be forest land",
			series.ForestedFraction()*100))
	}
	return series, nil
}

// discoverYear runs one catalog query for a year's seasonal window. A
// discovery failure degrades to zero candidate dates for that year.
func discoverYear(ctx context.Context, logCtx util.LogContext, client Client, bbox geojson.BoundingBox, year int, cfg Config) []time.Time {
	searchOptions := sentinel.SearchOptions{
		Collection:      cfg.Collection,
		Bbox:            bbox,
		AcquiredDate:    cfg.seasonStart(year).Format(time.RFC3339),
		MaxAcquiredDate: cfg.seasonEnd(year).Format(time.RFC3339),
		CloudCover:      cfg.MaxCloudCover,
		Limit:           cfg.ResultLimit,
	}
	dates, err := client.SearchDates(ctx, searchOptions)
	if err != nil {
		util.LogAlert(logCtx, fmt.Sprintf("Discovery failed for %d, continuing with no candidate dates: %v", year, err))
		return nil
	}
	util.LogInfo(logCtx, fmt.Sprintf("Discovered %d candidate dates for %d", len(dates), year))
	return dates
}

// acquireDate fetches and decodes one date's raster, returning a sample
// on success. Every failure class here is per-date: it is logged and the
// run moves on.
func acquireDate(ctx context.Context, logCtx util.LogContext, client Client, polygon *geojson.Polygon, bbox geojson.BoundingBox,
	date time.Time, startYear, gridSize int, options RunOptions, cfg Config) (model.Sample, bool) {

	payload, err := fetchWithRetry(ctx, client, sentinel.FetchOptions{
		Bbox:       bbox,
		Geometry:   polygon,
		TimeFrom:   date.Format(time.RFC3339),
		TimeTo:     date.Add(24*time.Hour - time.Second).Format(time.RFC3339),
		CloudCover: cfg.MaxCloudCover,
		Width:      gridSize,
		Height:     gridSize,
		Evalscript: sentinel.NDVIEvalscript,
	}, cfg)
	if err != nil {
		util.LogAlert(logCtx, fmt.Sprintf("Fetch failed for %s, skipping: %v", date.Format(time.DateOnly), err))
		return model.Sample{}, false
	}

	stats, err := raster.Decode(logCtx, payload, gridSize, gridSize)
	if err != nil {
		util.LogAlert(logCtx, fmt.Sprintf("Decode failed for %s, skipping: %v", date.Format(time.DateOnly), err))
		return model.Sample{}, false
	}
	if !stats.HasData {
		util.LogAlert(logCtx, fmt.Sprintf("No valid pixels for %s, skipping", date.Format(time.DateOnly)))
		return model.Sample{}, false
	}
	if stats.CoveragePercent() < cfg.CoverageWarnLevel {
		util.LogAlert(logCtx, fmt.Sprintf("Low pixel coverage (%.1f%%) for %s", stats.CoveragePercent(), date.Format(time.DateOnly)))
	}

	elapsed := float64(date.Year()-startYear) + float64(date.YearDay())/365.0
	biomass := growth.EstimateBiomass(stats.Mean, options.Species, elapsed, options.StandAge)

	return model.Sample{
		Date:              date,
		Year:              date.Year(),
		Month:             int(date.Month()),
		Day:               date.Day(),
		ElapsedYears:      elapsed,
		IndexMean:         stats.Mean,
		IndexMin:          stats.Min,
		IndexMax:          stats.Max,
		Biomass:           biomass,
		StandAge:          options.StandAge + elapsed,
		ValidPixels:       stats.ValidPixels,
		TotalPixels:       stats.TotalPixels,
		CoveragePercent:   stats.CoveragePercent(),
		VegetationPercent: stats.VegetationPercent,
		IsWater:           stats.Mean < 0,
		IsForested:        stats.VegetationPercent > cfg.ForestedThreshold,
	}, true
}

// fetchWithRetry retries transient fetch failures under a bounded
// exponential backoff; HTTP client errors are permanent
func fetchWithRetry(ctx context.Context, client Client, options sentinel.FetchOptions, cfg Config) ([]byte, error) {
	var payload []byte
	operation := func() error {
		var err error
		payload, err = client.FetchRaster(ctx, options)
		if err != nil {
			var httpErr util.HTTPErr
			if errors.As(err, &httpErr) && httpErr.Status < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cfg.FetchRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return payload, nil
}

func (cfg Config) seasonStart(year int) time.Time {
	return time.Date(year, cfg.SeasonStartMonth, cfg.SeasonStartDay, 0, 0, 0, 0, time.UTC)
}

func (cfg Config) seasonEnd(year int) time.Time {
	return time.Date(year, cfg.SeasonEndMonth, cfg.SeasonEndDay, 23, 59, 59, 0, time.UTC)
}

// sleepCtx pauses for the rate-limit delay, returning early only on
// cancellation
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
