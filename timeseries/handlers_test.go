package timeseries

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/robertkottelin/biomass-sub000/model"
	"github.com/robertkottelin/biomass-sub000/sentinel"
	"github.com/robertkottelin/biomass-sub000/util"
)

func testHandler(client Client, archive ArchiveFunc) TimeseriesHandler {
	return TimeseriesHandler{
		Client:  client,
		Species: model.DefaultSpeciesTable(),
		Config:  testConfig(time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)),
		Archive: archive,
	}
}

func singleDateClient() *mockClient {
	return &mockClient{
		searchDates: func(ctx context.Context, options sentinel.SearchOptions) ([]time.Time, error) {
			start, _ := time.Parse(time.RFC3339, options.AcquiredDate)
			if start.Year() == 2024 {
				return []time.Time{time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}, nil
			}
			return nil, nil
		},
		fetchRaster: func(ctx context.Context, options sentinel.FetchOptions) ([]byte, error) {
			return rasterPayload(2, 2, forestPixels), nil
		},
	}
}

func timeseriesBody(t *testing.T, species string) *bytes.Buffer {
	body, err := json.Marshal(TimeseriesRequest{
		Coordinates: []model.Coordinate{
			{Lat: 61.50, Lon: 24.00},
			{Lat: 61.50, Lon: 24.01},
			{Lat: 61.51, Lon: 24.01},
			{Lat: 61.51, Lon: 24.00},
		},
		Species:  species,
		StandAge: 30,
	})
	assert.Nil(t, err)
	return bytes.NewBuffer(body)
}

func TestTimeseriesHandler(t *testing.T) {
	// Mock
	archived := ""
	archive := func(logCtx util.LogContext, runID string, parcel *model.Parcel, series *model.Series) error {
		archived = runID
		return nil
	}
	handler := testHandler(singleDateClient(), archive)
	request := httptest.NewRequest(http.MethodPost, "/forest/timeseries", timeseriesBody(t, "pine"))
	recorder := httptest.NewRecorder()

	// Tested code
	handler.ServeHTTP(recorder, request)

	// Asserts
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var response TimeseriesResponse
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "pine", response.Species)
	assert.Equal(t, 1, len(response.Samples))
	assert.True(t, response.AreaHectares > 0)
	assert.NotEmpty(t, response.RunID)
	assert.Equal(t, response.RunID, archived)
}

func TestTimeseriesHandler_CSV(t *testing.T) {
	// Mock
	handler := testHandler(singleDateClient(), nil)
	handler.CSV = true
	request := httptest.NewRequest(http.MethodPost, "/forest/timeseries.csv", timeseriesBody(t, "pine"))
	recorder := httptest.NewRecorder()

	// Tested code
	handler.ServeHTTP(recorder, request)

	// Asserts
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "text/csv", recorder.Header().Get("Content-Type"))
	assert.Contains(t, recorder.Header().Get("Content-Disposition"), "attachment")
	lines := strings.Split(strings.TrimSpace(recorder.Body.String()), "\n")
	assert.Equal(t, 2, len(lines))
	assert.True(t, strings.HasPrefix(lines[0], "date,"))
	assert.True(t, strings.HasPrefix(lines[1], "2024-07-01,"))
}

func TestTimeseriesHandler_BadBody(t *testing.T) {
	handler := testHandler(singleDateClient(), nil)
	request := httptest.NewRequest(http.MethodPost, "/forest/timeseries", strings.NewReader("{not json"))
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestTimeseriesHandler_DegenerateGeometry(t *testing.T) {
	handler := testHandler(singleDateClient(), nil)
	body, _ := json.Marshal(TimeseriesRequest{
		Coordinates: []model.Coordinate{{Lat: 61.5, Lon: 24.0}, {Lat: 61.6, Lon: 24.1}},
		Species:     "pine",
	})
	request := httptest.NewRequest(http.MethodPost, "/forest/timeseries", bytes.NewBuffer(body))
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestTimeseriesHandler_UnknownSpecies(t *testing.T) {
	handler := testHandler(singleDateClient(), nil)
	request := httptest.NewRequest(http.MethodPost, "/forest/timeseries", timeseriesBody(t, "baobab"))
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestTimeseriesHandler_NoSamplesIs404(t *testing.T) {
	// Mock: the catalog is empty everywhere
	client := &mockClient{
		searchDates: func(ctx context.Context, options sentinel.SearchOptions) ([]time.Time, error) {
			return nil, nil
		},
	}
	handler := testHandler(client, nil)
	request := httptest.NewRequest(http.MethodPost, "/forest/timeseries", timeseriesBody(t, "pine"))
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestTimeseriesHandler_ArchiveFailureDoesNotSpoilRun(t *testing.T) {
	// Mock
	archive := func(logCtx util.LogContext, runID string, parcel *model.Parcel, series *model.Series) error {
		return assert.AnError
	}
	handler := testHandler(singleDateClient(), archive)
	request := httptest.NewRequest(http.MethodPost, "/forest/timeseries", timeseriesBody(t, "pine"))
	recorder := httptest.NewRecorder()

	// Tested code
	handler.ServeHTTP(recorder, request)

	// Asserts
	assert.Equal(t, http.StatusOK, recorder.Code)
}
