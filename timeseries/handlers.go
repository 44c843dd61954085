package timeseries

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/robertkottelin/biomass-sub000/model"
	"github.com/robertkottelin/biomass-sub000/sentinel"
	"github.com/robertkottelin/biomass-sub000/util"
)

// ArchiveFunc persists a finalized series, keyed by run ID. Optional:
// a nil ArchiveFunc disables archiving.
type ArchiveFunc func(logCtx util.LogContext, runID string, parcel *model.Parcel, series *model.Series) error

// TimeseriesRequest is the request body for a biomass time-series run
type TimeseriesRequest struct {
	Coordinates []model.Coordinate `json:"coordinates"`
	Species     string             `json:"species"`
	StandAge    float64            `json:"standAge"`
}

// TimeseriesResponse wraps the finalized series with run metadata
type TimeseriesResponse struct {
	RunID        string  `json:"runId"`
	Species      string  `json:"species"`
	AreaHectares float64 `json:"areaHectares"`
	model.Series
}

// TimeseriesHandler is a handler for /forest/timeseries
// @Title forestTimeseriesHandler
// @Description runs the satellite biomass time-series pipeline for a parcel
// @Accept  json
// @Param   coordinates     body    array   true         "Parcel vertices as (lat, lon) pairs, at least 3"
// @Param   species         body    string  true         "Species tag, e.g. pine"
// @Param   standAge        body    number  false        "Stand age in years at the start of the window"
// @Success 200 {object}  TimeseriesResponse
// @Failure 400 {object}  string
// @Router /forest/timeseries [post]
type TimeseriesHandler struct {
	Client  Client
	Species model.SpeciesTable
	Config  Config
	Archive ArchiveFunc
	// CSV selects the tabular export instead of the JSON series
	CSV bool
}

// NewTimeseriesHandler creates a new handler using configuration from
// environment variables
func NewTimeseriesHandler(archive ArchiveFunc) (*TimeseriesHandler, error) {
	context, err := sentinel.NewContext()
	if err != nil {
		return nil, err
	}
	table, err := model.LoadSpeciesTable(util.GetSpeciesFile())
	if err != nil {
		return nil, err
	}
	return &TimeseriesHandler{
		Client:  context,
		Species: table,
		Config:  DefaultConfig(),
		Archive: archive,
	}, nil
}

// ServeHTTP implements the http.Handler interface for the TimeseriesHandler type
func (h TimeseriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logCtx := &util.BasicLogContext{}

	var request TimeseriesRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		message := fmt.Sprintf("Could not parse request body: %v", err)
		util.LogSimpleErr(logCtx, message, err)
		util.HTTPError(r, w, logCtx, message, http.StatusBadRequest)
		return
	}

	parcel, err := model.NewParcel(request.Coordinates, request.Species)
	if err != nil {
		util.HTTPError(r, w, logCtx, err.Error(), http.StatusBadRequest)
		return
	}
	species, err := h.Species.Get(request.Species)
	if err != nil {
		util.HTTPError(r, w, logCtx, err.Error(), http.StatusBadRequest)
		return
	}

	options := RunOptions{Parcel: parcel, Species: species, StandAge: request.StandAge}
	series, err := Run(r.Context(), logCtx, h.Client, options, h.Config)
	switch {
	case errors.Is(err, ErrNoSamples):
		util.HTTPError(r, w, logCtx, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		message := fmt.Sprintf("Time-series run failed: %v", err)
		util.LogSimpleErr(logCtx, message, err)
		util.HTTPError(r, w, logCtx, message, http.StatusBadGateway)
		return
	}

	runID := logCtx.SessionID()
	if h.Archive != nil {
		if err := h.Archive(logCtx, runID, parcel, series); err != nil {
			// Archive failures do not spoil a completed run
			util.LogAlert(logCtx, fmt.Sprintf("Could not archive run %s: %v", runID, err))
		}
	}

	if h.CSV {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="biomass-timeseries.csv"`)
		if err := series.WriteCSV(w); err != nil {
			util.LogSimpleErr(logCtx, "Failed writing CSV export", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TimeseriesResponse{
		RunID:        runID,
		Species:      request.Species,
		AreaHectares: parcel.AreaHectares(),
		Series:       *series,
	})
}
