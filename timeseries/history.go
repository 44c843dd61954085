package timeseries

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/robertkottelin/biomass-sub000/history"
	"github.com/robertkottelin/biomass-sub000/util"
)

// ArchivedRunResponse is the stored series of one archived run
type ArchivedRunResponse struct {
	RunID   string                   `json:"runId"`
	Samples []history.ArchivedSample `json:"samples"`
}

// ArchivedRunHandler is a handler for /forest/timeseries/{runId}
// @Title archivedRunHandler
// @Description retrieves the archived biomass series of a finished run
// @Accept  plain
// @Param   runId           path    string  true         "Run ID returned by a finished time-series run"
// @Success 200 {object}  ArchivedRunResponse
// @Failure 404 {object}  string
// @Router /forest/timeseries/{runId} [get]
type ArchivedRunHandler struct {
	Connection history.ConnectionProvider
}

// ServeHTTP implements the http.Handler interface for the ArchivedRunHandler type
func (h ArchivedRunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logCtx := &util.BasicLogContext{}
	runID := mux.Vars(r)["runId"]

	db, err := h.Connection(logCtx)
	if err != nil {
		message := fmt.Sprintf("Could not open the run archive: %v", err)
		util.LogSimpleErr(logCtx, message, err)
		util.HTTPError(r, w, logCtx, message, http.StatusBadGateway)
		return
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		message := fmt.Sprintf("Could not open the run archive: %v", err)
		util.LogSimpleErr(logCtx, message, err)
		util.HTTPError(r, w, logCtx, message, http.StatusBadGateway)
		return
	}
	defer tx.Rollback()

	samples, err := history.GetSeriesByRunID(tx, runID)
	if err != nil {
		message := fmt.Sprintf("Could not read archived run %s: %v", runID, err)
		util.LogSimpleErr(logCtx, message, err)
		util.HTTPError(r, w, logCtx, message, http.StatusBadGateway)
		return
	}
	if len(samples) == 0 {
		util.HTTPError(r, w, logCtx, fmt.Sprintf("No archived run found for ID %s", runID), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ArchivedRunResponse{RunID: runID, Samples: samples})
}
