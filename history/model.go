// Package history archives finalized biomass series in Postgres, one row
// per sample keyed by run ID. The archive is optional: without a
// configured database the pipeline never touches it. Raster payloads are
// never stored, only the derived series rows.
package history

import (
	"database/sql"
	"time"

	"github.com/robertkottelin/biomass-sub000/util"
)

// ConnectionProvider opens a database connection for the archive
type ConnectionProvider func(util.LogContext) (*sql.DB, error)

// ArchivedSample is one stored time-series point of an archived run
type ArchivedSample struct {
	RunID             string
	SampleDate        time.Time
	Species           string
	AreaHectares      float64
	IndexMean         float64
	IndexMin          float64
	IndexMax          float64
	Biomass           float64
	StandAge          float64
	ValidPixels       int
	TotalPixels       int
	CoveragePercent   float64
	VegetationPercent float64
	IsWater           bool
	IsForested        bool
	BiomassRollingAvg float64
	IndexRollingAvg   float64
}
