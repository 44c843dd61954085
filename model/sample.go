package model

import "time"

// IndexStatistics summarize one decoded vegetation-index raster.
// Immutable once constructed.
type IndexStatistics struct {
	Mean              float64
	Min               float64
	Max               float64
	ValidPixels       int
	TotalPixels       int
	VegetationPixels  int
	SparsePixels      int
	BarePixels        int
	WaterPixels       int
	VegetationPercent float64
	HasData           bool
}

// CoveragePercent is the share of pixels that carried a usable index value
func (s IndexStatistics) CoveragePercent() float64 {
	if s.TotalPixels == 0 {
		return 0
	}
	return float64(s.ValidPixels) / float64(s.TotalPixels) * 100
}

// Sample is one point of the biomass time series, built from one
// acquisition's index statistics and a growth-model evaluation
type Sample struct {
	Date              time.Time `json:"date"`
	Year              int       `json:"year"`
	Month             int       `json:"month"`
	Day               int       `json:"day"`
	ElapsedYears      float64   `json:"elapsedYears"`
	IndexMean         float64   `json:"indexMean"`
	IndexMin          float64   `json:"indexMin"`
	IndexMax          float64   `json:"indexMax"`
	Biomass           float64   `json:"biomass"`
	StandAge          float64   `json:"standAge"`
	ValidPixels       int       `json:"validPixels"`
	TotalPixels       int       `json:"totalPixels"`
	CoveragePercent   float64   `json:"coveragePercent"`
	VegetationPercent float64   `json:"vegetationPercent"`
	IsWater           bool      `json:"isWater"`
	IsForested        bool      `json:"isForested"`
	BiomassRollingAvg float64   `json:"biomassRollingAvg"`
	IndexRollingAvg   float64   `json:"indexRollingAvg"`
}

// Series is the finalized, chronologically sorted biomass time series.
// It is append-only during acquisition and immutable after finalization.
type Series struct {
	Samples []Sample `json:"samples"`
	// LowVegetation advises that under half the samples looked forested;
	// the run still completed
	LowVegetation bool `json:"lowVegetation"`
}

// ForestedFraction is the share of samples flagged as forested
func (s *Series) ForestedFraction() float64 {
	if len(s.Samples) == 0 {
		return 0
	}
	forested := 0
	for _, sample := range s.Samples {
		if sample.IsForested {
			forested++
		}
	}
	return float64(forested) / float64(len(s.Samples))
}
