package model

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// Column order of the tabular export. Every Sample field maps to exactly
// one column.
var exportHeader = []string{
	"date", "year", "month", "day", "elapsedYears",
	"indexMean", "indexMin", "indexMax", "biomass", "standAge",
	"validPixels", "totalPixels", "coveragePercent", "vegetationPercent",
	"isWater", "isForested", "biomassRollingAvg", "indexRollingAvg",
}

// CSVRecords flattens the series into rows for tabular export, one row
// per sample plus a header row. Index values carry 4 decimals, biomass
// and age 2, elapsed-year fractions 3 and percentages 1.
func (s *Series) CSVRecords() [][]string {
	records := make([][]string, 0, len(s.Samples)+1)
	records = append(records, exportHeader)
	for _, sample := range s.Samples {
		records = append(records, []string{
			sample.Date.Format(time.DateOnly),
			strconv.Itoa(sample.Year),
			strconv.Itoa(sample.Month),
			strconv.Itoa(sample.Day),
			strconv.FormatFloat(sample.ElapsedYears, 'f', 3, 64),
			strconv.FormatFloat(sample.IndexMean, 'f', 4, 64),
			strconv.FormatFloat(sample.IndexMin, 'f', 4, 64),
			strconv.FormatFloat(sample.IndexMax, 'f', 4, 64),
			strconv.FormatFloat(sample.Biomass, 'f', 2, 64),
			strconv.FormatFloat(sample.StandAge, 'f', 2, 64),
			strconv.Itoa(sample.ValidPixels),
			strconv.Itoa(sample.TotalPixels),
			strconv.FormatFloat(sample.CoveragePercent, 'f', 1, 64),
			strconv.FormatFloat(sample.VegetationPercent, 'f', 1, 64),
			strconv.FormatBool(sample.IsWater),
			strconv.FormatBool(sample.IsForested),
			strconv.FormatFloat(sample.BiomassRollingAvg, 'f', 2, 64),
			strconv.FormatFloat(sample.IndexRollingAvg, 'f', 4, 64),
		})
	}
	return records
}

// WriteCSV writes the tabular export of the series
func (s *Series) WriteCSV(w io.Writer) error {
	return csv.NewWriter(w).WriteAll(s.CSVRecords())
}
