package model

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testSeries() *Series {
	return &Series{Samples: []Sample{{
		Date:              time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
		Year:              2024,
		Month:             7,
		Day:               15,
		ElapsedYears:      1.5342,
		IndexMean:         0.654321,
		IndexMin:          -0.2,
		IndexMax:          0.91,
		Biomass:           241.567,
		StandAge:          21.5342,
		ValidPixels:       9500,
		TotalPixels:       10000,
		CoveragePercent:   95.0,
		VegetationPercent: 87.25,
		IsWater:           false,
		IsForested:        true,
		BiomassRollingAvg: 240.111,
		IndexRollingAvg:   0.64999,
	}}}
}

func TestSeries_CSVRecords(t *testing.T) {
	// Tested code
	records := testSeries().CSVRecords()

	// Asserts
	assert.Len(t, records, 2)
	header := records[0]
	row := records[1]
	assert.Len(t, row, len(header))

	assert.Equal(t, "date", header[0])
	assert.Equal(t, "2024-07-15", row[0])
	assert.Equal(t, "1.534", row[4], "elapsed years carry 3 decimals")
	assert.Equal(t, "0.6543", row[5], "index values carry 4 decimals")
	assert.Equal(t, "241.57", row[8], "biomass carries 2 decimals")
	assert.Equal(t, "21.53", row[9], "stand age carries 2 decimals")
	assert.Equal(t, "95.0", row[12], "percentages carry 1 decimal")
	assert.Equal(t, "87.3", row[13])
	assert.Equal(t, "false", row[14])
	assert.Equal(t, "true", row[15])
	assert.Equal(t, "240.11", row[16])
	assert.Equal(t, "0.6500", row[17])
}

func TestSeries_WriteCSV(t *testing.T) {
	// Mock
	buffer := bytes.Buffer{}

	// Tested code
	err := testSeries().WriteCSV(&buffer)

	// Asserts
	assert.Nil(t, err)
	assert.Contains(t, buffer.String(), "date,year,month,day")
	assert.Contains(t, buffer.String(), "2024-07-15")
}

func TestSeries_ForestedFraction(t *testing.T) {
	// Mock
	series := Series{Samples: []Sample{
		{IsForested: true},
		{IsForested: false},
		{IsForested: true},
		{IsForested: true},
	}}

	// Tested code + Asserts
	assert.Equal(t, 0.75, series.ForestedFraction())
	assert.Equal(t, 0.0, (&Series{}).ForestedFraction())
}
