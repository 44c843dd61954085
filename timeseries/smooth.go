package timeseries

import (
	"github.com/montanaflynn/stats"

	"github.com/robertkottelin/biomass-sub000/model"
)

// RollingAverage computes a trailing moving average. The window shrinks
// at the start of the series: element i averages values
// [max(0, i-window+1), i]. Output length equals input length.
func RollingAverage(values []float64, window int) ([]float64, error) {
	if window < 1 {
		window = 1
	}
	averaged := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		mean, err := stats.Mean(values[start : i+1])
		if err != nil {
			return nil, err
		}
		averaged[i] = mean
	}
	return averaged, nil
}

// SmoothSamples fills the rolling-average fields of every sample over the
// trailing window, independently for biomass and the index mean. It does
// not reorder or drop samples.
func SmoothSamples(samples []model.Sample, window int) error {
	biomass := make([]float64, len(samples))
	index := make([]float64, len(samples))
	for i, sample := range samples {
		biomass[i] = sample.Biomass
		index[i] = sample.IndexMean
	}

	smoothedBiomass, err := RollingAverage(biomass, window)
	if err != nil {
		return err
	}
	smoothedIndex, err := RollingAverage(index, window)
	if err != nil {
		return err
	}

	for i := range samples {
		samples[i].BiomassRollingAvg = smoothedBiomass[i]
		samples[i].IndexRollingAvg = smoothedIndex[i]
	}
	return nil
}
