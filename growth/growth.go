// Package growth holds the parametric biomass growth model. It is pure
// arithmetic: no I/O, no side effects, reproducible bit-for-bit under
// IEEE-754 double arithmetic.
package growth

import (
	"math"

	"github.com/robertkottelin/biomass-sub000/model"
)

// EstimateBiomass converts an observed vegetation index and stand age into
// a biomass estimate (t/ha) for the given species.
//
// The age term follows an exponential saturation curve bounded in [0, 1),
// modeling diminishing accrual as the stand matures. The index term
// normalizes the observation against the species' saturation point,
// clamped to [0, 1]. A negative index is a water signature and yields
// zero without any growth computation.
func EstimateBiomass(indexValue float64, species model.SpeciesParameters, elapsedYears, baseAge float64) float64 {
	if indexValue < 0 {
		return 0
	}

	currentAge := baseAge + elapsedYears
	growthFactor := 1 - math.Exp(-species.GrowthRate*currentAge)

	indexFactor := indexValue / species.SaturationIndex
	if indexFactor > 1 {
		indexFactor = 1
	}

	biomass := species.YoungBiomass + (species.MaxBiomass-species.YoungBiomass)*growthFactor*indexFactor
	return math.Max(0, biomass)
}
