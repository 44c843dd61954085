package history

import (
	"database/sql"

	"github.com/robertkottelin/biomass-sub000/model"
)

// SaveSeries archives one finalized series, one row per sample
func SaveSeries(tx *sql.Tx, runID string, parcel *model.Parcel, series *model.Series) error {
	stmt, err := tx.Prepare(`
		INSERT INTO public.biomass_samples (
			run_id, sample_date, species, area_ha,
			index_mean, index_min, index_max, biomass, stand_age,
			valid_pixels, total_pixels, coverage_percent, vegetation_percent,
			is_water, is_forested, biomass_rolling_avg, index_rolling_avg)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	areaHectares := parcel.AreaHectares()
	for _, sample := range series.Samples {
		_, err = stmt.Exec(
			runID, sample.Date, parcel.Species, areaHectares,
			sample.IndexMean, sample.IndexMin, sample.IndexMax, sample.Biomass, sample.StandAge,
			sample.ValidPixels, sample.TotalPixels, sample.CoveragePercent, sample.VegetationPercent,
			sample.IsWater, sample.IsForested, sample.BiomassRollingAvg, sample.IndexRollingAvg,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetSeriesByRunID retrieves the archived samples of one run, sorted by date
func GetSeriesByRunID(tx *sql.Tx, runID string) ([]ArchivedSample, error) {
	rows, err := tx.Query(`
		SELECT run_id, sample_date, species, area_ha,
			index_mean, index_min, index_max, biomass, stand_age,
			valid_pixels, total_pixels, coverage_percent, vegetation_percent,
			is_water, is_forested, biomass_rolling_avg, index_rolling_avg
		FROM public.biomass_samples
		WHERE run_id=$1
		ORDER BY sample_date ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []ArchivedSample{}
	for rows.Next() {
		sample := ArchivedSample{}
		err = rows.Scan(
			&sample.RunID, &sample.SampleDate, &sample.Species, &sample.AreaHectares,
			&sample.IndexMean, &sample.IndexMin, &sample.IndexMax, &sample.Biomass, &sample.StandAge,
			&sample.ValidPixels, &sample.TotalPixels, &sample.CoveragePercent, &sample.VegetationPercent,
			&sample.IsWater, &sample.IsForested, &sample.BiomassRollingAvg, &sample.IndexRollingAvg,
		)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}
