package migration

import (
	"database/sql"

	"github.com/pressly/goose"
)

func init() {
	goose.AddMigration(Up00001, Down00001)
}

// Up00001 creates the biomass sample archive table
func Up00001(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE public.biomass_samples
		(
			run_id text COLLATE pg_catalog."default" NOT NULL,
			sample_date timestamp without time zone NOT NULL,
			species text COLLATE pg_catalog."default" NOT NULL,
			area_ha real NOT NULL,
			index_mean real NOT NULL,
			index_min real NOT NULL,
			index_max real NOT NULL,
			biomass real NOT NULL,
			stand_age real NOT NULL,
			valid_pixels integer NOT NULL,
			total_pixels integer NOT NULL,
			coverage_percent real NOT NULL,
			vegetation_percent real NOT NULL,
			is_water boolean NOT NULL,
			is_forested boolean NOT NULL,
			biomass_rolling_avg real NOT NULL,
			index_rolling_avg real NOT NULL,
			CONSTRAINT biomass_samples_primary_run_date PRIMARY KEY (run_id, sample_date)
		)
		WITH (
			OIDS = FALSE
		);

		CREATE INDEX idx_biomass_samples_date
		ON public.biomass_samples (sample_date);
		`)
	return err
}

// Down00001 undoes the db changes
func Down00001(tx *sql.Tx) error {
	_, err := tx.Exec(`
		DROP TABLE IF EXISTS public.biomass_samples;
		`)
	return err
}
