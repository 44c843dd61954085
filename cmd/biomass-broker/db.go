package main

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"

	_ "github.com/lib/pq"

	"github.com/robertkottelin/biomass-sub000/history"
	"github.com/robertkottelin/biomass-sub000/model"
	"github.com/robertkottelin/biomass-sub000/timeseries"
	"github.com/robertkottelin/biomass-sub000/util"
)

const connectionStringEnv = "DATABASE_URL"
const vcapServicesEnv = "VCAP_SERVICES"
const postgresServiceName = "biomass-postgres"

// getDbConnection opens a new database connection.
func getDbConnection(ctx util.LogContext) (*sql.DB, error) {
	connStr := os.Getenv(connectionStringEnv)
	if connStr == "" {
		util.LogInfo(ctx, "No DB connection found in DATABASE_URL, checking VCAP_SERVICES")
		services, err := util.ParseVcapServices([]byte(os.Getenv(vcapServicesEnv)))
		if err != nil {
			return nil, errors.New("Could not get DB connection from DATABASE_URL or VCAP_SERVICES (no valid VCAP_SERVICES found): " + err.Error())
		}
		service := services.FindServiceByName(postgresServiceName)
		if service == nil {
			return nil, fmt.Errorf("Could not get DB connection from DATABASE_URL or VCAP_SERVICES ('biomass-postgres' service not found); available services: %v",
				services.GetServiceNames())
		}
		connStr, err = service.Credentials.String("uri")
		if err != nil {
			return nil, errors.New("Could not get DB connection from DATABASE_URL or VCAP_SERVICES (error getting URI string): " + err.Error())
		}
	}

	// XXX: pq expects SSL to be enabled if not explicitly disabled; we need to explicitly disable it
	dbURI, _ := url.Parse(connStr)
	params := dbURI.Query()
	params.Set("sslmode", "disable")
	dbURI.RawQuery = params.Encode()

	util.LogInfo(ctx, fmt.Sprintf("Creating database connection at: `%s`", dbURI.String()))
	db, err := sql.Open("postgres", dbURI.String())
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	return db, err
}

var getDbConnectionFunc history.ConnectionProvider = getDbConnection

func databaseConfigured() bool {
	return os.Getenv(connectionStringEnv) != "" || os.Getenv(vcapServicesEnv) != ""
}

// newArchiveFunc wires the optional run-history archive. Without a
// configured database it returns nil and runs are not archived.
func newArchiveFunc(ctx util.LogContext) timeseries.ArchiveFunc {
	if !databaseConfigured() {
		util.LogInfo(ctx, "No database configured; finished runs will not be archived")
		return nil
	}

	return func(logCtx util.LogContext, runID string, parcel *model.Parcel, series *model.Series) error {
		db, err := getDbConnectionFunc(logCtx)
		if err != nil {
			return err
		}
		defer db.Close()

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if err = history.SaveSeries(tx, runID, parcel, series); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	}
}
