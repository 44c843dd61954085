// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/robertkottelin/biomass-sub000/model"
	"github.com/robertkottelin/biomass-sub000/sentinel"
	"github.com/robertkottelin/biomass-sub000/timeseries"
	"github.com/robertkottelin/biomass-sub000/util"
)

func runAction(c *cli.Context) error {
	logContext := &(util.BasicLogContext{})

	coordinates, err := parseCoordinates(c.String("coordinates"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	parcel, err := model.NewParcel(coordinates, c.String("species"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	table, err := model.LoadSpeciesTable(util.GetSpeciesFile())
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	species, err := table.Get(c.String("species"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	imagery, err := sentinel.NewContext()
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	options := timeseries.RunOptions{Parcel: parcel, Species: species, StandAge: c.Float64("age")}
	series, err := timeseries.Run(context.Background(), logContext, imagery, options, timeseries.DefaultConfig())
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	if archive := newArchiveFunc(logContext); archive != nil {
		if err := archive(logContext, logContext.SessionID(), parcel, series); err != nil {
			util.LogAlert(logContext, fmt.Sprintf("Could not archive run: %v", err))
		}
	}

	if c.Bool("csv") {
		return series.WriteCSV(os.Stdout)
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(series)
}

// parseCoordinates reads a 'lat,lon;lat,lon;...' vertex list
func parseCoordinates(input string) ([]model.Coordinate, error) {
	if strings.TrimSpace(input) == "" {
		return nil, model.ErrNoGeometry
	}
	pairs := strings.Split(input, ";")
	coordinates := make([]model.Coordinate, 0, len(pairs))
	for _, pair := range pairs {
		parts := strings.Split(strings.TrimSpace(pair), ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid coordinate pair: %q", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in pair %q: %v", pair, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in pair %q: %v", pair, err)
		}
		coordinates = append(coordinates, model.Coordinate{Lat: lat, Lon: lon})
	}
	return coordinates, nil
}
