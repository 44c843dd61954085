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
	"fmt"

	cli "gopkg.in/urfave/cli.v1"
)

const version = "1.0.0"

var commands = cli.Commands{
	cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Launch the biomass-broker webserver",
		Action:  serveAction,
	},
	cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run one biomass time-series acquisition and print the result",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "coordinates, c",
				Usage: "Parcel vertices as lat,lon pairs separated by semicolons, e.g. '61.00,24.00;61.00,24.01;61.01,24.01'",
			},
			cli.StringFlag{
				Name:  "species, s",
				Value: "pine",
				Usage: "Species tag from the species parameter table",
			},
			cli.Float64Flag{
				Name:  "age, a",
				Value: 20,
				Usage: "Stand age in years at the start of the window",
			},
			cli.BoolFlag{
				Name:  "csv",
				Usage: "Print the tabular CSV export instead of JSON",
			},
		},
		Action: runAction,
	},
	cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Update database schema",
		Action:  migrateDatabaseAction,
	},
	cli.Command{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "Print the version number of the Broker CLI",
		Action:  versionAction,
	},
}

func createCliApp() (app *cli.App) {
	app = cli.NewApp()
	app.Name = "biomass-broker"
	app.Usage = "Launch a biomass-broker process"
	app.Commands = commands
	return
}

func versionAction(*cli.Context) {
	fmt.Println(version)
}
