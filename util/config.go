// Copyright 2016, RadiantBlue Technologies, Inc.
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

package util

import "os"

// Environment variables
const (
	SH_CATALOG_URL   = "SH_CATALOG_URL"
	SH_PROCESS_URL   = "SH_PROCESS_URL"
	SH_ACCESS_TOKEN  = "SH_ACCESS_TOKEN"
	SH_COLLECTION_ID = "SH_COLLECTION_ID"
	SPECIES_FILE     = "SPECIES_FILE"
)

const defaultCatalogURL = "https://services.sentinel-hub.com/api/v1/catalog/1.0.0"
const defaultProcessURL = "https://services.sentinel-hub.com/api/v1/process"
const defaultCollectionID = "sentinel-2-l2a"

// GetCatalogURL returns the imagery catalog base URL from the
// SH_CATALOG_URL environment variable, or a default
func GetCatalogURL() string {
	catalogURL, ok := os.LookupEnv(SH_CATALOG_URL)
	if !ok {
		LogInfo(&BasicLogContext{}, "Did not get explicit catalog URL from the environment. Using default catalog URL: "+defaultCatalogURL)
		catalogURL = defaultCatalogURL
	}
	return catalogURL
}

// GetProcessURL returns the imagery processing base URL from the
// SH_PROCESS_URL environment variable, or a default
func GetProcessURL() string {
	processURL, ok := os.LookupEnv(SH_PROCESS_URL)
	if !ok {
		LogInfo(&BasicLogContext{}, "Did not get explicit process URL from the environment. Using default process URL: "+defaultProcessURL)
		processURL = defaultProcessURL
	}
	return processURL
}

// GetAccessToken returns the bearer credential for the imagery services
// from the SH_ACCESS_TOKEN environment variable. The token is opaque;
// it is never inspected or refreshed here.
func GetAccessToken() string {
	token, ok := os.LookupEnv(SH_ACCESS_TOKEN)
	if !ok {
		LogAlert(&BasicLogContext{}, "Did not get an imagery access token from the environment. Imagery services will not be available.")
	}
	return token
}

// GetCollectionID returns the imagery collection to discover scenes from
func GetCollectionID() string {
	collection, ok := os.LookupEnv(SH_COLLECTION_ID)
	if !ok {
		collection = defaultCollectionID
	}
	return collection
}

// GetSpeciesFile returns the path of an optional TOML species parameter
// table override, or an empty string when the built-in table applies
func GetSpeciesFile() string {
	return os.Getenv(SPECIES_FILE)
}
