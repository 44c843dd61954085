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

package sentinel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/venicegeo/geojson-go/geojson"

	"github.com/robertkottelin/biomass-sub000/model"
	"github.com/robertkottelin/biomass-sub000/util"
)

// SearchDates runs one catalog search and returns the distinct acquisition
// dates of the matching scenes, sorted ascending. Timestamps are reduced
// to their date portion; duplicate overpasses on one day collapse to one
// candidate.
func (c *Context) SearchDates(ctx context.Context, options SearchOptions) ([]time.Time, error) {
	var (
		err          error
		response     *http.Response
		requestBody  []byte
		responseBody []byte
	)

	req := searchRequest{
		Bbox:        options.Bbox,
		Datetime:    options.AcquiredDate + "/" + options.MaxAcquiredDate,
		Collections: []string{options.Collection},
		Limit:       options.Limit,
	}
	if options.CloudCover > 0 {
		req.Query = map[string]rangeFilter{"eo:cloud_cover": {LTE: options.CloudCover}}
	}
	if requestBody, err = json.Marshal(req); err != nil {
		err = util.LogSimpleErr(c, fmt.Sprintf("Failed to marshal catalog request object %#v.", req), err)
		return nil, err
	}

	input := requestInput{method: "POST", baseURL: c.BaseCatalogURL, inputURL: "search", body: requestBody, contentType: "application/json"}
	if response, err = doRequest(ctx, input, c); err != nil {
		err = util.LogSimpleErr(c, fmt.Sprintf("Failed to complete catalog search request %#v.", string(requestBody)), err)
		return nil, err
	}
	switch {
	case (response.StatusCode >= 400) && (response.StatusCode < 500):
		message := fmt.Sprintf("Failed to discover scenes from the imagery catalog: %v. ", response.Status)
		err := util.HTTPErr{Status: response.StatusCode, Message: message}
		util.LogAlert(c, message)
		return nil, err
	case response.StatusCode >= 500:
		err = util.LogSimpleErr(c, "Failed to discover scenes from the imagery catalog.", errors.New(response.Status))
		return nil, err
	default:
		//no op
	}

	defer response.Body.Close()
	responseBody, _ = io.ReadAll(response.Body)

	return parseSearchDates(c, responseBody)
}

// parseSearchDates reduces a catalog feature collection to its distinct
// acquisition dates
func parseSearchDates(context util.LogContext, body []byte) ([]time.Time, error) {
	var (
		fc  *geojson.FeatureCollection
		fci interface{}
		err error
		ok  bool
	)
	if fci, err = geojson.Parse(body); err != nil {
		err = util.LogSimpleErr(context, fmt.Sprintf("Failed to parse catalog GeoJSON.\n%v", string(body)), err)
		return nil, err
	}
	if fc, ok = fci.(*geojson.FeatureCollection); !ok {
		catErr := util.Error{SimpleMsg: fmt.Sprintf("Expected a FeatureCollection and got %T", fci),
			Response: string(body)}
		err = catErr.Log(context, "")
		return nil, err
	}

	seen := map[time.Time]bool{}
	dates := []time.Time{}
	for _, feature := range fc.Features {
		timestamp, err := model.ParseCatalogTime(feature.PropertyString("datetime"))
		if err != nil {
			util.LogAlert(context, err.Error()+" :: in catalog feature: "+feature.IDStr())
			continue
		}
		date := timestamp.UTC().Truncate(24 * time.Hour)
		if !seen[date] {
			seen[date] = true
			dates = append(dates, date)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// doRequest performs the request against an imagery service base URL
func doRequest(ctx context.Context, input requestInput, c *Context) (*http.Response, error) {
	var (
		request   *http.Request
		parsedURL *url.URL
		inputURL  string
		err       error
	)
	inputURL = input.inputURL
	if !strings.Contains(inputURL, input.baseURL) {
		baseURL, _ := url.Parse(input.baseURL + "/")
		parsedRelativeURL, _ := url.Parse(input.inputURL)
		resolvedURL := baseURL.ResolveReference(parsedRelativeURL)

		if parsedURL, err = url.Parse(resolvedURL.String()); err != nil {
			err = util.LogSimpleErr(c, fmt.Sprintf("Failed to parse %v into a URL.", resolvedURL.String()), err)
			return nil, err
		}
		inputURL = parsedURL.String()
	}
	if request, err = http.NewRequestWithContext(ctx, input.method, inputURL, bytes.NewBuffer(input.body)); err != nil {
		err = util.LogSimpleErr(c, fmt.Sprintf("Failed to make a new HTTP request for %v.", inputURL), err)
		return nil, err
	}
	if input.contentType != "" {
		request.Header.Set("Content-Type", input.contentType)
	}
	if input.accept != "" {
		request.Header.Set("Accept", input.accept)
	}

	request.Header.Set("Authorization", "Bearer "+c.AccessToken)
	util.LogAudit(c, util.LogAuditInput{Actor: "sentinel/doRequest", Action: input.method, Actee: inputURL, Message: "Requesting data from imagery service", Severity: util.INFO})
	util.LogAudit(c, util.LogAuditInput{Actor: inputURL, Action: input.method + " response", Actee: "sentinel/doRequest", Message: "Receiving data from imagery service", Severity: util.INFO})
	return util.HTTPClient().Do(request)
}
