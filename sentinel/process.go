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

package sentinel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/robertkottelin/biomass-sub000/util"
)

// FetchRaster requests one single-band float raster for the given
// geometry and time window, returning the raw binary payload. The payload
// is produced once per (parcel, date) pair and consumed exactly once by
// the raster decoder; it is not retained here.
func (c *Context) FetchRaster(ctx context.Context, options FetchOptions) ([]byte, error) {
	var (
		err         error
		response    *http.Response
		requestBody []byte
	)

	req := processRequest{
		Input: processInput{
			Bounds: processBounds{Bbox: options.Bbox},
			Data: []processData{{
				Type: c.Collection,
				DataFilter: dataFilter{
					TimeRange:        timeRange{From: options.TimeFrom, To: options.TimeTo},
					MaxCloudCoverage: options.CloudCover,
				},
			}},
		},
		Output: processOutput{
			Width:  options.Width,
			Height: options.Height,
			Responses: []responseSpec{{
				Identifier: "default",
				Format:     formatSpec{Type: "image/tiff"},
			}},
		},
		Evalscript: options.Evalscript,
	}
	if options.Geometry != nil {
		req.Input.Bounds.Geometry = options.Geometry
	}
	if requestBody, err = json.Marshal(req); err != nil {
		err = util.LogSimpleErr(c, fmt.Sprintf("Failed to marshal process request object %#v.", req), err)
		return nil, err
	}

	input := requestInput{
		method:      "POST",
		baseURL:     c.BaseProcessURL,
		inputURL:    c.BaseProcessURL,
		body:        requestBody,
		contentType: "application/json",
		accept:      "image/tiff",
	}
	if response, err = doRequest(ctx, input, c); err != nil {
		err = util.LogSimpleErr(c, "Failed to complete raster process request.", err)
		return nil, err
	}
	defer response.Body.Close()

	switch {
	case (response.StatusCode >= 400) && (response.StatusCode < 500):
		body, _ := io.ReadAll(response.Body)
		message := fmt.Sprintf("Failed to fetch raster from the imagery service: %v. ", response.Status)
		procErr := util.Error{LogMsg: message,
			SimpleMsg:  message,
			Response:   string(body),
			URL:        c.BaseProcessURL,
			HTTPStatus: response.StatusCode}
		procErr.Log(c, "")
		return nil, util.HTTPErr{Status: response.StatusCode, Message: message}
	case response.StatusCode >= 500:
		err = util.LogSimpleErr(c, "Failed to fetch raster from the imagery service.", errors.New(response.Status))
		return nil, err
	default:
		//no op
	}

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		err = util.LogSimpleErr(c, "Failed to read raster payload.", err)
		return nil, err
	}
	return payload, nil
}
