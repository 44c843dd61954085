package sentinel

import (
	"errors"

	"github.com/venicegeo/geojson-go/geojson"

	"github.com/robertkottelin/biomass-sub000/util"
)

// ErrNoCredential indicates that no bearer credential is configured for
// the imagery services. Fatal for a run.
var ErrNoCredential = errors.New("no imagery access token configured")

// Context is the context for an imagery-service operation
type Context struct {
	BaseCatalogURL string
	BaseProcessURL string
	AccessToken    string
	Collection     string
	sessionID      string
}

// NewContext builds a Context from the environment. An absent bearer
// credential is a run-fatal condition, reported here rather than on the
// first request.
func NewContext() (*Context, error) {
	token := util.GetAccessToken()
	if token == "" {
		return nil, ErrNoCredential
	}
	return &Context{
		BaseCatalogURL: util.GetCatalogURL(),
		BaseProcessURL: util.GetProcessURL(),
		AccessToken:    token,
		Collection:     util.GetCollectionID(),
	}, nil
}

// AppName returns the application name
func (c *Context) AppName() string {
	return "biomass-broker"
}

// SessionID returns a Session ID, creating one if needed
func (c *Context) SessionID() string {
	if c.sessionID == "" {
		c.sessionID, _ = util.PsuUUID()
	}
	return c.sessionID
}

// LogRootDir returns an empty string
func (c *Context) LogRootDir() string {
	return ""
}

// SearchOptions are the options for one catalog search
type SearchOptions struct {
	Collection      string
	Bbox            geojson.BoundingBox
	AcquiredDate    string
	MaxAcquiredDate string
	CloudCover      float64
	Limit           int
}

// FetchOptions are the options for one raster fetch
type FetchOptions struct {
	Bbox       geojson.BoundingBox
	Geometry   *geojson.Polygon
	TimeFrom   string
	TimeTo     string
	CloudCover float64
	Width      int
	Height     int
	Evalscript string
}

type searchRequest struct {
	Bbox        []float64              `json:"bbox"`
	Datetime    string                 `json:"datetime"`
	Collections []string               `json:"collections"`
	Limit       int                    `json:"limit"`
	Query       map[string]rangeFilter `json:"query,omitempty"`
}

type rangeFilter struct {
	LTE float64 `json:"lte,omitempty"`
	GTE float64 `json:"gte,omitempty"`
}

type processRequest struct {
	Input      processInput  `json:"input"`
	Output     processOutput `json:"output"`
	Evalscript string        `json:"evalscript"`
}

type processInput struct {
	Bounds processBounds `json:"bounds"`
	Data   []processData `json:"data"`
}

type processBounds struct {
	Bbox     []float64   `json:"bbox"`
	Geometry interface{} `json:"geometry,omitempty"`
}

type processData struct {
	Type       string     `json:"type"`
	DataFilter dataFilter `json:"dataFilter"`
}

type dataFilter struct {
	TimeRange        timeRange `json:"timeRange"`
	MaxCloudCoverage float64   `json:"maxCloudCoverage,omitempty"`
}

type timeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type processOutput struct {
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Responses []responseSpec `json:"responses"`
}

type responseSpec struct {
	Identifier string     `json:"identifier"`
	Format     formatSpec `json:"format"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type requestInput struct {
	method      string
	baseURL     string
	inputURL    string // URL may be relative or absolute based on baseURL
	body        []byte
	contentType string
	accept      string
}

// NDVIEvalscript selects the near-infrared and red bands and emits one
// float32 NDVI sample per pixel; cloud- and nodata-masked pixels come
// back as NaN and are dropped by the decoder.
const NDVIEvalscript = `//VERSION=3
function setup() {
  return {
    input: ["B04", "B08", "dataMask"],
    output: { bands: 1, sampleType: "FLOAT32" }
  };
}
function evaluatePixel(sample) {
  if (sample.dataMask === 0) {
    return [NaN];
  }
  return [(sample.B08 - sample.B04) / (sample.B08 + sample.B04)];
}`
