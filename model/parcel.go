package model

import (
	"errors"
	"math"

	"github.com/venicegeo/geojson-go/geojson"
)

// ErrNoGeometry indicates a parcel without enough coordinates to enclose
// any area
var ErrNoGeometry = errors.New("no parcel geometry supplied: at least 3 coordinates are required")

const earthRadiusMeters = 6378137.0

// Coordinate is one parcel vertex. Parcels store (latitude, longitude)
// pairs; geodetic output such as GeoJSON uses (longitude, latitude) order.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Parcel is a user-drawn land area with a species tag. The vertex ring is
// implicitly closed: the first and last coordinate need not match.
type Parcel struct {
	Coordinates []Coordinate `json:"coordinates"`
	Species     string       `json:"species"`
}

// NewParcel validates and builds a parcel from its vertices
func NewParcel(coordinates []Coordinate, species string) (*Parcel, error) {
	if len(coordinates) < 3 {
		return nil, ErrNoGeometry
	}
	return &Parcel{Coordinates: coordinates, Species: species}, nil
}

// ring returns the closed (longitude, latitude) vertex ring
func (p *Parcel) ring() [][]float64 {
	ring := make([][]float64, 0, len(p.Coordinates)+1)
	for _, c := range p.Coordinates {
		ring = append(ring, []float64{c.Lon, c.Lat})
	}
	first := p.Coordinates[0]
	last := p.Coordinates[len(p.Coordinates)-1]
	if first != last {
		ring = append(ring, []float64{first.Lon, first.Lat})
	}
	return ring
}

// Polygon returns the parcel as a GeoJSON polygon
func (p *Parcel) Polygon() *geojson.Polygon {
	return geojson.NewPolygon([][][]float64{p.ring()})
}

// BoundingBox returns the parcel extent as [west, south, east, north]
func (p *Parcel) BoundingBox() geojson.BoundingBox {
	west, south := p.Coordinates[0].Lon, p.Coordinates[0].Lat
	east, north := west, south
	for _, c := range p.Coordinates[1:] {
		west = math.Min(west, c.Lon)
		east = math.Max(east, c.Lon)
		south = math.Min(south, c.Lat)
		north = math.Max(north, c.Lat)
	}
	return geojson.BoundingBox{west, south, east, north}
}

// AreaHectares computes the parcel area using the spherical excess of its
// ring on an earth sphere
func (p *Parcel) AreaHectares() float64 {
	ring := p.ring()
	var total float64
	for i := 0; i < len(ring)-1; i++ {
		lon1, lat1 := toRadians(ring[i][0]), toRadians(ring[i][1])
		lon2, lat2 := toRadians(ring[i+1][0]), toRadians(ring[i+1][1])
		total += (lon2 - lon1) * (2 + math.Sin(lat1) + math.Sin(lat2))
	}
	areaSqMeters := math.Abs(total * earthRadiusMeters * earthRadiusMeters / 2)
	return areaSqMeters / 10000
}

// FootprintKm approximates the ground extent of the parcel bounding box
// with an equirectangular projection
func (p *Parcel) FootprintKm() (widthKm, heightKm float64) {
	bbox := p.BoundingBox()
	west, south, east, north := bbox[0], bbox[1], bbox[2], bbox[3]
	midLat := toRadians((south + north) / 2)
	widthKm = 111.320 * math.Cos(midLat) * (east - west)
	heightKm = 110.574 * (north - south)
	return math.Abs(widthKm), math.Abs(heightKm)
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
