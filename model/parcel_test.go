package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var squareParcelCoordinates = []Coordinate{
	{Lat: 61.00, Lon: 24.00},
	{Lat: 61.00, Lon: 24.01},
	{Lat: 61.01, Lon: 24.01},
	{Lat: 61.01, Lon: 24.00},
}

func TestNewParcel_Success(t *testing.T) {
	// Tested code
	parcel, err := NewParcel(squareParcelCoordinates, "pine")

	// Asserts
	assert.Nil(t, err)
	assert.NotNil(t, parcel)
	assert.Equal(t, "pine", parcel.Species)
	assert.Len(t, parcel.Coordinates, 4)
}

func TestNewParcel_TooFewCoordinates(t *testing.T) {
	// Tested code
	_, twoPointErr := NewParcel(squareParcelCoordinates[:2], "pine")
	_, emptyErr := NewParcel(nil, "pine")

	// Asserts
	assert.Equal(t, ErrNoGeometry, twoPointErr)
	assert.Equal(t, ErrNoGeometry, emptyErr)
}

func TestParcel_BoundingBox(t *testing.T) {
	// Mock
	parcel, _ := NewParcel(squareParcelCoordinates, "pine")

	// Tested code
	bbox := parcel.BoundingBox()

	// Asserts: [west, south, east, north]
	assert.Equal(t, 24.00, bbox[0])
	assert.Equal(t, 61.00, bbox[1])
	assert.Equal(t, 24.01, bbox[2])
	assert.Equal(t, 61.01, bbox[3])
}

func TestParcel_PolygonIsClosedLonLat(t *testing.T) {
	// Mock
	parcel, _ := NewParcel(squareParcelCoordinates, "pine")

	// Tested code
	polygon := parcel.Polygon()

	// Asserts: ring closes implicitly and vertices are (lon, lat)
	ring := polygon.Coordinates[0]
	assert.Len(t, ring, 5)
	assert.Equal(t, []float64{24.00, 61.00}, ring[0])
	assert.Equal(t, ring[0], ring[len(ring)-1])
}

func TestParcel_AreaHectares(t *testing.T) {
	// Mock
	parcel, _ := NewParcel(squareParcelCoordinates, "pine")

	// Tested code
	area := parcel.AreaHectares()

	// Asserts: ~0.01 x 0.01 degrees at 61N is about 60 ha
	assert.InDelta(t, 60.07, area, 0.1)
}

func TestParcel_AreaIgnoresWindingOrder(t *testing.T) {
	// Mock
	reversed := make([]Coordinate, len(squareParcelCoordinates))
	for i, c := range squareParcelCoordinates {
		reversed[len(reversed)-1-i] = c
	}
	parcel, _ := NewParcel(squareParcelCoordinates, "pine")
	reversedParcel, _ := NewParcel(reversed, "pine")

	// Tested code + Asserts
	assert.InDelta(t, parcel.AreaHectares(), reversedParcel.AreaHectares(), 1e-9)
}

func TestParcel_FootprintKm(t *testing.T) {
	// Mock
	parcel, _ := NewParcel(squareParcelCoordinates, "pine")

	// Tested code
	widthKm, heightKm := parcel.FootprintKm()

	// Asserts
	assert.InDelta(t, 0.540, widthKm, 0.01)
	assert.InDelta(t, 1.106, heightKm, 0.01)
}
