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

// Package raster decodes single-band float32 vegetation-index images.
//
// The rendering service labels its payload byte order in the header, but
// the label is not reliable for the pixel data itself. Decoding is
// therefore a two-pass protocol: a bounded sample of pixels is read under
// both byte orders and the order that yields more values inside the index
// domain [-1, 1] wins; only then is the full grid decoded.
package raster

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/robertkottelin/biomass-sub000/model"
	"github.com/robertkottelin/biomass-sub000/util"
)

// Decode errors. All of them are fatal for the payload at hand and
// recoverable at the run level.
var (
	ErrInvalidFormat = errors.New("raster: payload is not a recognized single-band image")
	ErrTruncated     = errors.New("raster: payload is shorter than its declared contents")
	ErrUnsupported   = errors.New("raster: payload is not 32-bit floating point")
)

const (
	orderMarkerLittle = 0x4949 // "II"
	orderMarkerBig    = 0x4D4D // "MM"
	formatMagic       = 42

	tagImageWidth    = 256
	tagImageHeight   = 257
	tagBitsPerSample = 258
	tagStripOffset   = 273
	tagSampleFormat  = 339

	fieldTypeShort = 3

	directoryEntrySize = 12

	// endiannessSampleCount bounds the first-pass vote
	endiannessSampleCount = 20
)

// Index-domain classification thresholds
const (
	vegetationThreshold = 0.3
	sparseThreshold     = 0.2
)

type header struct {
	width         int
	height        int
	bitsPerSample uint32
	sampleFormat  uint32
	dataOffset    int
}

// Decode parses a single-band float32 image payload into index statistics.
// The expected dimensions are advisory: a mismatch with the declared
// header dimensions is logged, and statistics cover the declared size.
// A payload whose every pixel is invalid yields a no-data result, not an
// error.
func Decode(ctx util.LogContext, buffer []byte, expectedWidth, expectedHeight int) (*model.IndexStatistics, error) {
	initialOrder, err := readOrderMarker(buffer)
	if err != nil {
		return nil, err
	}

	hdr, err := readHeader(buffer, initialOrder)
	if err != nil {
		return nil, err
	}

	if hdr.width != expectedWidth || hdr.height != expectedHeight {
		util.LogAlert(ctx, fmt.Sprintf(
			"Declared image dimensions %dx%d differ from requested %dx%d; using declared dimensions",
			hdr.width, hdr.height, expectedWidth, expectedHeight))
	}

	pixelCount := hdr.width * hdr.height
	if hdr.dataOffset+4*pixelCount > len(buffer) {
		return nil, fmt.Errorf("%w: %d pixels declared at offset %d, %d bytes available",
			ErrTruncated, pixelCount, hdr.dataOffset, len(buffer))
	}

	order := detectByteOrder(buffer, hdr.dataOffset, pixelCount, initialOrder)
	if order != initialOrder {
		util.LogAlert(ctx, "Header byte-order marker contradicts pixel data; decoding with corrected byte order")
	}

	stats := decodePixels(buffer, hdr, order)
	return stats, nil
}

func readOrderMarker(buffer []byte) (binary.ByteOrder, error) {
	if len(buffer) < 8 {
		return nil, fmt.Errorf("%w: %d header bytes", ErrTruncated, len(buffer))
	}
	marker := uint16(buffer[0])<<8 | uint16(buffer[1])
	switch marker {
	case orderMarkerLittle:
		return binary.LittleEndian, nil
	case orderMarkerBig:
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("%w: unrecognized byte-order marker 0x%04X", ErrInvalidFormat, marker)
}

func readHeader(buffer []byte, order binary.ByteOrder) (*header, error) {
	if magic := order.Uint16(buffer[2:4]); magic != formatMagic {
		return nil, fmt.Errorf("%w: magic %d", ErrInvalidFormat, magic)
	}

	directoryOffset := int(order.Uint32(buffer[4:8]))
	if directoryOffset+2 > len(buffer) {
		return nil, fmt.Errorf("%w: directory at offset %d", ErrTruncated, directoryOffset)
	}
	entryCount := int(order.Uint16(buffer[directoryOffset : directoryOffset+2]))
	entriesEnd := directoryOffset + 2 + entryCount*directoryEntrySize
	if entriesEnd > len(buffer) {
		return nil, fmt.Errorf("%w: %d directory entries at offset %d", ErrTruncated, entryCount, directoryOffset)
	}

	hdr := header{}
	for i := 0; i < entryCount; i++ {
		entry := buffer[directoryOffset+2+i*directoryEntrySize:]
		tag := order.Uint16(entry[0:2])
		fieldType := order.Uint16(entry[2:4])
		value := order.Uint32(entry[8:12])
		if fieldType == fieldTypeShort {
			value = uint32(order.Uint16(entry[8:10]))
		}

		switch tag {
		case tagImageWidth:
			hdr.width = int(value)
		case tagImageHeight:
			hdr.height = int(value)
		case tagBitsPerSample:
			hdr.bitsPerSample = value
		case tagStripOffset:
			hdr.dataOffset = int(value)
		case tagSampleFormat:
			hdr.sampleFormat = value
		default:
			// Unknown tags are ignored for forward compatibility
		}
	}

	if hdr.width <= 0 || hdr.height <= 0 {
		return nil, fmt.Errorf("%w: no image dimensions declared", ErrInvalidFormat)
	}
	// A data offset inside the header region means the strip-offset tag was
	// absent or nonsensical; decoding would reread header bytes as pixels.
	if hdr.dataOffset < entriesEnd {
		return nil, fmt.Errorf("%w: pixel data offset %d overlaps the %d-byte header", ErrInvalidFormat, hdr.dataOffset, entriesEnd)
	}
	if hdr.bitsPerSample != 32 || hdr.sampleFormat != 3 {
		return nil, fmt.Errorf("%w: %d bits per sample, sample format %d",
			ErrUnsupported, hdr.bitsPerSample, hdr.sampleFormat)
	}
	return &hdr, nil
}

// detectByteOrder samples leading pixels under both byte orders and keeps
// whichever hypothesis puts more of them inside [-1, 1]. A tie keeps the
// header's own marker.
func detectByteOrder(buffer []byte, dataOffset, pixelCount int, initial binary.ByteOrder) binary.ByteOrder {
	opposite := oppositeOrder(initial)
	sampleCount := endiannessSampleCount
	if pixelCount < sampleCount {
		sampleCount = pixelCount
	}

	initialVotes, oppositeVotes := 0, 0
	for i := 0; i < sampleCount; i++ {
		pixel := buffer[dataOffset+4*i:]
		if inIndexDomain(math.Float32frombits(initial.Uint32(pixel))) {
			initialVotes++
		}
		if inIndexDomain(math.Float32frombits(opposite.Uint32(pixel))) {
			oppositeVotes++
		}
	}

	if oppositeVotes > initialVotes {
		return opposite
	}
	return initial
}

func oppositeOrder(order binary.ByteOrder) binary.ByteOrder {
	if order == binary.ByteOrder(binary.BigEndian) {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func inIndexDomain(value float32) bool {
	v := float64(value)
	return !math.IsNaN(v) && v >= -1.0 && v <= 1.0
}

func decodePixels(buffer []byte, hdr *header, order binary.ByteOrder) *model.IndexStatistics {
	stats := model.IndexStatistics{
		TotalPixels: hdr.width * hdr.height,
		Min:         math.Inf(1),
		Max:         math.Inf(-1),
	}

	var sum float64
	for i := 0; i < stats.TotalPixels; i++ {
		value := float64(math.Float32frombits(order.Uint32(buffer[hdr.dataOffset+4*i:])))
		if math.IsNaN(value) || value < -1.0 || value > 1.0 {
			continue
		}
		stats.ValidPixels++
		sum += value
		stats.Min = math.Min(stats.Min, value)
		stats.Max = math.Max(stats.Max, value)

		switch {
		case value > vegetationThreshold:
			stats.VegetationPixels++
		case value > sparseThreshold:
			stats.SparsePixels++
		case value >= 0:
			stats.BarePixels++
		default:
			stats.WaterPixels++
		}
	}

	if stats.ValidPixels == 0 {
		// No usable pixels: a sentinel result, not an error. Callers skip
		// this acquisition.
		return &model.IndexStatistics{TotalPixels: stats.TotalPixels}
	}

	stats.HasData = true
	stats.Mean = sum / float64(stats.ValidPixels)
	stats.VegetationPercent = float64(stats.VegetationPixels) / float64(stats.ValidPixels) * 100
	return &stats
}
