package wkb

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// Common SRID constants
const (
	SRID4326 = 4326 // WGS84
	SRID3857 = 3857 // Web Mercator
)

// PointEncoder encodes node locations as little-endian EWKB points carrying an SRID
type PointEncoder struct {
	srid int
}

// NewPointEncoder creates an encoder for the given target SRID.
// Input coordinates are always WGS84.
func NewPointEncoder(srid int) (*PointEncoder, error) {
	if srid != SRID4326 && srid != SRID3857 {
		return nil, eris.Errorf("wkb: unsupported SRID %d (supported: 4326, 3857)", srid)
	}
	return &PointEncoder{srid: srid}, nil
}

// SRID returns the encoder's target SRID
func (e *PointEncoder) SRID() int {
	return e.srid
}

// EncodePoint encodes a point as EWKB with X=lon, Y=lat (or mercator x/y for 3857)
func (e *PointEncoder) EncodePoint(lon, lat float64) ([]byte, error) {
	x, y := lon, lat
	if e.srid == SRID3857 {
		x, y = ToWebMercator(lon, lat)
	}

	p := geom.NewPointFlat(geom.XY, []float64{x, y}).SetSRID(e.srid)
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "wkb: encode point")
	}
	return data, nil
}
