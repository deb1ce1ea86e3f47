package wkb

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	earthRadius = 6378137.0
	maxExtent   = 20037508.342789244

	// beyond this latitude mercator y diverges
	maxMercatorLat = 85.06
)

// ToWebMercator converts WGS84 lon/lat to EPSG:3857 meters
func ToWebMercator(lon, lat float64) (x, y float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))

	x = lon * maxExtent / 180.0
	latRad := lat * math.Pi / 180.0
	y = math.Log(math.Tan(math.Pi/4.0+latRad/2.0)) * earthRadius
	return x, y
}

// ParseSRID accepts "4326", "3857" and their "EPSG:" prefixed forms
func ParseSRID(s string) (int, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "4326", "EPSG:4326":
		return SRID4326, nil
	case "3857", "EPSG:3857":
		return SRID3857, nil
	default:
		return 0, eris.Errorf("unsupported projection: %s (supported: 4326, 3857)", s)
	}
}
