package geofence

import (
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ServiceArea is the delivery geofence: an immutable set of polygons
// parsed once at startup and injected into whoever needs it. A point
// is serviceable if it falls inside any polygon.
type ServiceArea struct {
	polygons []orb.Polygon
}

// Load reads a GeoJSON file and parses it into a ServiceArea. A read
// error is returned so startup can log it; the parsed area itself
// never fails — unrecognized geometry just yields an empty area.
func Load(path string) (*ServiceArea, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data), nil
}

// Parse accepts a bare Polygon/MultiPolygon geometry, a single
// Feature, or a FeatureCollection. Anything it cannot recognize is
// ignored, so a malformed document degrades to an area that contains
// nothing (fail closed).
func Parse(data []byte) *ServiceArea {
	return &ServiceArea{polygons: normalize(data)}
}

// Empty reports whether the area holds no polygons.
func (a *ServiceArea) Empty() bool {
	return a == nil || len(a.polygons) == 0
}

// Contains reports whether the point lies inside any polygon of the
// service area. An empty area contains nothing.
func (a *ServiceArea) Contains(lat, lng float64) bool {
	if a == nil {
		return false
	}
	pt := orb.Point{lng, lat}
	for _, poly := range a.polygons {
		if planar.PolygonContains(poly, pt) {
			return true
		}
	}
	return false
}

// normalize flattens any accepted GeoJSON shape into a plain polygon
// list so the containment test has a single code path.
func normalize(data []byte) []orb.Polygon {
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		var out []orb.Polygon
		for _, f := range fc.Features {
			if f != nil {
				out = append(out, polygonsOf(f.Geometry)...)
			}
		}
		return out
	}
	if f, err := geojson.UnmarshalFeature(data); err == nil {
		return polygonsOf(f.Geometry)
	}
	if g, err := geojson.UnmarshalGeometry(data); err == nil {
		return polygonsOf(g.Geometry())
	}
	return nil
}

func polygonsOf(g orb.Geometry) []orb.Polygon {
	switch geom := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{geom}
	case orb.MultiPolygon:
		return []orb.Polygon(geom)
	}
	return nil
}
