package assignment

import (
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// MarkersGeoJSON renders markers as a FeatureCollection of points for the map layer.
func MarkersGeoJSON(markers []Marker) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(markers))}
	if len(markers) == 0 {
		return fc
	}

	bounds := geom.NewBounds(geom.XY)
	for _, m := range markers {
		pt := geom.NewPointFlat(geom.XY, []float64{m.Lng, m.Lat})
		bounds.Extend(pt)

		props := map[string]interface{}{
			"number":   m.Number,
			"address":  m.Address,
			"selected": m.Selected,
		}
		if m.RouteOrder > 0 {
			props["routeOrder"] = m.RouteOrder
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         strconv.FormatUint(uint64(m.OrderID), 10),
			Geometry:   pt,
			Properties: props,
		})
	}
	fc.BBox = bounds
	return fc
}
