package assignment

import (
	"github.com/twpayne/go-geom"
)

// LatLng is a map position.
type LatLng struct {
	Lat float64 `json:"lat" binding:"min=-90,max=90"`
	Lng float64 `json:"lng" binding:"min=-180,max=180"`
}

// Box is the rectangle dragged on the map between two opposite corners.
type Box struct {
	bounds *geom.Bounds
}

// NewBox builds the bounding box of the two corners in any order.
func NewBox(a, b LatLng) Box {
	bounds := geom.NewBounds(geom.XY)
	bounds.Extend(geom.NewPointFlat(geom.XY, []float64{a.Lng, a.Lat}))
	bounds.Extend(geom.NewPointFlat(geom.XY, []float64{b.Lng, b.Lat}))
	return Box{bounds: bounds}
}

// Contains is inclusive of the box edges.
func (b Box) Contains(p LatLng) bool {
	return b.bounds.OverlapsPoint(geom.XY, geom.Coord{p.Lng, p.Lat})
}
