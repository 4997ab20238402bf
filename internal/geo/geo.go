// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package geo shapes story coordinates for the map: great-circle distance,
// bounding boxes and proximity groups.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// DefaultGroupKm is the distance under which markers share a group.
const DefaultGroupKm = 0.01

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Box is a bounding box given by its south-west and north-east corners.
type Box struct {
	SW Point `json:"sw"`
	NE Point `json:"ne"`
}

// Indonesia's default map view.
var (
	IndonesiaCenter = Point{Lat: -2.5489, Lng: 118.0149}
	IndonesiaBounds = Box{
		SW: Point{Lat: -11.0, Lng: 95.0},
		NE: Point{Lat: 6.0, Lng: 141.0},
	}
)

// Haversine returns the great-circle distance between a and b in km.
func Haversine(a, b Point) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Bounds returns the smallest box containing points. ok is false when
// points is empty.
func Bounds(points []Point) (box Box, ok bool) {
	if len(points) == 0 {
		return Box{}, false
	}
	box = Box{SW: points[0], NE: points[0]}
	for _, p := range points[1:] {
		box.SW.Lat = math.Min(box.SW.Lat, p.Lat)
		box.SW.Lng = math.Min(box.SW.Lng, p.Lng)
		box.NE.Lat = math.Max(box.NE.Lat, p.Lat)
		box.NE.Lng = math.Max(box.NE.Lng, p.Lng)
	}
	return box, true
}

// Group clusters points greedily in input order: each ungrouped point
// starts a group and absorbs every later ungrouped point closer than km to
// it. The result holds indices into points.
func Group(points []Point, km float64) [][]int {
	if km <= 0 {
		km = DefaultGroupKm
	}
	grouped := make([]bool, len(points))
	var groups [][]int
	for i, p := range points {
		if grouped[i] {
			continue
		}
		grouped[i] = true
		g := []int{i}
		for j := i + 1; j < len(points); j++ {
			if !grouped[j] && Haversine(p, points[j]) < km {
				grouped[j] = true
				g = append(g, j)
			}
		}
		groups = append(groups, g)
	}
	return groups
}
