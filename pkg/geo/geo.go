// Package geo provides small geodesic helpers used by the mock simulator and
// maneuver summaries.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

func (p Point) orb() orb.Point {
	return orb.Point{p.Lon, p.Lat} // orb uses [lon, lat] order
}

// Distance calculates the Haversine distance between two points in meters.
func Distance(p1, p2 Point) float64 {
	return orbgeo.DistanceHaversine(p1.orb(), p2.orb())
}

// DestinationPoint calculates the destination point from a start point, given distance (in meters) and bearing (in degrees).
func DestinationPoint(start Point, distMeters, bearing float64) Point {
	dst := orbgeo.PointAtBearingAndDistance(start.orb(), bearing, distMeters)
	return Point{Lat: dst.Lat(), Lon: dst.Lon()}
}

// Bearing calculates the initial bearing (forward azimuth) from p1 to p2 in degrees.
func Bearing(p1, p2 Point) float64 {
	return math.Mod(orbgeo.Bearing(p1.orb(), p2.orb())+360.0, 360.0)
}
