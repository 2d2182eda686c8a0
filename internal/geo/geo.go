// Package geo resolves a user's position to the nearest administrative regions.
package geo

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// DefaultNearest is the number of regions used for availability checks.
const DefaultNearest = 2

//go:embed regions.yaml
var regionsYAML []byte

// Region is an administrative region center
type Region struct {
	Code string  `yaml:"code" json:"code"`
	Name string  `yaml:"name" json:"name"`
	Lat  float64 `yaml:"lat" json:"lat"`
	Lon  float64 `yaml:"lon" json:"lon"`
}

// Match is a region together with its distance from the queried point
type Match struct {
	Region
	DistanceKm float64 `json:"distanceKm"`
}

// Point is a validated latitude/longitude pair
type Point struct {
	Lat float64
	Lon float64
}

var regions = mustLoadRegions(regionsYAML)

func mustLoadRegions(data []byte) []Region {
	rs, err := LoadRegions(data)
	if err != nil {
		panic(err)
	}
	return rs
}

// LoadRegions parses a YAML region table
func LoadRegions(data []byte) ([]Region, error) {
	var rs []Region
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse region table: %w", err)
	}
	if len(rs) == 0 {
		return nil, fmt.Errorf("region table is empty")
	}
	return rs, nil
}

// Regions returns a copy of the built-in region table.
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// ParsePoint parses raw query values. Missing, non-numeric or non-finite
// input reports false, which callers treat as "no location".
func ParsePoint(latRaw, lonRaw string) (Point, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return Point{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if err != nil || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return Point{}, false
	}
	return Point{Lat: lat, Lon: lon}, true
}

// Haversine returns the great-circle distance in kilometers.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Pow(math.Sin(dLon/2), 2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Nearest returns the n regions closest to (lat, lon), ascending by distance.
func Nearest(lat, lon float64, n int) []Match {
	return NearestIn(regions, lat, lon, n)
}

// NearestIn is Nearest against an explicit region table
func NearestIn(table []Region, lat, lon float64, n int) []Match {
	matches := make([]Match, 0, len(table))
	for _, r := range table {
		matches = append(matches, Match{Region: r, DistanceKm: Haversine(lat, lon, r.Lat, r.Lon)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})
	if n >= 0 && n < len(matches) {
		matches = matches[:n]
	}
	return matches
}

// Names returns the display names of the matches in order.
func Names(matches []Match) []string {
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.Name)
	}
	return names
}
