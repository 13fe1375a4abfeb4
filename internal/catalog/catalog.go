// Package catalog holds the static station table and the name indexes built
// over it. The catalog is loaded once at startup and is immutable afterward,
// so lookups need no locking.
package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/jusunglee/mta-query/internal/models"
	"github.com/jusunglee/mta-query/internal/normalize"
)

// stationRecord is the on-disk shape of one station in the dataset file.
type stationRecord struct {
	StopID     string   `json:"stop_id"`
	StopName   string   `json:"stop_name"`
	StopLat    float64  `json:"stop_lat"`
	StopLon    float64  `json:"stop_lon"`
	Routes     []string `json:"routes"`
	Borough    string   `json:"borough"`
	GTFSStopID []string `json:"gtfs_stop_ids"`
	ComplexID  string   `json:"complex_id,omitempty"`
}

type stationsFile struct {
	Stations []stationRecord `json:"stations"`
}

// Catalog is the in-memory station table plus its two read-only indexes:
// exact normalized name -> station, and keyword -> stations.
type Catalog struct {
	stations  []*models.Station // sorted by display name
	byID      map[string]*models.Station
	byName    map[string]*models.Station
	byKeyword map[string][]*models.Station
}

// Load reads the station dataset from path and builds the catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stations file: %w", err)
	}

	var f stationsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing stations file: %w", err)
	}
	if len(f.Stations) == 0 {
		return nil, fmt.Errorf("stations file %s has no stations", path)
	}

	return New(f.Stations), nil
}

// New builds a catalog from raw records, merging records that share a
// complex id into one station with the union of their routes.
func New(records []stationRecord) *Catalog {
	merged := make(map[string]*models.Station)
	var order []string

	for _, rec := range records {
		if rec.StopID == "" || rec.StopName == "" {
			continue
		}
		key := rec.ComplexID
		if key == "" {
			key = rec.StopID
		}

		if existing, ok := merged[key]; ok {
			existing.Routes = unionRoutes(existing.Routes, rec.Routes)
			continue
		}

		merged[key] = &models.Station{
			ID:          rec.StopID,
			DisplayName: rec.StopName,
			Lat:         rec.StopLat,
			Lon:         rec.StopLon,
			Routes:      unionRoutes(nil, rec.Routes),
			Borough:     rec.Borough,
			FeedStopIDs: feedStopIDs(rec),
		}
		order = append(order, key)
	}

	stations := make([]*models.Station, 0, len(merged))
	for _, key := range order {
		stations = append(stations, merged[key])
	}
	sort.Slice(stations, func(i, j int) bool {
		return stations[i].DisplayName < stations[j].DisplayName
	})

	c := &Catalog{
		stations:  stations,
		byID:      make(map[string]*models.Station, len(stations)),
		byName:    make(map[string]*models.Station, len(stations)),
		byKeyword: make(map[string][]*models.Station),
	}
	for _, s := range stations {
		c.byID[s.ID] = s
		// Collisions overwrite: true duplicates are rare after complex
		// merging, so last write wins.
		c.byName[normalize.Normalize(s.DisplayName)] = s
		for _, kw := range normalize.Keywords(s.DisplayName) {
			c.byKeyword[kw] = append(c.byKeyword[kw], s)
		}
	}
	return c
}

// FromStations builds a catalog directly from prepared station records.
// Used by tests and by callers that assemble stations in memory.
func FromStations(stations []models.Station) *Catalog {
	records := make([]stationRecord, len(stations))
	for i, s := range stations {
		records[i] = stationRecord{
			StopID:     s.ID,
			StopName:   s.DisplayName,
			StopLat:    s.Lat,
			StopLon:    s.Lon,
			Routes:     s.Routes,
			Borough:    s.Borough,
			GTFSStopID: s.FeedStopIDs,
		}
	}
	return New(records)
}

// feedStopIDs returns the record's GTFS stop ids, deriving the directional
// variants from the base id when the dataset omits them. Every station ends
// up with at least one id per direction.
func feedStopIDs(rec stationRecord) []string {
	ids := rec.GTFSStopID
	if len(ids) == 0 {
		ids = []string{rec.StopID}
	}
	hasDirectional := false
	for _, id := range ids {
		if strings.HasSuffix(id, "N") || strings.HasSuffix(id, "S") {
			hasDirectional = true
			break
		}
	}
	if !hasDirectional {
		base := ids[0]
		ids = append(ids, base+"N", base+"S")
	}
	return ids
}

func unionRoutes(existing, add []string) []string {
	seen := make(map[string]bool, len(existing)+len(add))
	out := make([]string, 0, len(existing)+len(add))
	for _, r := range existing {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	for _, r := range add {
		if r != "" && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}

// Stations returns all stations ordered by display name.
func (c *Catalog) Stations() []*models.Station {
	return c.stations
}

// Len returns the number of stations in the catalog.
func (c *Catalog) Len() int {
	return len(c.stations)
}

// ByID returns the station with the given id.
func (c *Catalog) ByID(id string) (*models.Station, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// ByNormalizedName returns the station whose normalized display name equals
// name exactly.
func (c *Catalog) ByNormalizedName(name string) (*models.Station, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// MatchKeywords returns stations that, for every query keyword, have at
// least one of their own keywords containing it as a substring. Results are
// ordered by display name.
func (c *Catalog) MatchKeywords(queryKeywords []string) []*models.Station {
	if len(queryKeywords) == 0 {
		return nil
	}

	var candidates map[*models.Station]bool
	for _, qk := range queryKeywords {
		matched := make(map[*models.Station]bool)
		for kw, stations := range c.byKeyword {
			if !strings.Contains(kw, qk) {
				continue
			}
			for _, s := range stations {
				matched[s] = true
			}
		}
		if candidates == nil {
			candidates = matched
		} else {
			for s := range candidates {
				if !matched[s] {
					delete(candidates, s)
				}
			}
		}
		if len(candidates) == 0 {
			return nil
		}
	}

	out := make([]*models.Station, 0, len(candidates))
	for s := range candidates {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DisplayName < out[j].DisplayName
	})
	return out
}

// ByRoute returns all stations served by the given route, ordered by name.
func (c *Catalog) ByRoute(route string) []*models.Station {
	route = strings.ToUpper(route)
	var out []*models.Station
	for _, s := range c.stations {
		if s.ServesRoute(route) {
			out = append(out, s)
		}
	}
	return out
}

// Routes returns the sorted set of all route ids in the catalog.
func (c *Catalog) Routes() []string {
	seen := make(map[string]bool)
	var routes []string
	for _, s := range c.stations {
		for _, r := range s.Routes {
			if !seen[r] {
				seen[r] = true
				routes = append(routes, r)
			}
		}
	}
	sort.Strings(routes)
	return routes
}

// Nearby returns up to limit stations closest to the given point.
func (c *Catalog) Nearby(lat, lon float64, limit int) []*models.Station {
	type stationDist struct {
		station *models.Station
		dist    float64
	}

	dists := make([]stationDist, 0, len(c.stations))
	for _, s := range c.stations {
		dists = append(dists, stationDist{s, haversine(lat, lon, s.Lat, s.Lon)})
	}
	sort.Slice(dists, func(i, j int) bool {
		return dists[i].dist < dists[j].dist
	})

	if limit > len(dists) {
		limit = len(dists)
	}
	out := make([]*models.Station, limit)
	for i := 0; i < limit; i++ {
		out[i] = dists[i].station
	}
	return out
}

// haversine returns the great-circle distance between two points in
// kilometers.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const r = 6371

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return r * c
}
