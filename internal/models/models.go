package models

// Direction is the direction of travel inferred for an arrival.
type Direction string

const (
	DirectionUptown   Direction = "Uptown"
	DirectionDowntown Direction = "Downtown"
	DirectionUnknown  Direction = "Unknown"
)

// VehicleStatus mirrors the GTFS-RT vehicle stop status values.
type VehicleStatus string

const (
	VehicleIncomingAt  VehicleStatus = "IncomingAt"
	VehicleStoppedAt   VehicleStatus = "StoppedAt"
	VehicleInTransitTo VehicleStatus = "InTransitTo"
)

// Station is one logical subway station. Platforms sharing a transfer
// complex are merged into a single record at catalog load, so Routes is the
// union across the complex and FeedStopIDs carries the base GTFS stop id
// plus its directional variants.
type Station struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	Routes      []string `json:"routes"`
	Borough     string   `json:"borough"`
	FeedStopIDs []string `json:"feed_stop_ids"`
}

// ServesRoute reports whether the station is served by the given route id.
func (s *Station) ServesRoute(route string) bool {
	for _, r := range s.Routes {
		if r == route {
			return true
		}
	}
	return false
}

// HasFeedStop reports whether stopID is one of the station's feed stop ids.
// Matching is exact so an arrival is never attributed to a station whose
// base id merely prefixes the stop id.
func (s *Station) HasFeedStop(stopID string) bool {
	for _, id := range s.FeedStopIDs {
		if id == stopID {
			return true
		}
	}
	return false
}

// ArrivalEvent is a single upcoming (or just-passed) train arrival at a
// station platform. MinutesAway is clamped to zero for display; events more
// than one minute in the past are dropped during decoding.
type ArrivalEvent struct {
	Route         string    `json:"route"`
	StationStopID string    `json:"station_stop_id"`
	Direction     Direction `json:"direction"`
	ArrivalEpoch  int64     `json:"arrival_epoch"`
	MinutesAway   int       `json:"minutes_away"`
}

// VehiclePosition is one live train position from a single feed snapshot.
type VehiclePosition struct {
	VehicleID     string        `json:"vehicle_id"`
	Route         string        `json:"route"`
	Lat           float64       `json:"lat"`
	Lon           float64       `json:"lon"`
	Bearing       float64       `json:"bearing"`
	Status        VehicleStatus `json:"status"`
	CurrentStopID string        `json:"current_stop_id"`
	Timestamp     int64         `json:"timestamp"`
}

// ServiceAlert is a decoded service alert, already filtered to its active
// period.
type ServiceAlert struct {
	Header         string   `json:"header"`
	Description    string   `json:"description"`
	AffectedRoutes []string `json:"affected_routes"`
}

// TransferHub is a station known to connect multiple route groups. The hub
// table is hand-curated and read-only.
type TransferHub struct {
	StationName string   `json:"station_name"`
	Routes      []string `json:"routes"`
}

// TransferSuggestion is one (hub, from, to) combination connecting the
// origin's routes to the destination's.
type TransferSuggestion struct {
	TransferStationName string `json:"transfer_station_name"`
	FromRoute           string `json:"from_route"`
	ToRoute             string `json:"to_route"`
}

// LiveStatus annotates a direct route with the next arrival at the origin.
// Unavailable marks a best-effort lookup that failed; the plan itself is
// still valid.
type LiveStatus struct {
	Route       string        `json:"route"`
	Next        *ArrivalEvent `json:"next,omitempty"`
	Unavailable bool          `json:"unavailable,omitempty"`
}

// TripPlan is the result of planning between two resolved stations. Either
// DirectRoutes is non-empty, or TransferSuggestions lists hub options (and
// may be empty when no curated hub connects the two route sets).
type TripPlan struct {
	Origin              Station              `json:"origin"`
	Destination         Station              `json:"destination"`
	DirectRoutes        []string             `json:"direct_routes"`
	TransferSuggestions []TransferSuggestion `json:"transfer_suggestions"`
	Live                []LiveStatus         `json:"live,omitempty"`
}
