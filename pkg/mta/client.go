package mta

import (
	"context"

	"github.com/jusunglee/mta-query/internal/equipment"
	"github.com/jusunglee/mta-query/internal/models"
	"github.com/jusunglee/mta-query/internal/resolve"
)

// Client is the caller-facing transit query API. Implementations are safe
// for concurrent use; every call is stateless beyond its network fetches.
type Client interface {
	// ResolveStation maps free text to a station, or
	// models.ErrStationNotFound.
	ResolveStation(query string) (*models.Station, error)

	// SuggestStations returns the closest-matching stations for a query,
	// best first.
	SuggestStations(query string, limit int) []resolve.Suggestion

	// NearbyStations returns up to limit stations closest to a point.
	NearbyStations(lat, lon float64, limit int) []*models.Station

	// GetArrivals resolves stationQuery and returns upcoming arrivals of
	// route there, soonest first.
	GetArrivals(ctx context.Context, route, stationQuery string) ([]models.ArrivalEvent, error)

	// GetPositions returns live train positions for a route, or for the
	// whole network when route is empty.
	GetPositions(ctx context.Context, route string) ([]models.VehiclePosition, error)

	// GetAlerts returns active service alerts, optionally filtered to a
	// route.
	GetAlerts(ctx context.Context, route string) ([]models.ServiceAlert, error)

	// PlanTrip plans between two station queries.
	PlanTrip(ctx context.Context, originQuery, destQuery string) (*models.TripPlan, error)

	// GetEquipmentStatus reports elevator/escalator status at the station
	// matching stationQuery.
	GetEquipmentStatus(ctx context.Context, stationQuery string) (equipment.StationStatus, error)

	// Routes lists every route id in the station catalog.
	Routes() []string
}
