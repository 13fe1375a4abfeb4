// Package trip plans a ride between two resolved stations: a direct route
// when the stations share one, otherwise transfer suggestions drawn from a
// curated table of interchange hubs. Plans are plausible, not optimal.
package trip

import (
	"context"
	"fmt"
	"sort"

	"github.com/jusunglee/mta-query/internal/models"
	"github.com/jusunglee/mta-query/internal/resolve"
	"go.uber.org/zap"
)

// DefaultTransferHubs is the hand-curated interchange table. Order matters:
// suggestions are enumerated in table order and callers typically show only
// the first few.
var DefaultTransferHubs = []models.TransferHub{
	{StationName: "Times Sq-42 St", Routes: []string{"1", "2", "3", "7", "N", "Q", "R", "W", "S"}},
	{StationName: "14 St-Union Sq", Routes: []string{"4", "5", "6", "L", "N", "Q", "R", "W"}},
	{StationName: "Atlantic Ave-Barclays Ctr", Routes: []string{"2", "3", "4", "5", "B", "D", "N", "Q", "R"}},
	{StationName: "Fulton St", Routes: []string{"2", "3", "4", "5", "A", "C", "J", "Z"}},
	{StationName: "59 St-Columbus Circle", Routes: []string{"1", "A", "B", "C", "D"}},
	{StationName: "Jay St-MetroTech", Routes: []string{"A", "C", "F", "R"}},
	{StationName: "Lexington Ave/59 St", Routes: []string{"4", "5", "6", "N", "Q", "R", "W"}},
	{StationName: "Herald Sq", Routes: []string{"B", "D", "F", "M", "N", "Q", "R", "W"}},
}

// ArrivalSource provides live arrivals for annotating direct routes.
type ArrivalSource interface {
	Arrivals(ctx context.Context, route string, station *models.Station) ([]models.ArrivalEvent, error)
}

// Planner builds trip plans from two station queries.
type Planner struct {
	logger   *zap.Logger
	resolver *resolve.Resolver
	arrivals ArrivalSource // nil disables live annotation
	hubs     []models.TransferHub
}

// New creates a planner. Passing a nil ArrivalSource turns off live arrival
// annotation; hubs may be nil to use the default table.
func New(logger *zap.Logger, resolver *resolve.Resolver, arrivals ArrivalSource, hubs []models.TransferHub) *Planner {
	if hubs == nil {
		hubs = DefaultTransferHubs
	}
	return &Planner{
		logger:   logger,
		resolver: resolver,
		arrivals: arrivals,
		hubs:     hubs,
	}
}

// Plan resolves both endpoints and produces a trip plan. When either
// endpoint fails to resolve, the error says which one.
func (p *Planner) Plan(ctx context.Context, originQuery, destQuery string) (*models.TripPlan, error) {
	origin, err := p.resolver.Resolve(originQuery)
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	destination, err := p.resolver.Resolve(destQuery)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	plan := &models.TripPlan{
		Origin:      *origin,
		Destination: *destination,
	}

	direct := intersectRoutes(origin.Routes, destination.Routes)
	if len(direct) > 0 {
		plan.DirectRoutes = direct
		plan.Live = p.annotateLive(ctx, direct, origin)
		return plan, nil
	}

	plan.TransferSuggestions = suggestTransfers(p.hubs, origin.Routes, destination.Routes)
	return plan, nil
}

// annotateLive attaches the next arrival at the origin for each direct
// route. A failed lookup marks the route unavailable and never fails the
// plan.
func (p *Planner) annotateLive(ctx context.Context, routes []string, origin *models.Station) []models.LiveStatus {
	if p.arrivals == nil {
		return nil
	}

	live := make([]models.LiveStatus, 0, len(routes))
	for _, route := range routes {
		status := models.LiveStatus{Route: route}

		events, err := p.arrivals.Arrivals(ctx, route, origin)
		if err != nil {
			p.logger.Warn("live arrival lookup failed, plan degraded",
				zap.String("route", route),
				zap.String("station", origin.DisplayName),
				zap.Error(err),
			)
			status.Unavailable = true
		} else if len(events) > 0 {
			next := events[0]
			status.Next = &next
		}

		live = append(live, status)
	}
	return live
}

// suggestTransfers enumerates, in hub table order, every (from, to) pair
// where a hub carries both a route from the origin and a different route
// from the destination.
func suggestTransfers(hubs []models.TransferHub, originRoutes, destRoutes []string) []models.TransferSuggestion {
	var suggestions []models.TransferSuggestion
	for _, hub := range hubs {
		fromRoutes := intersectRoutes(originRoutes, hub.Routes)
		toRoutes := intersectRoutes(destRoutes, hub.Routes)
		if len(fromRoutes) == 0 || len(toRoutes) == 0 {
			continue
		}
		for _, from := range fromRoutes {
			for _, to := range toRoutes {
				if from == to {
					continue
				}
				suggestions = append(suggestions, models.TransferSuggestion{
					TransferStationName: hub.StationName,
					FromRoute:           from,
					ToRoute:             to,
				})
			}
		}
	}
	return suggestions
}

// intersectRoutes returns the sorted intersection of two route sets.
func intersectRoutes(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, r := range b {
		inB[r] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, r := range a {
		if inB[r] && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}
