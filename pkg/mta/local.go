package mta

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jusunglee/mta-query/internal/catalog"
	"github.com/jusunglee/mta-query/internal/config"
	"github.com/jusunglee/mta-query/internal/equipment"
	"github.com/jusunglee/mta-query/internal/feed"
	"github.com/jusunglee/mta-query/internal/models"
	"github.com/jusunglee/mta-query/internal/resolve"
	"github.com/jusunglee/mta-query/internal/trip"
	"go.uber.org/zap"
)

// LocalClient implements Client against the in-process catalog and live
// feed fetches. The catalog and hub table are read-only after construction;
// only the equipment snapshot mutates, under its own lock.
type LocalClient struct {
	logger    *zap.Logger
	catalog   *catalog.Catalog
	resolver  *resolve.Resolver
	feeds     *feed.Client
	planner   *trip.Planner
	equipment *equipment.Client

	mu        sync.Mutex
	equipSnap equipment.Snapshot
}

// NewLocal loads the station catalog and wires the query engine together.
func NewLocal(logger *zap.Logger, cfg *config.Config) (*LocalClient, error) {
	cat, err := catalog.Load(cfg.StationsFile)
	if err != nil {
		return nil, fmt.Errorf("loading station catalog: %w", err)
	}
	logger.Info("station catalog loaded",
		zap.String("file", cfg.StationsFile),
		zap.Int("stations", cat.Len()),
	)

	resolver := resolve.New(cat, resolve.Options{
		KeywordCutoff: cfg.Resolver.KeywordCutoff,
		FuzzyCutoff:   cfg.Resolver.FuzzyCutoff,
		PartialCutoff: cfg.Resolver.PartialCutoff,
	})

	feeds := feed.NewClient(logger.Named("feed"), feed.Config{
		FeedURLs:    cfg.Feed.FeedURLs,
		AlertsURL:   cfg.Feed.AlertsURL,
		Timeout:     time.Duration(cfg.Feed.TimeoutSeconds) * time.Second,
		ScanTimeout: time.Duration(cfg.Feed.ScanTimeoutSeconds) * time.Second,
	})

	return &LocalClient{
		logger:   logger,
		catalog:  cat,
		resolver: resolver,
		feeds:    feeds,
		planner:  trip.New(logger.Named("trip"), resolver, feeds, nil),
		equipment: equipment.NewClient(logger.Named("equipment"), equipment.Config{
			TTL: time.Duration(cfg.Equipment.TTLSeconds) * time.Second,
		}),
	}, nil
}

func (c *LocalClient) ResolveStation(query string) (*models.Station, error) {
	return c.resolver.Resolve(query)
}

func (c *LocalClient) SuggestStations(query string, limit int) []resolve.Suggestion {
	return c.resolver.Suggest(query, limit)
}

func (c *LocalClient) NearbyStations(lat, lon float64, limit int) []*models.Station {
	return c.catalog.Nearby(lat, lon, limit)
}

func (c *LocalClient) GetArrivals(ctx context.Context, route, stationQuery string) ([]models.ArrivalEvent, error) {
	station, err := c.resolver.Resolve(stationQuery)
	if err != nil {
		return nil, err
	}
	return c.feeds.Arrivals(ctx, route, station)
}

func (c *LocalClient) GetPositions(ctx context.Context, route string) ([]models.VehiclePosition, error) {
	return c.feeds.Positions(ctx, route)
}

func (c *LocalClient) GetAlerts(ctx context.Context, route string) ([]models.ServiceAlert, error) {
	return c.feeds.Alerts(ctx, route)
}

func (c *LocalClient) PlanTrip(ctx context.Context, originQuery, destQuery string) (*models.TripPlan, error) {
	return c.planner.Plan(ctx, originQuery, destQuery)
}

func (c *LocalClient) GetEquipmentStatus(ctx context.Context, stationQuery string) (equipment.StationStatus, error) {
	station, err := c.resolver.Resolve(stationQuery)
	if err != nil {
		return equipment.StationStatus{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.equipment.Refresh(ctx, c.equipSnap)
	if err != nil {
		return equipment.StationStatus{}, err
	}
	c.equipSnap = snap

	return equipment.StatusFor(snap, station.DisplayName), nil
}

func (c *LocalClient) Routes() []string {
	return c.catalog.Routes()
}
