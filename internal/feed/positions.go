package feed

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/jusunglee/mta-query/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Positions returns live vehicle positions. With a route it reads that
// route's feed and filters to the route; with an empty route it scans every
// feed concurrently, skipping feeds that fail rather than aborting the scan.
func (c *Client) Positions(ctx context.Context, route string) ([]models.VehiclePosition, error) {
	if route != "" {
		group, err := feedForRoute(route)
		if err != nil {
			return nil, err
		}
		msg, err := c.fetch(ctx, c.feedURLs[group], c.scanTimeout)
		if err != nil {
			return nil, err
		}
		return decodePositions(msg, route), nil
	}

	var (
		mu        sync.Mutex
		positions []models.VehiclePosition
	)

	g, ctx := errgroup.WithContext(ctx)
	for group, url := range c.feedURLs {
		group, url := group, url
		g.Go(func() error {
			msg, err := c.fetch(ctx, url, c.scanTimeout)
			if err != nil {
				// One bad feed must not take down the scan.
				c.logger.Warn("skipping feed in position scan",
					zap.String("feed", group),
					zap.Error(err),
				)
				return nil
			}

			decoded := decodePositions(msg, "")
			mu.Lock()
			positions = append(positions, decoded...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Route != positions[j].Route {
			return positions[i].Route < positions[j].Route
		}
		return positions[i].VehicleID < positions[j].VehicleID
	})
	return positions, nil
}

func decodePositions(msg *gtfs.FeedMessage, route string) []models.VehiclePosition {
	target := strings.ToUpper(strings.TrimSpace(route))

	var positions []models.VehiclePosition
	for _, entity := range msg.GetEntity() {
		v := entity.GetVehicle()
		if v == nil {
			continue
		}
		routeID := v.GetTrip().GetRouteId()
		if routeID == "" {
			continue
		}
		if target != "" && strings.ToUpper(routeID) != target {
			continue
		}

		positions = append(positions, models.VehiclePosition{
			VehicleID:     entity.GetId(),
			Route:         routeID,
			Lat:           float64(v.GetPosition().GetLatitude()),
			Lon:           float64(v.GetPosition().GetLongitude()),
			Bearing:       float64(v.GetPosition().GetBearing()),
			Status:        vehicleStatus(v.GetCurrentStatus()),
			CurrentStopID: v.GetStopId(),
			Timestamp:     int64(v.GetTimestamp()),
		})
	}
	return positions
}

func vehicleStatus(s gtfs.VehiclePosition_VehicleStopStatus) models.VehicleStatus {
	switch s {
	case gtfs.VehiclePosition_INCOMING_AT:
		return models.VehicleIncomingAt
	case gtfs.VehiclePosition_STOPPED_AT:
		return models.VehicleStoppedAt
	default:
		return models.VehicleInTransitTo
	}
}
