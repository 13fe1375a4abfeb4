// Package feed fetches and decodes the NYC subway GTFS-RT feeds into typed
// arrival, position, and alert records.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/jusunglee/mta-query/internal/models"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

// DefaultFeedURLs maps each line group to its GTFS-RT endpoint. Lines
// sharing a physical trunk share a feed.
var DefaultFeedURLs = map[string]string{
	"ace":     "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-ace",
	"bdfm":    "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-bdfm",
	"g":       "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-g",
	"jz":      "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-jz",
	"nqrw":    "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-nqrw",
	"l":       "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-l",
	"1234567": "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs",
	"si":      "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-si",
}

// DefaultAlertsURL is the system-wide subway alerts feed.
const DefaultAlertsURL = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/camsys%2Fsubway-alerts"

// routeFeeds maps each route id to its line group.
var routeFeeds = map[string]string{
	"A": "ace", "C": "ace", "E": "ace",
	"B": "bdfm", "D": "bdfm", "F": "bdfm", "M": "bdfm",
	"G": "g",
	"J": "jz", "Z": "jz",
	"N": "nqrw", "Q": "nqrw", "R": "nqrw", "W": "nqrw",
	"L": "l",
	"1": "1234567", "2": "1234567", "3": "1234567", "4": "1234567",
	"5": "1234567", "6": "1234567", "7": "1234567",
	"SI": "si",
}

// maxArrivals caps how many upcoming arrivals a single call returns.
const maxArrivals = 5

// DirectionFunc infers travel direction from a feed stop identifier. The
// suffix convention is specific to the NYC feeds, so it is pluggable rather
// than baked into the decoder.
type DirectionFunc func(stopID string) models.Direction

// SuffixDirection reads the NYC convention: a trailing N means uptown, a
// trailing S means downtown.
func SuffixDirection(stopID string) models.Direction {
	switch {
	case strings.HasSuffix(stopID, "N"):
		return models.DirectionUptown
	case strings.HasSuffix(stopID, "S"):
		return models.DirectionDowntown
	default:
		return models.DirectionUnknown
	}
}

// Config controls feed endpoints and timeouts. Zero values fall back to the
// defaults.
type Config struct {
	FeedURLs    map[string]string
	AlertsURL   string
	Timeout     time.Duration // single-feed arrival/alert fetches
	ScanTimeout time.Duration // per-feed budget in the bulk position scan
	Direction   DirectionFunc
}

// Client fetches GTFS-RT snapshots on demand. It keeps no feed state
// between calls; every result is owned by the caller.
type Client struct {
	logger      *zap.Logger
	httpClient  *http.Client
	feedURLs    map[string]string
	alertsURL   string
	timeout     time.Duration
	scanTimeout time.Duration
	direction   DirectionFunc
	now         func() time.Time
}

// NewClient creates a feed client.
func NewClient(logger *zap.Logger, cfg Config) *Client {
	if cfg.FeedURLs == nil {
		cfg.FeedURLs = DefaultFeedURLs
	}
	if cfg.AlertsURL == "" {
		cfg.AlertsURL = DefaultAlertsURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ScanTimeout == 0 {
		cfg.ScanTimeout = 5 * time.Second
	}
	if cfg.Direction == nil {
		cfg.Direction = SuffixDirection
	}

	return &Client{
		logger:      logger,
		httpClient:  &http.Client{},
		feedURLs:    cfg.FeedURLs,
		alertsURL:   cfg.AlertsURL,
		timeout:     cfg.Timeout,
		scanTimeout: cfg.ScanTimeout,
		direction:   cfg.Direction,
		now:         time.Now,
	}
}

// feedForRoute maps a route id to its feed group.
func feedForRoute(route string) (string, error) {
	group, ok := routeFeeds[strings.ToUpper(strings.TrimSpace(route))]
	if !ok {
		return "", fmt.Errorf("route %q: %w", route, models.ErrInvalidRoute)
	}
	return group, nil
}

// Arrivals fetches the feed serving route and returns upcoming arrivals of
// that route at the station, soonest first, at most five.
func (c *Client) Arrivals(ctx context.Context, route string, station *models.Station) ([]models.ArrivalEvent, error) {
	group, err := feedForRoute(route)
	if err != nil {
		return nil, err
	}

	msg, err := c.fetch(ctx, c.feedURLs[group], c.timeout)
	if err != nil {
		return nil, err
	}

	return decodeArrivals(msg, route, station, c.now(), c.direction), nil
}

// decodeArrivals filters trip updates by route and station stop ids and
// produces the ordered arrival list.
func decodeArrivals(msg *gtfs.FeedMessage, route string, station *models.Station, now time.Time, direction DirectionFunc) []models.ArrivalEvent {
	target := strings.ToUpper(strings.TrimSpace(route))
	nowUnix := now.Unix()

	var arrivals []models.ArrivalEvent
	for _, entity := range msg.GetEntity() {
		tu := entity.GetTripUpdate()
		if tu == nil {
			continue
		}
		if strings.ToUpper(strings.TrimSpace(tu.GetTrip().GetRouteId())) != target {
			continue
		}

		for _, stu := range tu.GetStopTimeUpdate() {
			stopID := stu.GetStopId()
			if !station.HasFeedStop(stopID) {
				continue
			}

			// Prefer the arrival timestamp, fall back to departure.
			eventTime := stu.GetArrival().GetTime()
			if eventTime == 0 {
				eventTime = stu.GetDeparture().GetTime()
			}
			if eventTime == 0 {
				continue
			}

			// Keep events up to one minute in the past to tolerate feed
			// and clock skew; anything older is gone.
			minutes := int((eventTime - nowUnix) / 60)
			if minutes < -1 {
				continue
			}
			if minutes < 0 {
				minutes = 0
			}

			arrivals = append(arrivals, models.ArrivalEvent{
				Route:         target,
				StationStopID: stopID,
				Direction:     direction(stopID),
				ArrivalEpoch:  eventTime,
				MinutesAway:   minutes,
			})
		}
	}

	sort.SliceStable(arrivals, func(i, j int) bool {
		if arrivals[i].MinutesAway != arrivals[j].MinutesAway {
			return arrivals[i].MinutesAway < arrivals[j].MinutesAway
		}
		return arrivals[i].ArrivalEpoch < arrivals[j].ArrivalEpoch
	})
	if len(arrivals) > maxArrivals {
		arrivals = arrivals[:maxArrivals]
	}
	return arrivals
}

// fetch retrieves and decodes one feed snapshot within the given timeout.
// All failures surface as models.ErrFeedUnavailable.
func (c *Client) fetch(ctx context.Context, url string, timeout time.Duration) (*gtfs.FeedMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", models.ErrFeedUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", models.ErrFeedUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", models.ErrFeedUnavailable, err)
	}

	msg := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, msg); err != nil {
		return nil, fmt.Errorf("%w: decoding protobuf: %v", models.ErrFeedUnavailable, err)
	}
	return msg, nil
}
