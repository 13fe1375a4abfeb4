// Package equipment reports elevator and escalator status per station from
// the NYC equipment and outage JSON endpoints.
//
// The fetched inventory is carried in an explicit Snapshot value with its
// fetch time; callers decide when to refresh by passing the snapshot back
// through Refresh. There is no hidden cache state on the client.
package equipment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jusunglee/mta-query/internal/fuzzy"
	"github.com/jusunglee/mta-query/internal/models"
	"github.com/jusunglee/mta-query/internal/normalize"
	"go.uber.org/zap"
)

const (
	DefaultEquipmentURL = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fnyct_ene_equipments.json"
	DefaultOutageURL    = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fnyct_ene.json"

	// matchCutoff is the fuzzy score below which a station name is not
	// considered the same station as an equipment record's.
	matchCutoff = 70.0
)

// Unit is one elevator or escalator.
type Unit struct {
	ID           string `json:"equipment_id"`
	Type         string `json:"equipment_type"` // EL or ES
	Serving      string `json:"serving"`
	ADA          bool   `json:"ada"`
	Station      string `json:"station"`
	Borough      string `json:"borough"`
	OutOfService bool   `json:"is_out_of_service"`
}

// StationStatus summarizes the equipment at one station.
type StationStatus struct {
	Station      string `json:"station"`
	Units        []Unit `json:"equipment"`
	Total        int    `json:"total_equipment"`
	Operational  int    `json:"operational"`
	OutOfService int    `json:"out_of_service"`
}

// Snapshot is the equipment inventory with outage flags already applied,
// tagged with when it was fetched.
type Snapshot struct {
	Units     []Unit
	FetchedAt time.Time
}

// Stale reports whether the snapshot is older than ttl at the given time.
// An empty snapshot is always stale.
func (s Snapshot) Stale(now time.Time, ttl time.Duration) bool {
	return s.FetchedAt.IsZero() || now.Sub(s.FetchedAt) > ttl
}

// rawUnit is the upstream JSON shape.
type rawUnit struct {
	EquipmentNo   string `json:"equipmentno"`
	EquipmentType string `json:"equipmenttype"`
	Serving       string `json:"serving"`
	ADA           string `json:"ada"`
	Station       string `json:"station"`
	Borough       string `json:"borough"`
}

type rawOutage struct {
	Equipment string `json:"equipment"`
}

// Client fetches the equipment and outage endpoints.
type Client struct {
	logger       *zap.Logger
	httpClient   *http.Client
	equipmentURL string
	outageURL    string
	ttl          time.Duration
	now          func() time.Time
}

// Config controls endpoints and the snapshot TTL. Zero values use defaults.
type Config struct {
	EquipmentURL string
	OutageURL    string
	TTL          time.Duration
	Timeout      time.Duration
}

// NewClient creates an equipment client.
func NewClient(logger *zap.Logger, cfg Config) *Client {
	if cfg.EquipmentURL == "" {
		cfg.EquipmentURL = DefaultEquipmentURL
	}
	if cfg.OutageURL == "" {
		cfg.OutageURL = DefaultOutageURL
	}
	if cfg.TTL == 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		logger:       logger,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		equipmentURL: cfg.EquipmentURL,
		outageURL:    cfg.OutageURL,
		ttl:          cfg.TTL,
		now:          time.Now,
	}
}

// Refresh returns the snapshot unchanged while it is fresh, otherwise
// fetches a new one. The caller owns the returned value.
func (c *Client) Refresh(ctx context.Context, snap Snapshot) (Snapshot, error) {
	if !snap.Stale(c.now(), c.ttl) {
		return snap, nil
	}

	units, err := c.fetchUnits(ctx)
	if err != nil {
		return snap, err
	}

	outages, err := c.fetchOutages(ctx)
	if err != nil {
		// Inventory without outage flags is still useful.
		c.logger.Warn("outage fetch failed, reporting inventory only", zap.Error(err))
		outages = nil
	}

	for i := range units {
		units[i].OutOfService = outages[units[i].ID]
	}
	return Snapshot{Units: units, FetchedAt: c.now()}, nil
}

func (c *Client) fetchUnits(ctx context.Context) ([]Unit, error) {
	var raw []rawUnit
	if err := c.getJSON(ctx, c.equipmentURL, &raw); err != nil {
		return nil, err
	}

	units := make([]Unit, 0, len(raw))
	for _, r := range raw {
		units = append(units, Unit{
			ID:      r.EquipmentNo,
			Type:    r.EquipmentType,
			Serving: r.Serving,
			ADA:     r.ADA == "Y",
			Station: r.Station,
			Borough: r.Borough,
		})
	}
	return units, nil
}

func (c *Client) fetchOutages(ctx context.Context) (map[string]bool, error) {
	var raw []rawOutage
	if err := c.getJSON(ctx, c.outageURL, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]bool, len(raw))
	for _, r := range raw {
		if r.Equipment != "" {
			out[r.Equipment] = true
		}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", models.ErrFeedUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", models.ErrFeedUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", models.ErrFeedUnavailable, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decoding JSON: %v", models.ErrFeedUnavailable, err)
	}
	return nil
}

// StatusFor filters a snapshot down to the units at the station best
// matching name: first an exact normalized-name match, then a fuzzy match
// above the cutoff. An empty result means no equipment is known there.
func StatusFor(snap Snapshot, name string) StationStatus {
	units := unitsForStation(snap.Units, name)

	status := StationStatus{Station: name, Units: units, Total: len(units)}
	for _, u := range units {
		if u.OutOfService {
			status.OutOfService++
		} else {
			status.Operational++
		}
	}
	if len(units) > 0 {
		status.Station = units[0].Station
	}
	return status
}

func unitsForStation(units []Unit, name string) []Unit {
	query := normalize.Normalize(name)

	var exact []Unit
	for _, u := range units {
		if normalize.Normalize(u.Station) == query {
			exact = append(exact, u)
		}
	}
	if len(exact) > 0 {
		return exact
	}

	bestScore := 0.0
	bestStation := ""
	seen := make(map[string]bool)
	for _, u := range units {
		if seen[u.Station] {
			continue
		}
		seen[u.Station] = true
		if score := fuzzy.TokenRatio(query, normalize.Normalize(u.Station)); score > bestScore {
			bestScore = score
			bestStation = u.Station
		}
	}
	if bestScore < matchCutoff {
		return nil
	}

	var matched []Unit
	for _, u := range units {
		if u.Station == bestStation {
			matched = append(matched, u)
		}
	}
	return matched
}
