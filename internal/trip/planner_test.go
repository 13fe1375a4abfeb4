package trip

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jusunglee/mta-query/internal/catalog"
	"github.com/jusunglee/mta-query/internal/models"
	"github.com/jusunglee/mta-query/internal/resolve"
	"go.uber.org/zap/zaptest"
)

func testResolver() *resolve.Resolver {
	c := catalog.FromStations([]models.Station{
		{ID: "R16", DisplayName: "Times Sq-42 St", Routes: []string{"N", "Q", "R", "W"}, FeedStopIDs: []string{"R16N", "R16S"}},
		{ID: "R30", DisplayName: "DeKalb Ave", Routes: []string{"Q", "R"}, FeedStopIDs: []string{"R30N", "R30S"}},
		{ID: "L10", DisplayName: "Bedford Ave", Routes: []string{"L"}, FeedStopIDs: []string{"L10N", "L10S"}},
		{ID: "117", DisplayName: "79 St", Routes: []string{"1"}, FeedStopIDs: []string{"117N", "117S"}},
		{ID: "626", DisplayName: "77 St", Routes: []string{"6"}, FeedStopIDs: []string{"626N", "626S"}},
	})
	return resolve.New(c, resolve.DefaultOptions())
}

type stubArrivals struct {
	events map[string][]models.ArrivalEvent
	err    error
}

func (s *stubArrivals) Arrivals(ctx context.Context, route string, station *models.Station) ([]models.ArrivalEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.events[route], nil
}

func TestPlanDirect(t *testing.T) {
	arrivals := &stubArrivals{events: map[string][]models.ArrivalEvent{
		"Q": {{Route: "Q", StationStopID: "R16N", MinutesAway: 2, ArrivalEpoch: 1_700_000_120}},
		"R": {},
	}}
	p := New(zaptest.NewLogger(t), testResolver(), arrivals, nil)

	plan, err := p.Plan(context.Background(), "times sq", "dekalb ave")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantDirect := []string{"Q", "R"}
	if !reflect.DeepEqual(plan.DirectRoutes, wantDirect) {
		t.Errorf("direct routes = %v, want %v", plan.DirectRoutes, wantDirect)
	}
	if len(plan.TransferSuggestions) != 0 {
		t.Errorf("direct plan should carry no transfer suggestions, got %d", len(plan.TransferSuggestions))
	}

	if len(plan.Live) != 2 {
		t.Fatalf("expected live status for both routes, got %d", len(plan.Live))
	}
	q := plan.Live[0]
	if q.Route != "Q" || q.Next == nil || q.Next.MinutesAway != 2 {
		t.Errorf("Q live status = %+v", q)
	}
	r := plan.Live[1]
	if r.Route != "R" || r.Next != nil || r.Unavailable {
		t.Errorf("R live status = %+v, want empty but available", r)
	}
}

func TestPlanTransfer(t *testing.T) {
	p := New(zaptest.NewLogger(t), testResolver(), nil, nil)

	// L and 6 share no route but meet at Union Sq, the only default hub
	// carrying both.
	plan, err := p.Plan(context.Background(), "bedford ave", "77 st")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.DirectRoutes) != 0 {
		t.Fatalf("expected no direct routes, got %v", plan.DirectRoutes)
	}
	want := []models.TransferSuggestion{
		{TransferStationName: "14 St-Union Sq", FromRoute: "L", ToRoute: "6"},
	}
	if !reflect.DeepEqual(plan.TransferSuggestions, want) {
		t.Errorf("suggestions = %v, want %v", plan.TransferSuggestions, want)
	}
}

func TestPlanNoTransferPath(t *testing.T) {
	p := New(zaptest.NewLogger(t), testResolver(), nil, nil)

	// No default hub carries both L and 1, so the plan comes back with
	// neither direct routes nor suggestions.
	plan, err := p.Plan(context.Background(), "bedford ave", "79 st")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.DirectRoutes) != 0 || len(plan.TransferSuggestions) != 0 {
		t.Errorf("expected empty plan, got direct=%v suggestions=%v",
			plan.DirectRoutes, plan.TransferSuggestions)
	}
}

func TestSuggestTransfersSkipsSameRoute(t *testing.T) {
	hubs := []models.TransferHub{
		{StationName: "Somewhere", Routes: []string{"Q", "R"}},
	}

	suggestions := suggestTransfers(hubs, []string{"Q"}, []string{"Q", "R"})
	want := []models.TransferSuggestion{
		{TransferStationName: "Somewhere", FromRoute: "Q", ToRoute: "R"},
	}
	if !reflect.DeepEqual(suggestions, want) {
		t.Errorf("suggestions = %v, want %v", suggestions, want)
	}
}

func TestPlanDegradedLive(t *testing.T) {
	arrivals := &stubArrivals{err: models.ErrFeedUnavailable}
	p := New(zaptest.NewLogger(t), testResolver(), arrivals, nil)

	plan, err := p.Plan(context.Background(), "times sq", "dekalb ave")
	if err != nil {
		t.Fatalf("a dead feed must not fail the plan: %v", err)
	}
	for _, status := range plan.Live {
		if !status.Unavailable {
			t.Errorf("route %s should be marked unavailable", status.Route)
		}
		if status.Next != nil {
			t.Errorf("route %s should carry no arrival", status.Route)
		}
	}
}

func TestPlanWithoutArrivalSource(t *testing.T) {
	p := New(zaptest.NewLogger(t), testResolver(), nil, nil)

	plan, err := p.Plan(context.Background(), "times sq", "dekalb ave")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Live != nil {
		t.Errorf("live annotation should be off, got %v", plan.Live)
	}
}

func TestPlanResolutionErrors(t *testing.T) {
	p := New(zaptest.NewLogger(t), testResolver(), nil, nil)

	_, err := p.Plan(context.Background(), "zzyzx nowhere junction", "dekalb ave")
	if !errors.Is(err, models.ErrStationNotFound) {
		t.Fatalf("error = %v, want ErrStationNotFound", err)
	}
	if got := err.Error(); len(got) < 7 || got[:7] != "origin:" {
		t.Errorf("error should name the failing endpoint, got %q", got)
	}

	_, err = p.Plan(context.Background(), "dekalb ave", "zzyzx nowhere junction")
	if !errors.Is(err, models.ErrStationNotFound) {
		t.Fatalf("error = %v, want ErrStationNotFound", err)
	}
	if got := err.Error(); len(got) < 12 || got[:12] != "destination:" {
		t.Errorf("error should name the failing endpoint, got %q", got)
	}
}

func TestIntersectRoutes(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []string
		expected []string
	}{
		{
			name:     "overlap sorted",
			a:        []string{"W", "Q", "N", "R"},
			b:        []string{"R", "Q"},
			expected: []string{"Q", "R"},
		},
		{
			name:     "disjoint",
			a:        []string{"L"},
			b:        []string{"1"},
			expected: nil,
		},
		{
			name:     "duplicates collapse",
			a:        []string{"Q", "Q"},
			b:        []string{"Q"},
			expected: []string{"Q"},
		},
		{
			name:     "empty",
			a:        nil,
			b:        []string{"Q"},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := intersectRoutes(tt.a, tt.b)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("intersectRoutes = %v, want %v", got, tt.expected)
			}
		})
	}
}
