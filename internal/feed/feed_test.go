package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/jusunglee/mta-query/internal/models"
	"go.uber.org/zap/zaptest"
	"google.golang.org/protobuf/proto"
)

var testNow = time.Unix(1_700_000_000, 0)

func testStation() *models.Station {
	return &models.Station{
		ID:          "A24",
		DisplayName: "59 St-Columbus Circle",
		Routes:      []string{"A", "B", "C", "D", "1"},
		FeedStopIDs: []string{"A24", "A24N", "A24S"},
	}
}

func tripEntity(id, route string, stops ...*gtfs.TripUpdate_StopTimeUpdate) *gtfs.FeedEntity {
	return &gtfs.FeedEntity{
		Id: proto.String(id),
		TripUpdate: &gtfs.TripUpdate{
			Trip:           &gtfs.TripDescriptor{RouteId: proto.String(route)},
			StopTimeUpdate: stops,
		},
	}
}

func stopArrival(stopID string, t int64) *gtfs.TripUpdate_StopTimeUpdate {
	return &gtfs.TripUpdate_StopTimeUpdate{
		StopId:  proto.String(stopID),
		Arrival: &gtfs.TripUpdate_StopTimeEvent{Time: proto.Int64(t)},
	}
}

func feedMessage(entities ...*gtfs.FeedEntity) *gtfs.FeedMessage {
	return &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")},
		Entity: entities,
	}
}

func TestFeedForRoute(t *testing.T) {
	tests := []struct {
		route     string
		wantGroup string
		wantErr   bool
	}{
		{route: "A", wantGroup: "ace"},
		{route: "a", wantGroup: "ace"},
		{route: " Q ", wantGroup: "nqrw"},
		{route: "7", wantGroup: "1234567"},
		{route: "L", wantGroup: "l"},
		{route: "SI", wantGroup: "si"},
		{route: "X", wantErr: true},
		{route: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			group, err := feedForRoute(tt.route)
			if tt.wantErr {
				if !errors.Is(err, models.ErrInvalidRoute) {
					t.Errorf("error = %v, want ErrInvalidRoute", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if group != tt.wantGroup {
				t.Errorf("group = %s, want %s", group, tt.wantGroup)
			}
		})
	}
}

func TestSuffixDirection(t *testing.T) {
	tests := []struct {
		stopID   string
		expected models.Direction
	}{
		{"A24N", models.DirectionUptown},
		{"A24S", models.DirectionDowntown},
		{"A24", models.DirectionUnknown},
		{"", models.DirectionUnknown},
	}
	for _, tt := range tests {
		if got := SuffixDirection(tt.stopID); got != tt.expected {
			t.Errorf("SuffixDirection(%q) = %s, want %s", tt.stopID, got, tt.expected)
		}
	}
}

func TestDecodeArrivalsFiltering(t *testing.T) {
	station := testStation()
	msg := feedMessage(
		tripEntity("1", "A", stopArrival("A24N", testNow.Unix()+300)),
		tripEntity("2", "B", stopArrival("A24N", testNow.Unix()+120)), // wrong route
		tripEntity("3", "A", stopArrival("120S", testNow.Unix()+60)),  // wrong station
		tripEntity("4", "A", stopArrival("A24NN", testNow.Unix()+60)), // not an exact stop id
	)

	arrivals := decodeArrivals(msg, "A", station, testNow, SuffixDirection)
	if len(arrivals) != 1 {
		t.Fatalf("expected 1 arrival, got %d", len(arrivals))
	}
	a := arrivals[0]
	if a.Route != "A" {
		t.Errorf("route = %s, want A", a.Route)
	}
	if a.StationStopID != "A24N" {
		t.Errorf("stop id = %s, want A24N", a.StationStopID)
	}
	if a.Direction != models.DirectionUptown {
		t.Errorf("direction = %s, want Uptown", a.Direction)
	}
	if a.MinutesAway != 5 {
		t.Errorf("minutes = %d, want 5", a.MinutesAway)
	}
}

func TestDecodeArrivalsTimeHandling(t *testing.T) {
	station := testStation()
	now := testNow.Unix()

	msg := feedMessage(
		tripEntity("1", "A",
			stopArrival("A24N", now-120), // two minutes gone, dropped
			stopArrival("A24N", now-119), // just under a minute late, clamped
			stopArrival("A24S", now+90),
			&gtfs.TripUpdate_StopTimeUpdate{ // departure-only update
				StopId:    proto.String("A24N"),
				Departure: &gtfs.TripUpdate_StopTimeEvent{Time: proto.Int64(now + 240)},
			},
			&gtfs.TripUpdate_StopTimeUpdate{ // no usable time at all
				StopId: proto.String("A24N"),
			},
		),
	)

	arrivals := decodeArrivals(msg, "A", station, testNow, SuffixDirection)
	if len(arrivals) != 3 {
		t.Fatalf("expected 3 arrivals, got %d", len(arrivals))
	}

	// Soonest first: the clamped late event, then +90s, then the departure.
	wantMinutes := []int{0, 1, 4}
	for i, want := range wantMinutes {
		if arrivals[i].MinutesAway != want {
			t.Errorf("arrival %d minutes = %d, want %d", i, arrivals[i].MinutesAway, want)
		}
	}
}

func TestDecodeArrivalsTruncates(t *testing.T) {
	station := testStation()
	var stops []*gtfs.TripUpdate_StopTimeUpdate
	for i := 1; i <= 8; i++ {
		stops = append(stops, stopArrival("A24S", testNow.Unix()+int64(i*120)))
	}
	msg := feedMessage(tripEntity("1", "A", stops...))

	arrivals := decodeArrivals(msg, "A", station, testNow, SuffixDirection)
	if len(arrivals) != 5 {
		t.Fatalf("expected 5 arrivals, got %d", len(arrivals))
	}
	for i := 1; i < len(arrivals); i++ {
		if arrivals[i].MinutesAway < arrivals[i-1].MinutesAway {
			t.Error("arrivals not ordered soonest first")
		}
	}
}

func TestDecodeArrivalsCaseInsensitiveRoute(t *testing.T) {
	station := testStation()
	msg := feedMessage(tripEntity("1", "a", stopArrival("A24N", testNow.Unix()+60)))

	arrivals := decodeArrivals(msg, " A ", station, testNow, SuffixDirection)
	if len(arrivals) != 1 {
		t.Fatalf("expected 1 arrival, got %d", len(arrivals))
	}
	if arrivals[0].Route != "A" {
		t.Errorf("route = %s, want canonical A", arrivals[0].Route)
	}
}

func TestArrivalsRoundTrip(t *testing.T) {
	msg := feedMessage(tripEntity("1", "A", stopArrival("A24N", testNow.Unix()+180)))
	body, err := proto.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	c := NewClient(zaptest.NewLogger(t), Config{
		FeedURLs: map[string]string{"ace": srv.URL},
	})
	c.now = func() time.Time { return testNow }

	arrivals, err := c.Arrivals(context.Background(), "A", testStation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(arrivals) != 1 {
		t.Fatalf("expected 1 arrival, got %d", len(arrivals))
	}
	if arrivals[0].MinutesAway != 3 {
		t.Errorf("minutes = %d, want 3", arrivals[0].MinutesAway)
	}
}

func TestArrivalsFeedFailures(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewClient(zaptest.NewLogger(t), Config{
			FeedURLs: map[string]string{"ace": srv.URL},
		})
		_, err := c.Arrivals(context.Background(), "A", testStation())
		if !errors.Is(err, models.ErrFeedUnavailable) {
			t.Errorf("error = %v, want ErrFeedUnavailable", err)
		}
	})

	t.Run("garbage payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not protobuf at all, definitely not"))
		}))
		defer srv.Close()

		c := NewClient(zaptest.NewLogger(t), Config{
			FeedURLs: map[string]string{"ace": srv.URL},
		})
		_, err := c.Arrivals(context.Background(), "A", testStation())
		if !errors.Is(err, models.ErrFeedUnavailable) {
			t.Errorf("error = %v, want ErrFeedUnavailable", err)
		}
	})

	t.Run("invalid route", func(t *testing.T) {
		c := NewClient(zaptest.NewLogger(t), Config{})
		_, err := c.Arrivals(context.Background(), "X", testStation())
		if !errors.Is(err, models.ErrInvalidRoute) {
			t.Errorf("error = %v, want ErrInvalidRoute", err)
		}
	})
}
