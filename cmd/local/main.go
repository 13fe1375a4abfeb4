package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jusunglee/mta-query/internal/config"
	"github.com/jusunglee/mta-query/pkg/mta"
	"go.uber.org/zap"
)

func main() {
	var (
		configFile = flag.String("config", "config.yml", "Config file path")
		resolveQ   = flag.String("resolve", "", "Resolve a station name")
		route      = flag.String("route", "", "Route for arrivals/alerts")
		station    = flag.String("station", "", "Station for arrivals")
		from       = flag.String("from", "", "Trip origin")
		to         = flag.String("to", "", "Trip destination")
		alerts     = flag.Bool("alerts", false, "Show service alerts")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Fatal("loading config", zap.Error(err))
	}

	client, err := mta.NewLocal(logger, cfg)
	if err != nil {
		logger.Fatal("creating client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch {
	case *resolveQ != "":
		s, err := client.ResolveStation(*resolveQ)
		if err != nil {
			fmt.Printf("No match for %q. Did you mean:\n", *resolveQ)
			for _, sug := range client.SuggestStations(*resolveQ, 5) {
				fmt.Printf("  %s (%v) - %s\n", sug.Station.DisplayName, sug.Station.Routes, sug.Station.Borough)
			}
			return
		}
		fmt.Printf("%s (%s)\n  Routes: %v\n  Borough: %s\n", s.DisplayName, s.ID, s.Routes, s.Borough)

	case *route != "" && *station != "":
		arrivals, err := client.GetArrivals(ctx, *route, *station)
		if err != nil {
			logger.Fatal("fetching arrivals", zap.Error(err))
		}
		if len(arrivals) == 0 {
			fmt.Printf("No upcoming %s trains at %s\n", *route, *station)
			return
		}
		fmt.Printf("Upcoming %s trains at %s:\n", *route, *station)
		for _, a := range arrivals {
			fmt.Printf("  %s - %s (%d min)\n",
				a.Direction, time.Unix(a.ArrivalEpoch, 0).Format("3:04 PM"), a.MinutesAway)
		}

	case *from != "" && *to != "":
		plan, err := client.PlanTrip(ctx, *from, *to)
		if err != nil {
			logger.Fatal("planning trip", zap.Error(err))
		}
		fmt.Printf("Trip from %s to %s:\n", plan.Origin.DisplayName, plan.Destination.DisplayName)
		if len(plan.DirectRoutes) > 0 {
			fmt.Printf("  Direct: %v\n", plan.DirectRoutes)
			for _, l := range plan.Live {
				if l.Next != nil {
					fmt.Printf("  %s train: %d min\n", l.Route, l.Next.MinutesAway)
				}
			}
			return
		}
		if len(plan.TransferSuggestions) == 0 {
			fmt.Println("  No curated transfer found; check a map.")
			return
		}
		for i, s := range plan.TransferSuggestions {
			if i == 3 {
				break
			}
			fmt.Printf("  Take %s, transfer at %s to %s\n", s.FromRoute, s.TransferStationName, s.ToRoute)
		}

	case *alerts:
		results, err := client.GetAlerts(ctx, *route)
		if err != nil {
			logger.Fatal("fetching alerts", zap.Error(err))
		}
		if len(results) == 0 {
			fmt.Println("No active alerts")
			return
		}
		for i, a := range results {
			fmt.Printf("%d. %s\n", i+1, a.Header)
			if len(a.AffectedRoutes) > 0 {
				fmt.Printf("   Affects: %v\n", a.AffectedRoutes)
			}
		}

	default:
		flag.Usage()
	}
}
