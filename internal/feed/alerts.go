package feed

import (
	"context"
	"strings"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/jusunglee/mta-query/internal/models"
)

// Alerts fetches the alerts feed and returns currently active alerts,
// optionally filtered to one route.
func (c *Client) Alerts(ctx context.Context, route string) ([]models.ServiceAlert, error) {
	msg, err := c.fetch(ctx, c.alertsURL, c.timeout)
	if err != nil {
		return nil, err
	}
	return decodeAlerts(msg, route, c.now()), nil
}

func decodeAlerts(msg *gtfs.FeedMessage, route string, now time.Time) []models.ServiceAlert {
	target := strings.ToUpper(strings.TrimSpace(route))
	nowUnix := now.Unix()

	var alerts []models.ServiceAlert
	for _, entity := range msg.GetEntity() {
		alert := entity.GetAlert()
		if alert == nil {
			continue
		}
		if !alertActive(alert, nowUnix) {
			continue
		}

		routes := affectedRoutes(alert)
		if target != "" && !containsFold(routes, target) {
			continue
		}

		header := translatedText(alert.GetHeaderText())
		if header == "" {
			continue
		}

		alerts = append(alerts, models.ServiceAlert{
			Header:         header,
			Description:    translatedText(alert.GetDescriptionText()),
			AffectedRoutes: routes,
		})
	}
	return alerts
}

// alertActive reports whether now falls in any active period. An alert
// without periods is always active.
func alertActive(alert *gtfs.Alert, now int64) bool {
	periods := alert.GetActivePeriod()
	if len(periods) == 0 {
		return true
	}
	for _, p := range periods {
		start := int64(p.GetStart())
		end := int64(p.GetEnd())
		if now >= start && (end == 0 || now < end) {
			return true
		}
	}
	return false
}

func affectedRoutes(alert *gtfs.Alert) []string {
	seen := make(map[string]bool)
	var routes []string
	for _, ie := range alert.GetInformedEntity() {
		if routeID := ie.GetRouteId(); routeID != "" && !seen[routeID] {
			seen[routeID] = true
			routes = append(routes, routeID)
		}
	}
	return routes
}

func containsFold(routes []string, target string) bool {
	for _, r := range routes {
		if strings.ToUpper(r) == target {
			return true
		}
	}
	return false
}

// translatedText picks the English translation when present, otherwise the
// first available one.
func translatedText(ts *gtfs.TranslatedString) string {
	if ts == nil {
		return ""
	}
	for _, t := range ts.GetTranslation() {
		if t.GetLanguage() == "en" || t.GetLanguage() == "" {
			return t.GetText()
		}
	}
	if translations := ts.GetTranslation(); len(translations) > 0 {
		return translations[0].GetText()
	}
	return ""
}
