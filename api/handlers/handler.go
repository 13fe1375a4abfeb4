package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jusunglee/mta-query/internal/models"
	"github.com/jusunglee/mta-query/pkg/mta"
)

// Handler handles HTTP requests
type Handler struct {
	client mta.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(client mta.Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes registers all routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleIndex).Methods("GET")
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/routes", h.handleRoutes).Methods("GET")
	r.HandleFunc("/stations/resolve", h.handleResolve).Methods("GET")
	r.HandleFunc("/stations/suggest", h.handleSuggest).Methods("GET")
	r.HandleFunc("/stations/nearby", h.handleNearby).Methods("GET")
	r.HandleFunc("/arrivals/{route}", h.handleArrivals).Methods("GET")
	r.HandleFunc("/positions", h.handlePositions).Methods("GET")
	r.HandleFunc("/alerts", h.handleAlerts).Methods("GET")
	r.HandleFunc("/trip", h.handleTrip).Methods("GET")
	r.HandleFunc("/equipment", h.handleEquipment).Methods("GET")
}

// Response wraps API responses
type Response struct {
	Data interface{} `json:"data"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"title":  "mta-query",
		"readme": "Visit https://github.com/jusunglee/mta-query for more info",
	}
	h.writeJSON(w, response)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) handleRoutes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, Response{Data: h.client.Routes()})
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, "Missing q parameter", http.StatusBadRequest)
		return
	}

	station, err := h.client.ResolveStation(query)
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeJSON(w, Response{Data: station})
}

func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, "Missing q parameter", http.StatusBadRequest)
		return
	}

	limit := 5
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			h.writeError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}

	suggestions := h.client.SuggestStations(query, limit)
	stations := make([]*models.Station, len(suggestions))
	for i, s := range suggestions {
		stations[i] = s.Station
	}
	h.writeJSON(w, Response{Data: stations})
}

func (h *Handler) handleNearby(w http.ResponseWriter, r *http.Request) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		h.writeError(w, "Missing lat/lon parameter", http.StatusBadRequest)
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		h.writeError(w, "Invalid lat parameter", http.StatusBadRequest)
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		h.writeError(w, "Invalid lon parameter", http.StatusBadRequest)
		return
	}

	limit := 5
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			h.writeError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}

	h.writeJSON(w, Response{Data: h.client.NearbyStations(lat, lon, limit)})
}

func (h *Handler) handleArrivals(w http.ResponseWriter, r *http.Request) {
	route := mux.Vars(r)["route"]
	stationQuery := r.URL.Query().Get("station")
	if stationQuery == "" {
		h.writeError(w, "Missing station parameter", http.StatusBadRequest)
		return
	}

	arrivals, err := h.client.GetArrivals(r.Context(), route, stationQuery)
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeJSON(w, Response{Data: arrivals})
}

func (h *Handler) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.client.GetPositions(r.Context(), r.URL.Query().Get("route"))
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeJSON(w, Response{Data: positions})
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.client.GetAlerts(r.Context(), r.URL.Query().Get("route"))
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeJSON(w, Response{Data: alerts})
}

func (h *Handler) handleTrip(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		h.writeError(w, "Missing from/to parameter", http.StatusBadRequest)
		return
	}

	plan, err := h.client.PlanTrip(r.Context(), from, to)
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeJSON(w, Response{Data: plan})
}

func (h *Handler) handleEquipment(w http.ResponseWriter, r *http.Request) {
	stationQuery := r.URL.Query().Get("station")
	if stationQuery == "" {
		h.writeError(w, "Missing station parameter", http.StatusBadRequest)
		return
	}

	status, err := h.client.GetEquipmentStatus(r.Context(), stationQuery)
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeJSON(w, Response{Data: status})
}

// writeClientError maps the error taxonomy onto HTTP status codes.
func (h *Handler) writeClientError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrStationNotFound):
		h.writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrInvalidRoute):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrFeedUnavailable):
		h.writeError(w, err.Error(), http.StatusBadGateway)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.writeError(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
