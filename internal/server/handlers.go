package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/propsage/propsage/internal/engine"
)

// Version is the API version reported by the health endpoint.
const Version = "1.0.0"

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type healthResponse struct {
	Status      string    `json:"status"`
	Version     string    `json:"version"`
	ModelLoaded bool      `json:"model_loaded"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
}

type locationsResponse struct {
	Locations []locationEntry `json:"locations"`
	Total     int             `json:"total"`
}

type locationEntry struct {
	Name            string  `json:"name"`
	DataPoints      int     `json:"data_points"`
	AvgPrice        float64 `json:"avg_price"`
	MedianPrice     float64 `json:"median_price"`
	MinPrice        float64 `json:"min_price"`
	MaxPrice        float64 `json:"max_price"`
	AvgPricePerSqft float64 `json:"avg_price_per_sqft"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"service": "propsage",
		"version": Version,
		"endpoints": []string{
			"/api/v1/health",
			"/api/v1/predict",
			"/api/v1/locations",
			"/api/v1/model-info",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		Version:     Version,
		ModelLoaded: s.engine.IsReady(),
		Environment: s.environment,
		Timestamp:   time.Now().UTC(),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var input engine.PropertyInput
	// Parking and lift default to present; most Navi Mumbai listings
	// in the training data have both.
	input.Parking = true
	input.Lift = true

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	if details := validateInput(input); len(details) > 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid input", Details: details})
		return
	}

	pred, err := s.engine.Predict(input)
	if err != nil {
		s.writePredictError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pred)
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	names, stats, err := s.engine.Locations()
	if err != nil {
		s.writePredictError(w, err)
		return
	}

	entries := make([]locationEntry, 0, len(names))
	for _, name := range names {
		entry := locationEntry{Name: name}
		if st, ok := stats[name]; ok {
			entry.DataPoints = st.Count
			entry.AvgPrice = st.MeanPrice
			entry.MedianPrice = st.MedianPrice
			entry.MinPrice = st.MinPrice
			entry.MaxPrice = st.MaxPrice
			entry.AvgPricePerSqft = st.AvgPricePerSqft
		}
		entries = append(entries, entry)
	}
	s.writeJSON(w, http.StatusOK, locationsResponse{Locations: entries, Total: len(entries)})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.engine.Info()
	if err != nil {
		s.writePredictError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

// validateInput checks the property against the accepted ranges and
// collects every violation rather than stopping at the first.
func validateInput(in engine.PropertyInput) []string {
	var details []string
	if strings.TrimSpace(in.Location) == "" {
		details = append(details, "location is required")
	}
	if in.AreaSqft <= 100 || in.AreaSqft >= 10000 {
		details = append(details, "area_sqft must be between 100 and 10000 (exclusive)")
	}
	if in.BHK < 1 || in.BHK > 6 {
		details = append(details, "bhk must be between 1 and 6")
	}
	if in.Bathrooms < 1 || in.Bathrooms > 6 {
		details = append(details, "bathrooms must be between 1 and 6")
	}
	if in.Floor < 0 || in.Floor > 100 {
		details = append(details, "floor must be between 0 and 100")
	}
	if in.TotalFloors < 1 || in.TotalFloors > 80 {
		details = append(details, "total_floors must be between 1 and 80")
	}
	if in.AgeOfProperty < 0 || in.AgeOfProperty > 50 {
		details = append(details, "age_of_property must be between 0 and 50")
	}
	return details
}

// writePredictError translates engine errors into HTTP status codes:
// no model yet is 503, a bad location is the caller's fault, anything
// else is a server error.
func (s *Server) writePredictError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotReady):
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: "model is not loaded, please try again later",
		})
	case errors.Is(err, engine.ErrUnknownLocation):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("prediction failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "an error occurred while generating the prediction",
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
