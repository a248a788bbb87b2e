package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"bikedest/classifier"
	"bikedest/domain/business/pipeline"
	"bikedest/domain/business/riders"
	"bikedest/domain/entities/features"
	"bikedest/domain/entities/station"
	"bikedest/domain/entities/trip"
)

const maxBodyBytes = 1 << 20

// Handler handles HTTP requests
type Handler struct {
	pipeline   *pipeline.Pipeline
	catalogue  *riders.Catalogue
	classifier classifier.Classifier
	topK       int
}

// NewHandler creates a new HTTP handler. scorer may be nil, prediction requests then answer 503
func NewHandler(featurePipeline *pipeline.Pipeline, catalogue *riders.Catalogue, scorer classifier.Classifier, topK int) *Handler {
	if catalogue == nil {
		catalogue = riders.NewCatalogue(nil)
	}
	if topK <= 0 {
		topK = classifier.DefaultTopK
	}
	return &Handler{
		pipeline:   featurePipeline,
		catalogue:  catalogue,
		classifier: scorer,
		topK:       topK,
	}
}

// RegisterRoutes registers all routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/features", h.handleFeatures).Methods("POST")
	r.HandleFunc("/predict", h.handlePredict).Methods("POST")
	r.HandleFunc("/stations", h.handleStations).Methods("GET")
	r.HandleFunc("/stations/nearest", h.handleNearestStation).Methods("GET")
	r.HandleFunc("/stations/{name}", h.handleStation).Methods("GET")
	r.HandleFunc("/riders", h.handleRiders).Methods("GET")
	r.HandleFunc("/riders/{id}", h.handleRider).Methods("GET")
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// FeaturesResponse feature vector of a request
type FeaturesResponse struct {
	Variant features.Variant `json:"variant"`
	Names   []string         `json:"names"`
	Values  []float64        `json:"values"`
}

// PredictResponse feature vector plus the classifier result
type PredictResponse struct {
	FeaturesResponse
	Prediction classifier.Prediction `json:"prediction"`
	Top        []classifier.Ranked   `json:"top"`
}

type StationsResponse struct {
	Data  []station.Station `json:"data"`
	Count int               `json:"count"`
}

type NearestStationResponse struct {
	Station    station.Station `json:"station"`
	DistanceKm float64         `json:"distance_km"`
}

type RidersResponse struct {
	Data  []riders.Profile `json:"data"`
	Count int              `json:"count"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "OK"})
}

func (h *Handler) handleFeatures(w http.ResponseWriter, r *http.Request) {
	request, ok := h.readTripRequest(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, h.transform(request))
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	if h.classifier == nil {
		h.writeError(w, "no classifier configured", http.StatusServiceUnavailable)
		return
	}

	topK := h.topK
	if rawTop := r.URL.Query().Get("top"); rawTop != "" {
		parsed, err := strconv.Atoi(rawTop)
		if err != nil || parsed < 1 {
			h.writeError(w, "Invalid top parameter", http.StatusBadRequest)
			return
		}
		topK = parsed
	}

	request, ok := h.readTripRequest(w, r)
	if !ok {
		return
	}

	response := h.transform(request)
	prediction, err := h.classifier.PredictProba(r.Context(), response.Values)
	if err != nil {
		log.Warnf("[server][method: handlePredict][status: WARNING] %s", err.Error())
		status := http.StatusBadGateway
		if errors.Is(err, classifier.ErrClassifierUnavailable) {
			status = http.StatusServiceUnavailable
		}
		h.writeError(w, err.Error(), status)
		return
	}

	h.writeJSON(w, PredictResponse{
		FeaturesResponse: response,
		Prediction:       prediction,
		Top:              prediction.Top(topK),
	})
}

func (h *Handler) handleStations(w http.ResponseWriter, r *http.Request) {
	stations := h.pipeline.Directory().Stations()
	h.writeJSON(w, StationsResponse{Data: stations, Count: len(stations)})
}

func (h *Handler) handleNearestStation(w http.ResponseWriter, r *http.Request) {
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

	nearest, distanceKm, ok := h.pipeline.Directory().Nearest(lat, lon, h.pipeline.NearbyRadius())
	if !ok {
		h.writeError(w, "No station near the given point", http.StatusNotFound)
		return
	}

	h.writeJSON(w, NearestStationResponse{Station: nearest, DistanceKm: distanceKm})
}

func (h *Handler) handleStation(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	s, ok := h.pipeline.Directory().GetStation(name)
	if !ok {
		h.writeError(w, "Station not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, s)
}

func (h *Handler) handleRiders(w http.ResponseWriter, r *http.Request) {
	limit := riders.DefaultCatalogueSize
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 1 {
			h.writeError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	profiles := h.catalogue.Top(limit)
	h.writeJSON(w, RidersResponse{Data: profiles, Count: len(profiles)})
}

func (h *Handler) handleRider(w http.ResponseWriter, r *http.Request) {
	profile, err := h.catalogue.Get(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Rider not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, profile)
}

func (h *Handler) readTripRequest(w http.ResponseWriter, r *http.Request) (trip.TripRequest, bool) {
	var request trip.TripRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&request); err != nil {
		h.writeError(w, "Invalid trip request: "+err.Error(), http.StatusBadRequest)
		return trip.TripRequest{}, false
	}
	return h.catalogue.Complete(request), true
}

func (h *Handler) transform(request trip.TripRequest) FeaturesResponse {
	vector := h.pipeline.Transform(request)
	return FeaturesResponse{
		Variant: h.pipeline.Variant(),
		Names:   vector.Names(),
		Values:  vector.Values(),
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
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
