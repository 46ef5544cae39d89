// Package httpapi exposes suggestions, forecasts and weather sessions over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dev-Dami/Weather-App/internal/cache"
	"github.com/Dev-Dami/Weather-App/internal/models"
	"github.com/Dev-Dami/Weather-App/internal/session"
	"github.com/Dev-Dami/Weather-App/internal/suggest"
	"github.com/Dev-Dami/Weather-App/internal/weatherapi"
)

const maxBodyBytes = 1 << 16

// Streamer upgrades a request into a live feed of one session's events,
// starting from the view current returns once the client is subscribed.
type Streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, id string, current func() session.View)
}

type Server struct {
	engine   suggest.Engine
	resolver session.CityResolver
	weather  session.WeatherFetcher
	cache    *cache.Cache
	sessions *session.Manager
	stream   Streamer
}

type Options struct {
	Engine   suggest.Engine
	Resolver session.CityResolver
	Weather  session.WeatherFetcher
	Cache    *cache.Cache
	Sessions *session.Manager
	Stream   Streamer
}

func NewServer(opts Options) *Server {
	return &Server{
		engine:   opts.Engine,
		resolver: opts.Resolver,
		weather:  opts.Weather,
		cache:    opts.Cache,
		sessions: opts.Sessions,
		stream:   opts.Stream,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/weather/suggestions", s.handleSuggestions)
	r.Get("/weather/featured", s.handleFeatured)
	r.Get("/weather/reverse", s.handleReverse)
	r.Get("/weather/forecast", s.handleForecast)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/{id}", s.handleGetSession)
		r.Delete("/{id}", s.handleDeleteSession)
		r.Put("/{id}/location", s.handleLocation)
		r.Put("/{id}/input", s.handleInput)
		r.Post("/{id}/search", s.handleSearch)
		r.Post("/{id}/select", s.handleSelect)
		r.Get("/{id}/ws", s.handleStream)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody reads an optional JSON body into dst. An empty body leaves dst
// untouched.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

type coordsRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

func (c coordsRequest) present() bool { return c.Lat != nil || c.Lon != nil }

func (c coordsRequest) validate() error {
	if c.Lat == nil || c.Lon == nil {
		return errors.New("lat and lon are required")
	}
	return validateCoords(*c.Lat, *c.Lon)
}

func validateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return errors.New("lat must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return errors.New("lon must be between -180 and 180")
	}
	return nil
}

type cityRequest struct {
	City string `json:"city"`
}

type inputRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": s.engine.Suggest(r.URL.Query().Get("q"))})
}

func (s *Server) handleFeatured(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"cities": suggest.Featured()})
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		writeError(w, http.StatusBadRequest, "lat and lon parameters are required")
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lat parameter")
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lon parameter")
		return
	}
	if err := validateCoords(lat, lon); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"city": s.resolver.ResolveCity(r.Context(), lat, lon)})
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'city' is required")
		return
	}

	if cached, ok := s.cache.Get(city); ok {
		writeJSON(w, http.StatusOK, models.NewWeatherView(cached))
		return
	}

	snap, err := s.weather.Fetch(r.Context(), city)
	if err != nil {
		slog.Error("forecast fetch failed", "city", city, "error", err)
		if errors.Is(err, weatherapi.ErrEmptyCity) {
			writeError(w, http.StatusBadRequest, "query parameter 'city' is required")
			return
		}
		if weatherapi.IsAuthFailure(err) {
			writeError(w, http.StatusBadGateway, "weather provider rejected the configured API key")
			return
		}
		writeError(w, http.StatusBadGateway, "failed to fetch weather")
		return
	}

	s.cache.Set(city, snap)
	writeJSON(w, http.StatusOK, models.NewWeatherView(snap))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req coordsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.present() {
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	sess := s.sessions.Create()
	view := sess.View()
	if req.present() {
		view = sess.ReportLocation(*req.Lat, *req.Lon)
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.sessions.Lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		slog.Error("session lookup failed", "session", chi.URLParam(r, "id"), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// liveSession writes a 404 and returns nil when the session is not held here.
func (s *Server) liveSession(w http.ResponseWriter, r *http.Request) *session.Session {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil
	}
	return sess
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	sess := s.liveSession(w, r)
	if sess == nil {
		return
	}
	var req coordsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.ReportLocation(*req.Lat, *req.Lon))
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	sess := s.liveSession(w, r)
	if sess == nil {
		return
	}
	var req inputRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, sess.SetInput(req.Text))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess := s.liveSession(w, r)
	if sess == nil {
		return
	}
	var req cityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, sess.Search(req.City))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess := s.liveSession(w, r)
	if sess == nil {
		return
	}
	var req cityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.City) == "" {
		writeError(w, http.StatusBadRequest, "city is required")
		return
	}
	writeJSON(w, http.StatusOK, sess.Select(req.City))
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess := s.liveSession(w, r)
	if sess == nil {
		return
	}
	if s.stream == nil {
		writeError(w, http.StatusNotImplemented, "live updates are not enabled")
		return
	}
	s.stream.Serve(w, r, sess.ID(), sess.View)
}
