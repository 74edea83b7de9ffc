// Package api exposes station search and playback control over HTTP, bound
// to the embedded server's router.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/grafana/dskit/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zachfi/radiogo/modules/player"
	"github.com/zachfi/radiogo/pkg/radiobrowser"
)

var module = "api"

const clickTimeout = 10 * time.Second

var (
	metricSearches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "radiogo",
		Name:      "api_searches_total",
		Help:      "Number of station searches served.",
	})
	metricSearchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "radiogo",
		Name:      "api_search_failures_total",
		Help:      "Number of station searches that failed on every mirror.",
	})
)

// directory is the station lookup surface the API needs.
type directory interface {
	Search(ctx context.Context, query string) ([]radiobrowser.Station, error)
	CountClick(ctx context.Context, stationUUID string) (*radiobrowser.ClickResponse, error)
}

// controller is the playback surface the API needs.
type controller interface {
	Play(ctx context.Context, url string, volume int) error
	Stop()
	Status() (playing bool, url string)
	DefaultVolume() int
}

type API struct {
	services.Service
	cfg    *Config
	logger *slog.Logger

	directory directory
	player    controller
}

// New creates the API module and registers its routes on the given router.
func New(cfg Config, logger slog.Logger, directory directory, player controller, router *mux.Router) (*API, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}

	a := &API{
		cfg:       &cfg,
		logger:    logger.With("module", module),
		directory: directory,
		player:    player,
	}

	a.registerRoutes(router)

	a.Service = services.NewIdleService(nil, nil)

	return a, nil
}

func (a *API) registerRoutes(router *mux.Router) {
	sub := router.PathPrefix(a.cfg.Prefix).Subrouter()
	sub.HandleFunc("/stations/search", a.handleSearch).Methods(http.MethodGet)
	sub.HandleFunc("/play", a.handlePlay).Methods(http.MethodPost)
	sub.HandleFunc("/stop", a.handleStop).Methods(http.MethodPost)
	sub.HandleFunc("/status", a.handleStatus).Methods(http.MethodGet)
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	metricSearches.Inc()

	stations, err := a.directory.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		metricSearchFailures.Inc()
		a.logger.Error("search failed", "err", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, stations)
}

type playRequest struct {
	URL    string `json:"url"`
	UUID   string `json:"uuid"`
	Volume *int   `json:"volume"`
}

func (a *API) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, errors.New("url is required"))
		return
	}

	volume := a.player.DefaultVolume()
	if req.Volume != nil {
		volume = *req.Volume
	}

	if err := a.player.Play(r.Context(), req.URL, volume); err != nil {
		var verr *player.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}

	if req.UUID != "" {
		// Click counting is directory etiquette, not part of playback; do it
		// off the request path and only log failures.
		go func(uuid string) {
			ctx, cancel := context.WithTimeout(context.Background(), clickTimeout)
			defer cancel()

			if _, err := a.directory.CountClick(ctx, uuid); err != nil {
				a.logger.Warn("failed to count station click", "uuid", uuid, "err", err)
			}
		}(req.UUID)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleStop(w http.ResponseWriter, _ *http.Request) {
	a.player.Stop()
	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	State string `json:"state"`
	URL   string `json:"url,omitempty"`
}

func (a *API) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{State: "idle"}
	if playing, url := a.player.Status(); playing {
		resp.State = "playing"
		resp.URL = url
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
