package radiobrowser

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/grafana/dskit/flagext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zachfi/zkit/pkg/util"
)

var metricMirrorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "radiogo",
	Name:      "directory_mirror_failures_total",
	Help:      "Number of per-mirror directory request failures.",
}, []string{"mirror"})

const (
	defaultTimeout = 5 * time.Second
	defaultLimit   = 20

	userAgent = "radiogo/1.0"

	searchPath = "/json/stations/search"
)

// DefaultMirrors is the reference set of radio-browser.info replicas, in the
// order they are tried. They all serve the same logical directory; the list
// exists for redundancy, not load distribution.
var DefaultMirrors = []string{
	"https://all.api.radio-browser.info",
	"https://de1.api.radio-browser.info",
	"https://fr1.api.radio-browser.info",
	"https://at1.api.radio-browser.info",
	"https://nl1.api.radio-browser.info",
	"https://us1.api.radio-browser.info",
	"https://es1.api.radio-browser.info",
}

type Config struct {
	Mirrors flagext.StringSliceCSV `yaml:"mirrors,omitempty"`
	Timeout time.Duration          `yaml:"timeout,omitempty"`
	Limit   int                    `yaml:"limit,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	cfg.Mirrors = DefaultMirrors
	f.Var(&cfg.Mirrors, util.PrefixConfig(prefix, "mirrors"), "Directory mirror base URLs, tried in order.")
	f.DurationVar(&cfg.Timeout, util.PrefixConfig(prefix, "timeout"), defaultTimeout, "Per-mirror request timeout.")
	f.IntVar(&cfg.Limit, util.PrefixConfig(prefix, "limit"), defaultLimit, "Maximum number of stations per search.")
}

// Client queries the station directory. It is stateless apart from its
// configuration and is safe for concurrent use.
type Client struct {
	cfg    *Config
	client *http.Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Limit == 0 {
		cfg.Limit = defaultLimit
	}
	if len(cfg.Mirrors) == 0 {
		cfg.Mirrors = DefaultMirrors
	}

	return &Client{
		cfg:    &cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("module", "radiobrowser"),
	}
}

// Search looks up stations by name. Mirrors are tried in configured order and
// the first successfully parsed response wins; its ordering is preserved. A
// failure on one mirror (transport, HTTP status, or decode) only advances the
// walk, and if every mirror fails the last error observed is returned. An
// empty or whitespace-only query returns an empty result without touching the
// network.
func (c *Client) Search(ctx context.Context, query string) ([]Station, error) {
	if strings.TrimSpace(query) == "" {
		return []Station{}, nil
	}

	c.logger.Debug("searching stations", "query", query)

	params := url.Values{}
	params.Set("name", query)
	params.Set("limit", strconv.Itoa(c.cfg.Limit))

	var lastErr error

	for _, mirror := range c.cfg.Mirrors {
		stations, err := c.searchMirror(ctx, mirror, params)
		if err != nil {
			c.logger.Warn("mirror failed", "mirror", mirror, "err", err)
			metricMirrorFailures.WithLabelValues(mirror).Inc()
			lastErr = err
			continue
		}

		c.logger.Debug("search complete", "mirror", mirror, "stations", len(stations))
		return stations, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return []Station{}, nil
}

func (c *Client) searchMirror(ctx context.Context, mirror string, params url.Values) ([]Station, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u := strings.TrimSuffix(mirror, "/") + searchPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, mirror)
	}

	var raw []apiStation
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode stations: %w", err)
	}

	stations := make([]Station, 0, len(raw))
	for _, r := range raw {
		stations = append(stations, r.station())
	}

	return stations, nil
}
