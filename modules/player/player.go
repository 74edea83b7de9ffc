package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/grafana/dskit/services"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zachfi/radiogo/pkg/playlist"
)

// ErrLiveVolume is returned by SetVolume: adjusting a running stream's volume
// is not implemented. Volume is fixed when the process is spawned; wiring
// this to mpv's JSON IPC socket is the intended path if it is ever needed.
var ErrLiveVolume = errors.New("live volume control is not implemented; volume is set at stream start")

var module = "player"

var (
	metricStarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "radiogo",
		Name:      "player_starts_total",
		Help:      "Number of player processes spawned.",
	})
	metricSpawnFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "radiogo",
		Name:      "player_spawn_failures_total",
		Help:      "Number of failed attempts to spawn the player binary.",
	})
	metricStops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "radiogo",
		Name:      "player_stops_total",
		Help:      "Number of player processes stopped and reaped.",
	})
	metricPlaying = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "radiogo",
		Name:      "player_playing",
		Help:      "Whether a player process is currently owned (1) or not (0).",
	})
)

// Player supervises at most one external audio player process. The process
// handle is a single slot guarded by one mutex; it is never handed out.
type Player struct {
	services.Service
	cfg    *Config
	logger *slog.Logger

	mtx     sync.Mutex
	session *exec.Cmd // nil when idle
	url     string
}

// New creates and returns a new Player.
func New(cfg Config, logger slog.Logger) (*Player, error) {
	if cfg.Binary == "" {
		cfg.Binary = defaultBinary
	}
	if cfg.Volume == 0 {
		cfg.Volume = defaultVolume
	}
	if cfg.VolumeMax == 0 {
		cfg.VolumeMax = defaultVolumeMax
	}

	p := &Player{
		cfg:    &cfg,
		logger: logger.With("module", module),
	}

	p.Service = services.NewBasicService(nil, p.running, p.stopping)

	return p, nil
}

func (p *Player) running(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// stopping runs on service teardown, so no player process outlives the
// supervisor.
func (p *Player) stopping(_ error) error {
	p.logger.Info("stopping")
	p.Stop()
	return nil
}

// Play validates the URL, stops any current stream and spawns the player for
// the new one. Validation failures spawn nothing and unwrap to the Err*
// sentinels in this package. A spawn failure leaves the player idle and is
// recoverable; the returned error is a report, not a fatal condition.
func (p *Player) Play(ctx context.Context, streamURL string, volume int) error {
	if err := ValidateStreamURL(streamURL); err != nil {
		p.logger.Error("rejected stream URL", "url", streamURL, "err", err)
		return err
	}

	if p.cfg.ResolvePlaylists {
		resolved, err := playlist.Resolve(ctx, streamURL)
		if err != nil {
			// Resolution is best effort; the player may understand the
			// playlist natively.
			p.logger.Debug("playlist resolution failed, using original URL", "url", streamURL, "err", err)
		} else if resolved != streamURL {
			if err := ValidateStreamURL(resolved); err != nil {
				p.logger.Error("rejected resolved stream URL", "url", resolved, "err", err)
				return err
			}
			streamURL = resolved
		}
	}

	volume = clampVolume(volume, p.cfg.VolumeMax)

	// One lock covers stop, spawn and store: concurrent Play/Stop calls can
	// never double-kill a process or leak a handle.
	p.mtx.Lock()
	defer p.mtx.Unlock()

	p.stopLocked()

	cmd := exec.Command(p.cfg.Binary, p.args(streamURL, volume)...)
	if err := cmd.Start(); err != nil {
		metricSpawnFailures.Inc()
		p.logger.Warn("failed to start player", "binary", p.cfg.Binary, "err", err)
		return pkgerrors.Wrap(err, "failed to start player")
	}

	p.logger.Debug("spawned player", "url", streamURL, "volume", volume, "pid", cmd.Process.Pid)

	p.session = cmd
	p.url = streamURL
	metricStarts.Inc()
	metricPlaying.Set(1)

	return nil
}

// Stop terminates the current player process, if any, and waits for it to
// exit so nothing is left unreaped. A signalling failure is logged but the
// slot is always cleared; a stop never leaves the player stuck in a playing
// state. Stopping an idle player is a no-op.
func (p *Player) Stop() {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.session == nil {
		return
	}

	if err := p.session.Process.Kill(); err != nil {
		p.logger.Warn("failed to kill player process", "pid", p.session.Process.Pid, "err", err)
	}
	_ = p.session.Wait()

	p.session = nil
	p.url = ""
	metricStops.Inc()
	metricPlaying.Set(0)
}

// SetVolume always returns ErrLiveVolume. See the sentinel for why.
func (p *Player) SetVolume(_ int) error {
	return ErrLiveVolume
}

// Status reports whether a process is owned and which URL it was started
// with.
func (p *Player) Status() (playing bool, url string) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return p.session != nil, p.url
}

// DefaultVolume is the configured volume used when a request carries none.
func (p *Player) DefaultVolume() int {
	return p.cfg.Volume
}

func (p *Player) args(streamURL string, volume int) []string {
	return []string{
		"--no-video",
		fmt.Sprintf("--volume=%d", volume),
		fmt.Sprintf("--volume-max=%d", p.cfg.VolumeMax),
		"--af=lavfi=[dynaudnorm]",
		streamURL,
	}
}

func clampVolume(volume, ceiling int) int {
	if volume < 0 {
		return 0
	}
	if volume > ceiling {
		return ceiling
	}
	return volume
}
