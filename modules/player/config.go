package player

import (
	"flag"

	"github.com/zachfi/zkit/pkg/util"
)

const (
	defaultBinary = "mpv"

	// Volume defaults follow mpv conventions: 100 is unattenuated, and the
	// ceiling allows boosting quiet streams up to 200.
	defaultVolume    = 100
	defaultVolumeMax = 200
)

type Config struct {
	Binary           string `yaml:"binary,omitempty"`            // external player binary
	Volume           int    `yaml:"volume,omitempty"`            // volume used when a play request carries none
	VolumeMax        int    `yaml:"volume-max,omitempty"`        // ceiling passed to the player
	ResolvePlaylists bool   `yaml:"resolve-playlists,omitempty"` // resolve .pls/.m3u URLs before spawning
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Binary, util.PrefixConfig(prefix, "binary"), defaultBinary, "The external audio player binary to spawn.")
	f.IntVar(&cfg.Volume, util.PrefixConfig(prefix, "volume"), defaultVolume, "Default playback volume when a request does not specify one.")
	f.IntVar(&cfg.VolumeMax, util.PrefixConfig(prefix, "volume-max"), defaultVolumeMax, "Maximum volume ceiling passed to the player.")
	f.BoolVar(&cfg.ResolvePlaylists, util.PrefixConfig(prefix, "resolve-playlists"), false, "Resolve playlist (.pls/.m3u) URLs to their stream URL before playing.")
}
