package api

import (
	"flag"

	"github.com/zachfi/zkit/pkg/util"
)

const defaultPrefix = "/api/v1"

type Config struct {
	Prefix string `yaml:"prefix,omitempty"` // path prefix for all API routes
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Prefix, util.PrefixConfig(prefix, "prefix"), defaultPrefix, "Path prefix under which the API routes are registered.")
}
