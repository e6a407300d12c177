package tuner

import (
	"flag"
	"time"

	"github.com/zachfi/zkit/pkg/util"
)

const (
	defaultMaxReconnects  = 5
	defaultReconnectBase  = time.Second // delay is base << attempt: 2s, 4s, 8s, 16s, 32s
	defaultResolveTimeout = 10 * time.Second
	defaultStationsDir    = "stations"
)

type Config struct {
	StationsDir          string        `yaml:"stations-dir,omitempty"`           // directory for the station list and deleted-defaults JSON files
	MaxReconnectAttempts int           `yaml:"max-reconnect-attempts,omitempty"` // retry budget after a non-manual disconnect
	ReconnectBackoff     time.Duration `yaml:"reconnect-backoff,omitempty"`      // backoff base; attempt n waits base << n
	ResolveTimeout       time.Duration `yaml:"resolve-timeout,omitempty"`        // bound on playlist resolution
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.StationsDir, util.PrefixConfig(prefix, "stations-dir"), defaultStationsDir,
		"Directory in which the station list is persisted.")
	f.IntVar(&cfg.MaxReconnectAttempts, util.PrefixConfig(prefix, "max-reconnect-attempts"), defaultMaxReconnects,
		"Number of automatic reconnect attempts after a stream drops before giving up.")
	f.DurationVar(&cfg.ReconnectBackoff, util.PrefixConfig(prefix, "reconnect-backoff"), defaultReconnectBase,
		"Base reconnect delay. Attempt n waits base << n, so the default yields 2s, 4s, 8s, 16s, 32s.")
	f.DurationVar(&cfg.ResolveTimeout, util.PrefixConfig(prefix, "resolve-timeout"), defaultResolveTimeout,
		"Timeout for resolving playlist URLs to stream URLs.")
}
