package config

import (
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WorkerConfig tunes the verification workers. All knobs have safe
// defaults; an on-disk worker.yml overrides them and is hot-reloaded.
type WorkerConfig struct {
	PollInterval      time.Duration `mapstructure:"pollInterval"`
	MaxBatch          int           `mapstructure:"maxBatch"`
	MaxVerifyAttempts int           `mapstructure:"maxVerifyAttempts"`
	LeaseTimeout      time.Duration `mapstructure:"leaseTimeout"`
	RelationCacheTTL  time.Duration `mapstructure:"relationCacheTTL"`
	MaxRelationPages  int           `mapstructure:"maxRelationPages"`
	RelationPageSize  int           `mapstructure:"relationPageSize"`
	UpstreamThrottle  time.Duration `mapstructure:"upstreamThrottle"`
	GroupDelay        time.Duration `mapstructure:"groupDelay"`
	BackoffCap        time.Duration `mapstructure:"backoffCap"`
	FetchRetries      int           `mapstructure:"fetchRetries"`
	HTTPTimeout       time.Duration `mapstructure:"httpTimeout"`
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval:      15 * time.Second,
		MaxBatch:          200,
		MaxVerifyAttempts: 2,
		LeaseTimeout:      2 * time.Minute,
		RelationCacheTTL:  time.Minute,
		MaxRelationPages:  60,
		RelationPageSize:  200,
		UpstreamThrottle:  600 * time.Millisecond,
		GroupDelay:        250 * time.Millisecond,
		BackoffCap:        30 * time.Second,
		FetchRetries:      2,
		HTTPTimeout:       20 * time.Second,
	}
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	defaults := DefaultWorkerConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.MaxBatch <= 0 {
		c.MaxBatch = defaults.MaxBatch
	}
	if c.MaxVerifyAttempts <= 0 {
		c.MaxVerifyAttempts = defaults.MaxVerifyAttempts
	}
	if c.LeaseTimeout <= 0 {
		c.LeaseTimeout = defaults.LeaseTimeout
	}
	if c.RelationCacheTTL <= 0 {
		c.RelationCacheTTL = defaults.RelationCacheTTL
	}
	if c.MaxRelationPages <= 0 {
		c.MaxRelationPages = defaults.MaxRelationPages
	}
	if c.RelationPageSize <= 0 {
		c.RelationPageSize = defaults.RelationPageSize
	}
	if c.UpstreamThrottle <= 0 {
		c.UpstreamThrottle = defaults.UpstreamThrottle
	}
	if c.GroupDelay <= 0 {
		c.GroupDelay = defaults.GroupDelay
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = defaults.BackoffCap
	}
	if c.FetchRetries < 0 {
		c.FetchRetries = defaults.FetchRetries
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaults.HTTPTimeout
	}
	return c
}

// WorkerConfigHolder exposes the current worker tuning, swapped
// atomically when the config file changes on disk.
type WorkerConfigHolder struct {
	current atomic.Value // holds WorkerConfig
}

func NewWorkerConfigHolder() (*WorkerConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("worker")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/ganhesocial")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GANHESOCIAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &WorkerConfigHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultWorkerConfig())
		return holder, nil
	}

	var cfg WorkerConfig
	if err := v.UnmarshalKey("worker", &cfg); err != nil {
		return nil, err
	}
	holder.current.Store(cfg.withDefaults())

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated WorkerConfig
		if err := v.UnmarshalKey("worker", &updated); err != nil {
			log.Printf("[worker-config] reload failed: %v", err)
			return
		}
		holder.current.Store(updated.withDefaults())
		log.Printf("[worker-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *WorkerConfigHolder) Get() WorkerConfig {
	return h.current.Load().(WorkerConfig)
}

// NewStaticWorkerConfigHolder returns a holder pinned to cfg, for tests.
func NewStaticWorkerConfigHolder(cfg WorkerConfig) *WorkerConfigHolder {
	holder := &WorkerConfigHolder{}
	holder.current.Store(cfg.withDefaults())
	return holder
}
