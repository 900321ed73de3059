// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package relay

import (
	"errors"
	"fmt"
	"time"

	"github.com/chengshiwen/influx-relay/util"
	"github.com/fsnotify/fsnotify"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	Version   = "not build"
	GitCommit = "not build"
	BuildTime = "not build"
)

var (
	ErrEmptyDatabase         = errors.New("influx database cannot be empty")
	ErrEmptyHost             = errors.New("influx host cannot be empty")
	ErrInvalidPort           = errors.New("influx port must be in 1-65535")
	ErrInvalidGrouping       = errors.New("invalid grouping, use per_metric or single_series")
	ErrInvalidFailurePolicy  = errors.New("invalid failure policy, use always_success or report_partial_failure")
	ErrInvalidStripMetric    = errors.New("invalid strip_metric pattern")
	ErrEmptyBackendName      = errors.New("backend name cannot be empty")
	ErrDuplicatedBackendName = errors.New("backend name duplicated")
	ErrEmptyBackendHost      = errors.New("backend host cannot be empty")
)

const (
	DefaultHost       = "localhost"
	DefaultPort       = 8086
	DefaultTimeout    = 15
	DefaultListenAddr = ":7077"
	DefaultPoolSize   = 20
)

type BackendConfig struct {
	Name     string `mapstructure:"name"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

func (bc *BackendConfig) Addr() string {
	return fmt.Sprintf("http://%s:%d", bc.Host, bc.Port)
}

type InfluxConfig struct {
	Database      string           `mapstructure:"database"`
	Host          string           `mapstructure:"host"`
	Port          int              `mapstructure:"port"`
	Username      string           `mapstructure:"username"`
	Password      string           `mapstructure:"password"`
	Timeout       int              `mapstructure:"timeout"`
	StripMetric   string           `mapstructure:"strip_metric"`
	Grouping      string           `mapstructure:"grouping"`
	FailurePolicy string           `mapstructure:"failure_policy"`
	Backends      []*BackendConfig `mapstructure:"backends"`
}

type RelayConfig struct {
	Influx        *InfluxConfig `mapstructure:"influx"`
	ListenAddr    string        `mapstructure:"listen_addr"`
	PoolSize      int           `mapstructure:"pool_size"`
	Token         string        `mapstructure:"token"`
	DryRun        bool          `mapstructure:"dry_run"`
	LogLevel      string        `mapstructure:"log_level"`
	LogPath       string        `mapstructure:"log_path"`
	LogMaxSize    int           `mapstructure:"log_max_size"`
	LogMaxBackups int           `mapstructure:"log_max_backups"`
	LogMaxAge     int           `mapstructure:"log_max_age"`
}

func NewFileConfig(cfgfile string) (cfg *RelayConfig, err error) {
	v := viper.New()
	v.SetConfigFile(cfgfile)
	err = v.ReadInConfig()
	if err != nil {
		return
	}
	return unmarshalConfig(v)
}

// WatchFileConfig calls fn with the reloaded config, or the load error, on every change of cfgfile.
func WatchFileConfig(cfgfile string, fn func(*RelayConfig, error)) error {
	v := viper.New()
	v.SetConfigFile(cfgfile)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		fn(unmarshalConfig(v))
	})
	v.WatchConfig()
	return nil
}

func unmarshalConfig(v *viper.Viper) (cfg *RelayConfig, err error) {
	cfg = &RelayConfig{}
	err = v.Unmarshal(cfg)
	if err != nil {
		return
	}
	cfg.setDefault()
	err = cfg.checkConfig()
	return
}

func (cfg *RelayConfig) setDefault() {
	if cfg.Influx == nil {
		cfg.Influx = &InfluxConfig{}
	}
	ic := cfg.Influx
	if ic.Host == "" {
		ic.Host = DefaultHost
	}
	if ic.Port == 0 {
		ic.Port = DefaultPort
	}
	if ic.Timeout <= 0 {
		ic.Timeout = DefaultTimeout
	}
	if ic.Grouping == "" {
		ic.Grouping = GroupingPerMetric
	}
	if ic.FailurePolicy == "" {
		ic.FailurePolicy = PolicyAlwaysSuccess
	}
	if len(ic.Backends) == 0 {
		ic.Backends = []*BackendConfig{{Name: "default", Host: ic.Host, Port: ic.Port}}
	}
	for _, bc := range ic.Backends {
		if bc.Port == 0 {
			bc.Port = ic.Port
		}
		if bc.Username == "" {
			bc.Username = ic.Username
		}
		if bc.Password == "" {
			bc.Password = ic.Password
		}
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogMaxSize <= 0 {
		cfg.LogMaxSize = 100
	}
	if cfg.LogMaxBackups <= 0 {
		cfg.LogMaxBackups = 5
	}
	if cfg.LogMaxAge <= 0 {
		cfg.LogMaxAge = 7
	}
}

func (cfg *RelayConfig) checkConfig() (err error) {
	ic := cfg.Influx
	if ic.Database == "" && !cfg.DryRun {
		return ErrEmptyDatabase
	}
	if ic.Host == "" {
		return ErrEmptyHost
	}
	if ic.Port < 1 || ic.Port > 65535 {
		return ErrInvalidPort
	}
	if _, err = ParseGroupingStrategy(ic.Grouping); err != nil {
		return
	}
	if _, err = ParseFailurePolicy(ic.FailurePolicy); err != nil {
		return
	}
	if _, err = CompileStripRule(ic.StripMetric); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidStripMetric, err)
	}
	set := util.NewSet()
	for _, bc := range ic.Backends {
		if bc.Name == "" {
			return ErrEmptyBackendName
		}
		if set[bc.Name] {
			return ErrDuplicatedBackendName
		}
		set.Add(bc.Name)
		if bc.Host == "" {
			return ErrEmptyBackendHost
		}
		if bc.Port < 1 || bc.Port > 65535 {
			return ErrInvalidPort
		}
	}
	return
}

func (cfg *RelayConfig) WriteTimeout() time.Duration {
	return time.Duration(cfg.Influx.Timeout) * time.Second
}

func (cfg *RelayConfig) LogConfig() *util.LogConfig {
	return &util.LogConfig{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
	}
}

func (cfg *RelayConfig) PrintSummary(logger *zap.Logger) {
	ic := cfg.Influx
	logger.Info("config loaded",
		zap.String("database", ic.Database),
		zap.Int("backends", len(ic.Backends)),
		zap.String("grouping", ic.Grouping),
		zap.String("failure_policy", ic.FailurePolicy),
		zap.String("strip_metric", ic.StripMetric),
		zap.Int("timeout", ic.Timeout),
		zap.Bool("dry_run", cfg.DryRun),
		zap.Bool("auth", cfg.Token != ""))
	for id, bc := range ic.Backends {
		logger.Info("backend loaded", zap.Int("id", id), zap.String("name", bc.Name), zap.String("addr", bc.Addr()))
	}
}

func (cfg *RelayConfig) String() string {
	masked := *cfg
	ic := *cfg.Influx
	ic.Password = mask(ic.Password)
	ic.Backends = make([]*BackendConfig, len(cfg.Influx.Backends))
	for i, bc := range cfg.Influx.Backends {
		b := *bc
		b.Password = mask(b.Password)
		ic.Backends[i] = &b
	}
	masked.Influx = &ic
	masked.Token = mask(masked.Token)
	json := jsoniter.Config{TagKey: "mapstructure"}.Froze()
	b, _ := json.Marshal(&masked)
	return string(b)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "******"
}
