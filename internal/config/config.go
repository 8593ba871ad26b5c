package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const EnvPrefix = "CUSTOMTOKEN"

type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `mapstructure:"addr"`

	// ReportSkipped exposes the indexes of skipped batch items in the X-Skipped-Items header.
	ReportSkipped bool `mapstructure:"report_skipped"`

	// MaxConcurrency limits the number of items of a single batch processed at once.
	// Zero means unlimited.
	MaxConcurrency int `mapstructure:"max_concurrency"`

	Deployment Deployment      `mapstructure:"deployment"`
	Analytics  AnalyticsConfig `mapstructure:"analytics"`
	Firebase   FirebaseConfig  `mapstructure:"firebase"`
}

// Deployment describes where the service is running. Empty fields are omitted from errors and logs.
type Deployment struct {
	Env    string `mapstructure:"env"`
	Branch string `mapstructure:"branch"`
	Commit string `mapstructure:"commit"`
}

// Fields returns the non-empty deployment attributes keyed by branch, commit and env.
func (d Deployment) Fields() map[string]string {
	fields := make(map[string]string, 3)
	if d.Branch != "" {
		fields["branch"] = d.Branch
	}
	if d.Commit != "" {
		fields["commit"] = d.Commit
	}
	if d.Env != "" {
		fields["env"] = d.Env
	}
	return fields
}

type AnalyticsConfig struct {
	// TrackingID enables analytics. Without it, hits are dropped.
	TrackingID string `mapstructure:"tracking_id"`
	Endpoint   string `mapstructure:"endpoint"`
}

func (a AnalyticsConfig) Enabled() bool {
	return a.TrackingID != ""
}

type FirebaseConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	TokenURL     string        `mapstructure:"token_url"`
	EmulatorHost string        `mapstructure:"emulator_host"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

// well-known variables that are read without the CUSTOMTOKEN_ prefix
var unprefixedEnv = map[string]string{
	"deployment.env":         "VERCEL_ENV",
	"deployment.branch":      "VERCEL_GIT_COMMIT_REF",
	"deployment.commit":      "VERCEL_GIT_COMMIT_SHA",
	"analytics.tracking_id":  "GA_TRACKING_ID",
	"firebase.emulator_host": "FIREBASE_AUTH_EMULATOR_HOST",
}

var defaults = map[string]any{
	"addr":               ":8080",
	"report_skipped":     false,
	"max_concurrency":    0,
	"analytics.endpoint": "",
	"firebase.endpoint":  "",
	"firebase.token_url": "",
	"firebase.token_ttl": time.Hour,
}

// Bind registers defaults and environment bindings on v.
// It is safe to call more than once.
func Bind(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, env := range unprefixedEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.NewReplacer(".", "_").Replace(key)), env); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the configuration from v. Bind must have been called before.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.StringToTimeDurationHookFunc()
	})
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must not be negative, got %d", c.MaxConcurrency)
	}
	if c.Firebase.TokenTTL < 0 {
		return fmt.Errorf("firebase.token_ttl must not be negative, got %s", c.Firebase.TokenTTL)
	}
	return nil
}
