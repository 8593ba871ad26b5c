package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/darmiel/customtoken/internal/analytics"
	"github.com/darmiel/customtoken/internal/buildinfo"
	"github.com/darmiel/customtoken/internal/config"
	"github.com/darmiel/customtoken/internal/core"
	"github.com/darmiel/customtoken/internal/firebase"
	"github.com/darmiel/customtoken/internal/service"
	"github.com/darmiel/customtoken/pkg/client"
)

type Factory struct {
	// RemoteAddr is the address of the customtoken server to connect to.
	RemoteAddr string

	cfg *config.Config
}

func NewFactory() *Factory {
	return &Factory{}
}

// Remote reports whether commands should talk to a server instead of running locally.
func (f *Factory) Remote() bool {
	return f.serverAddr() != ""
}

func (f *Factory) serverAddr() string {
	if f.RemoteAddr != "" { // prio 1: command-line flag
		return f.RemoteAddr
	}
	return viper.GetString(ServerAddrKey) // prio 2: config/env
}

// GetClient returns an HTTP client for remote operations.
func (f *Factory) GetClient() (*client.Client, error) {
	server := f.serverAddr()
	if server == "" {
		return nil, fmt.Errorf("server address not configured (use --server or set CUSTOMTOKEN_SERVER)")
	}
	return client.New(server), nil
}

// Config loads the runtime configuration once.
func (f *Factory) Config() (*config.Config, error) {
	if f.cfg != nil {
		return f.cfg, nil
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	f.cfg = cfg
	return cfg, nil
}

func (f *Factory) GetProvider() (core.IdentityProvider, error) {
	cfg, err := f.Config()
	if err != nil {
		return nil, err
	}
	if cfg.Firebase.EmulatorHost != "" {
		log.Info().Str("emulator", cfg.Firebase.EmulatorHost).Msg("Using Firebase auth emulator")
	}
	return firebase.New(firebase.Type, firebase.Options{
		Endpoint:     cfg.Firebase.Endpoint,
		TokenURL:     cfg.Firebase.TokenURL,
		EmulatorHost: cfg.Firebase.EmulatorHost,
		TokenTTL:     cfg.Firebase.TokenTTL,
	}), nil
}

// GetLocalService returns a token service that talks to Firebase directly.
func (f *Factory) GetLocalService() (*service.TokenService, error) {
	cfg, err := f.Config()
	if err != nil {
		return nil, err
	}
	provider, err := f.GetProvider()
	if err != nil {
		return nil, err
	}
	return service.NewTokenService(provider, cfg.MaxConcurrency), nil
}

// GetTracker returns the analytics tracker, or nil if analytics is disabled.
func (f *Factory) GetTracker() (core.Tracker, error) {
	cfg, err := f.Config()
	if err != nil {
		return nil, err
	}
	if !cfg.Analytics.Enabled() {
		log.Debug().Msg("No tracking ID configured, analytics disabled")
		return nil, nil
	}
	info := buildinfo.GetBuildInfo()
	return analytics.New(cfg.Analytics.TrackingID,
		analytics.WithEndpoint(cfg.Analytics.Endpoint),
		analytics.WithUserAgent(info.Service+"/"+info.Version),
	), nil
}

func (f *Factory) bindKeyFlag(flags *pflag.FlagSet, dest *string) {
	flags.StringVarP(dest, "key", "k", "", "Service account key file (JSON), as downloaded from the Firebase console")
}
