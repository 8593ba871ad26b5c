package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/darmiel/customtoken/internal/config"
)

const (
	LevelKey   = "log.level"
	FormatKey  = "log.format"
	NoColorKey = "log.no_color"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// InitDefault sets up a console logger on stderr until the configuration is known.
func InitDefault() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = New(os.Stderr, FormatConsole, false)
}

// Init configures the global logger from the log.* viper keys.
// A nil writer means stderr.
func Init(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString(LevelKey)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = New(w, viper.GetString(FormatKey), viper.GetBool(NoColorKey))
	if err != nil {
		log.Warn().Err(err).Msg("invalid log level, falling back to info")
	}
}

// New creates a logger writing to w. Unknown formats fall back to console.
func New(w io.Writer, format string, noColor bool) zerolog.Logger {
	if strings.EqualFold(format, FormatJSON) {
		return zerolog.New(w).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}).With().Timestamp().Logger()
}

// ForDeployment returns a child of l tagged with the namespace and the non-empty
// deployment attributes.
func ForDeployment(l zerolog.Logger, namespace string, d config.Deployment) zerolog.Logger {
	c := l.With()
	for key, value := range d.Fields() {
		c = c.Str(key, value)
	}
	if namespace != "" {
		c = c.Str("namespace", namespace)
	}
	return c.Logger()
}
