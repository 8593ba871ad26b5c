package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/customtoken/internal/core"
	"github.com/darmiel/customtoken/internal/credentials"
	"github.com/darmiel/customtoken/pkg/client"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
)

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// logError logs err with everything the server told us about it and returns it.
func logError(err error, correlation, msg string) error {
	ev := log.Error().Err(err)
	if correlation != "" {
		ev = ev.Str("correlation_id", correlation)
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		ev = ev.Int("status", apiErr.Status).Str("category", apiErr.Category)
		if code := apiErr.Code(); code != "" {
			ev = ev.Str("code", code)
		}
		if apiErr.CorrelationID != "" {
			ev = ev.Str("correlation_id", apiErr.CorrelationID)
		}
	}
	ev.Msg(msg)
	return err
}

// readServiceAccount loads a service account key file as downloaded from the
// Firebase console and runs it through the same validation as request headers.
func readServiceAccount(path string) (*core.ServiceAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading service account file: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing service account file: %w", err)
	}
	bag := make(core.CredentialBag, len(raw))
	for key, value := range raw {
		if s, ok := value.(string); ok {
			bag[key] = s
		}
	}
	return credentials.Validate(bag)
}

// readBatch loads token requests from a JSON or YAML file.
func readBatch(path string) ([]core.TokenRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}
	var items []core.TokenRequest
	switch filepath.Ext(path) {
	case ".json":
		err = json.Unmarshal(data, &items)
	default:
		err = yaml.Unmarshal(data, &items)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing batch file: %w", err)
	}
	return items, nil
}
