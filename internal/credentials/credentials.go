// Package credentials builds service accounts from request headers.
//
// The required values can be taken from a private key file generated in the
// Firebase console (Settings > Service Accounts > Generate New Private Key).
package credentials

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/darmiel/customtoken/internal/apierror"
	"github.com/darmiel/customtoken/internal/core"
)

const (
	KeyClientEmail = "client_email"
	KeyPrivateKey  = "private_key"
	KeyProjectID   = "project_id"
)

// Keys lists the header keys required to build a service account, in validation order.
var Keys = []string{KeyClientEmail, KeyPrivateKey, KeyProjectID}

// Validate picks the service account keys from bag and returns the resulting account.
//
// The first key that is missing or blank after trimming aborts validation with a
// 401 *apierror.Error naming that key. Escaped newlines ("\\n") in the private key
// are rewritten to real newlines, which undoes the escaping needed to pass a PEM
// key through a single-line header.
func Validate(bag core.CredentialBag) (*core.ServiceAccount, error) {
	picked := Pick(bag)

	for _, key := range Keys {
		if strings.TrimSpace(picked[key]) == "" {
			return nil, apierror.New(http.StatusUnauthorized, fmt.Sprintf("Missing %s.", key), map[string]any{
				"data":   map[string]any{"headers": picked},
				"errors": map[string]any{key: ""},
			})
		}
	}

	var sa core.ServiceAccount
	if err := mapstructure.Decode(picked, &sa); err != nil {
		return nil, fmt.Errorf("decoding service account: %w", err)
	}
	sa.PrivateKey = UnescapeNewlines(sa.PrivateKey)

	return &sa, nil
}

// Pick returns a new bag containing only the service account keys present in bag.
func Pick(bag core.CredentialBag) core.CredentialBag {
	picked := make(core.CredentialBag, len(Keys))
	for _, key := range Keys {
		if v, ok := bag[key]; ok {
			picked[key] = v
		}
	}
	return picked
}

// UnescapeNewlines replaces every literal backslash-n with a newline.
// Strings without escape sequences are returned unchanged.
func UnescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// FromHeader converts HTTP headers into a CredentialBag.
// Header names are lower-cased; only the first value of each header is kept.
func FromHeader(h http.Header) core.CredentialBag {
	bag := make(core.CredentialBag, len(h))
	for name, values := range h {
		if len(values) == 0 {
			continue
		}
		key := strings.ToLower(name)
		if _, exists := bag[key]; exists {
			continue
		}
		bag[key] = values[0]
	}
	return bag
}

// Header returns HTTP headers carrying the service account, escaping newlines in the private key.
// It is the inverse of FromHeader followed by Validate.
func Header(sa *core.ServiceAccount) http.Header {
	h := make(http.Header, len(Keys))
	// non-canonical keys are kept as-is by the Go HTTP client
	h[KeyClientEmail] = []string{sa.ClientEmail}
	h[KeyPrivateKey] = []string{strings.ReplaceAll(sa.PrivateKey, "\n", `\n`)}
	h[KeyProjectID] = []string{sa.ProjectID}
	return h
}
