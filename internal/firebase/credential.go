package firebase

import (
	"crypto/rsa"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/darmiel/customtoken/internal/core"
)

// Credential is a parsed service account ready for signing.
type Credential struct {
	ClientEmail string
	ProjectID   string

	key    *rsa.PrivateKey
	keyPEM []byte
}

// CredentialFromServiceAccount parses the private key of sa.
// All failures are reported as core.CodeInvalidCredential.
func CredentialFromServiceAccount(sa *core.ServiceAccount) (*Credential, error) {
	if sa == nil {
		return nil, core.NewProviderError(core.CodeInvalidCredential, "service account must not be nil")
	}
	if strings.TrimSpace(sa.ClientEmail) == "" {
		return nil, core.NewProviderError(core.CodeInvalidCredential,
			`Service account object must contain a string "client_email" property.`)
	}
	if strings.TrimSpace(sa.ProjectID) == "" {
		return nil, core.NewProviderError(core.CodeInvalidCredential,
			`Service account object must contain a string "project_id" property.`)
	}

	keyPEM := []byte(sa.PrivateKey)
	key, err := jwt.ParseRSAPrivateKeyFromPEM(keyPEM)
	if err != nil {
		pErr := core.NewProviderError(core.CodeInvalidCredential, "Failed to parse private key")
		pErr.Wrapped = err
		return nil, pErr
	}

	return &Credential{
		ClientEmail: sa.ClientEmail,
		ProjectID:   sa.ProjectID,
		key:         key,
		keyPEM:      keyPEM,
	}, nil
}
