package firebase

import (
	"context"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/darmiel/customtoken/internal/core"
)

const (
	// Audience of custom tokens accepted by signInWithCustomToken.
	Audience = "https://identitytoolkit.googleapis.com/google.identity.identitytoolkit.v1.IdentityToolkit"

	MaxTokenTTL  = time.Hour
	MaxUIDLength = 128
)

// reservedClaims may not be used as developer claims.
var reservedClaims = []string{
	"acr", "amr", "at_hash", "aud", "auth_time", "azp", "cnf", "c_hash",
	"exp", "firebase", "iat", "iss", "jti", "nbf", "nonce", "sub",
}

// IssueToken mints a custom token for uid, signed with the client's service account.
func (c *Client) IssueToken(_ context.Context, uid string, claims map[string]any) (string, error) {
	if uid == "" || len(uid) > MaxUIDLength {
		return "", core.NewProviderError(core.CodeInvalidArgument,
			"`uid` argument must be a non-empty string uid with at most %d characters", MaxUIDLength)
	}
	for key := range claims {
		if slices.Contains(reservedClaims, key) {
			return "", core.NewProviderError(core.CodeInvalidArgument,
				"Developer claim %q is reserved and cannot be specified", key)
		}
	}

	now := c.provider.now()
	mapClaims := jwt.MapClaims{
		"iss": c.cred.ClientEmail,
		"sub": c.cred.ClientEmail,
		"aud": Audience,
		"iat": now.Unix(),
		"exp": now.Add(c.provider.tokenTTL).Unix(),
		"uid": uid,
	}
	if len(claims) > 0 {
		mapClaims["claims"] = claims
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, mapClaims).SignedString(c.cred.key)
	if err != nil {
		pErr := core.NewProviderError(core.CodeInternalError, "Failed to sign custom token")
		pErr.Wrapped = err
		return "", pErr
	}
	return signed, nil
}
