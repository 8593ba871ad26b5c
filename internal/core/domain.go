package core

// CredentialBag holds the raw header values a caller sent along with a request.
// Keys are lower-cased header names.
type CredentialBag map[string]string

// ServiceAccount is the validated identity used to sign custom tokens.
// It is built fresh for every request and never mutated afterwards.
type ServiceAccount struct {
	// ClientEmail is the service account e-mail, used as issuer and subject of minted tokens.
	ClientEmail string `json:"client_email" mapstructure:"client_email"`

	// PrivateKey is the PEM encoded RSA private key of the service account.
	PrivateKey string `json:"private_key" mapstructure:"private_key"`

	// ProjectID identifies the project the account belongs to.
	ProjectID string `json:"project_id" mapstructure:"project_id"`
}

// TokenRequest is a single entry of a batch token request.
type TokenRequest struct {
	// UID identifies the user to mint a token for.
	// Any JSON primitive is accepted; blank values cause the entry to be skipped.
	UID any `json:"uid" yaml:"uid"`

	// DeveloperClaims are optional claims embedded into the minted token.
	DeveloperClaims map[string]any `json:"developerClaims,omitempty" yaml:"developerClaims,omitempty"`
}

// TokenResult is the outcome of a successful TokenRequest.
type TokenResult struct {
	// UID is the trimmed user identifier.
	UID string `json:"uid"`

	// DeveloperClaims are the claims of the originating request.
	DeveloperClaims map[string]any `json:"developerClaims,omitempty"`

	// Token is the signed custom token.
	Token string `json:"token"`
}
