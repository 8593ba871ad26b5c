package core

import "context"

// IdentityProvider turns a ServiceAccount into an AuthClient.
// Implementations: Firebase (Identity Toolkit).
type IdentityProvider interface {
	// Name returns the identifier of this provider.
	Name() string

	// Auth builds the credential for the given service account and returns a client bound to it.
	Auth(ctx context.Context, sa *ServiceAccount) (AuthClient, error)
}

// AuthClient performs user lookups and token minting on behalf of a single service account.
type AuthClient interface {
	// UserExists returns nil if the user exists, or a *ProviderError with CodeUserNotFound otherwise.
	UserExists(ctx context.Context, uid string) error

	// IssueToken mints a custom token for the given user.
	IssueToken(ctx context.Context, uid string, claims map[string]any) (string, error)
}

// Tracker reports usage to an analytics collector.
type Tracker interface {
	Pageview(ctx context.Context, p Pageview) error
	Event(ctx context.Context, e Event) error
	Exception(ctx context.Context, e Exception) error

	// SetUserID attaches a user identifier to subsequent hits.
	SetUserID(id string)
}

// Pageview describes a tracked endpoint view.
type Pageview struct {
	DocumentHost  string
	DocumentPath  string
	DocumentTitle string

	// Deployment metadata; empty values are not sent.
	Branch string
	Commit string
	Env    string
}

// Event describes a tracked action.
type Event struct {
	Category string
	Action   string
	Label    string
	Value    int
}

// Exception describes a tracked failure.
type Exception struct {
	Description string
	Fatal       bool
}
