package firebase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	oauthjwt "golang.org/x/oauth2/jwt"

	"github.com/darmiel/customtoken/internal/core"
)

const (
	Type = "firebase"

	DefaultEndpoint = "https://identitytoolkit.googleapis.com"
	DefaultTokenURL = "https://oauth2.googleapis.com/token"

	// DefaultTimeout bounds every lookup and token exchange unless Options.HTTPClient is set.
	DefaultTimeout = 15 * time.Second

	// emulatorToken is accepted by the auth emulator in place of an access token.
	emulatorToken = "owner"
)

var _ core.IdentityProvider = (*Provider)(nil)

// Options configures a Provider. Zero values fall back to the production endpoints.
type Options struct {
	// Endpoint is the Identity Toolkit base URL.
	Endpoint string

	// TokenURL is the OAuth2 token endpoint used to exchange the service account for an access token.
	TokenURL string

	// EmulatorHost is the host:port of a running auth emulator.
	// If set, Endpoint and TokenURL are ignored and no access token is requested.
	EmulatorHost string

	// TokenTTL is the lifetime of minted custom tokens. At most one hour.
	TokenTTL time.Duration

	HTTPClient *http.Client
}

// Provider creates Firebase auth clients for service accounts.
type Provider struct {
	name       string
	endpoint   string
	tokenURL   string
	emulated   bool
	tokenTTL   time.Duration
	httpClient *http.Client
	now        func() time.Time
}

func New(name string, opts Options) *Provider {
	p := &Provider{
		name:       name,
		endpoint:   strings.TrimRight(opts.Endpoint, "/"),
		tokenURL:   opts.TokenURL,
		tokenTTL:   opts.TokenTTL,
		httpClient: opts.HTTPClient,
		now:        time.Now,
	}
	if p.endpoint == "" {
		p.endpoint = DefaultEndpoint
	}
	if p.tokenURL == "" {
		p.tokenURL = DefaultTokenURL
	}
	if p.tokenTTL <= 0 || p.tokenTTL > MaxTokenTTL {
		p.tokenTTL = MaxTokenTTL
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.EmulatorHost != "" {
		p.endpoint = "http://" + strings.TrimRight(opts.EmulatorHost, "/") + "/identitytoolkit.googleapis.com"
		p.emulated = true
	}
	return p
}

func (p *Provider) Name() string {
	return p.name
}

// Auth returns a client signing with the given service account.
func (p *Provider) Auth(ctx context.Context, sa *core.ServiceAccount) (core.AuthClient, error) {
	cred, err := CredentialFromServiceAccount(sa)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Debug().
		Str("provider", p.name).
		Str("project_id", cred.ProjectID).
		Bool("emulated", p.emulated).
		Msg("created auth client")
	return &Client{provider: p, cred: cred, http: p.authorizedClient(ctx, cred)}, nil
}

// authorizedClient returns a client that attaches an access token of cred to every request.
// The token is exchanged once and reused until it expires.
func (p *Provider) authorizedClient(ctx context.Context, cred *Credential) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	if p.emulated {
		return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: emulatorToken, TokenType: "Bearer"}))
	}
	conf := &oauthjwt.Config{
		Email:      cred.ClientEmail,
		PrivateKey: cred.keyPEM,
		Scopes:     scopes,
		TokenURL:   p.tokenURL,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(nil, conf.TokenSource(ctx)))
}

// Client is an AuthClient bound to a single credential.
type Client struct {
	provider *Provider
	cred     *Credential
	http     *http.Client
}

var _ core.AuthClient = (*Client)(nil)
