package firebase

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darmiel/customtoken/internal/core"
)

func testServiceAccount(t *testing.T) (*core.ServiceAccount, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return &core.ServiceAccount{
		ClientEmail: "svc@project.iam.gserviceaccount.com",
		PrivateKey:  string(keyPEM),
		ProjectID:   "project",
	}, key
}

func providerErrorCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	pErr, ok := err.(*core.ProviderError)
	require.True(t, ok, "expected *core.ProviderError, got %T", err)
	return pErr.Code
}

func TestCredentialFromServiceAccount(t *testing.T) {
	sa, _ := testServiceAccount(t)

	cred, err := CredentialFromServiceAccount(sa)
	require.NoError(t, err)
	assert.Equal(t, sa.ClientEmail, cred.ClientEmail)
	assert.Equal(t, sa.ProjectID, cred.ProjectID)

	tests := []struct {
		name   string
		mutate func(*core.ServiceAccount)
	}{
		{name: "garbage key", mutate: func(s *core.ServiceAccount) { s.PrivateKey = "private_key" }},
		{name: "escaped key", mutate: func(s *core.ServiceAccount) { s.PrivateKey = strings.ReplaceAll(s.PrivateKey, "\n", `\n`) }},
		{name: "missing email", mutate: func(s *core.ServiceAccount) { s.ClientEmail = "" }},
		{name: "missing project", mutate: func(s *core.ServiceAccount) { s.ProjectID = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpy := *sa
			tt.mutate(&cpy)
			_, err := CredentialFromServiceAccount(&cpy)
			assert.Equal(t, core.CodeInvalidCredential, providerErrorCode(t, err))
		})
	}
}

func TestClient_IssueToken(t *testing.T) {
	sa, key := testServiceAccount(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	p := New("firebase", Options{})
	p.now = func() time.Time { return now }

	client, err := p.Auth(context.Background(), sa)
	require.NoError(t, err)

	signed, err := client.IssueToken(context.Background(), "u1", map[string]any{"r": 1})
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(tok *jwt.Token) (any, error) {
		require.Equal(t, jwt.SigningMethodRS256.Alg(), tok.Method.Alg())
		return &key.PublicKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)

	assert.Equal(t, sa.ClientEmail, claims["iss"])
	assert.Equal(t, sa.ClientEmail, claims["sub"])
	assert.Equal(t, Audience, claims["aud"])
	assert.Equal(t, "u1", claims["uid"])
	assert.Equal(t, map[string]any{"r": float64(1)}, claims["claims"])
	assert.Equal(t, float64(now.Unix()), claims["iat"])
	assert.Equal(t, float64(now.Add(time.Hour).Unix()), claims["exp"])
}

func TestClient_IssueToken_WithoutClaims(t *testing.T) {
	sa, key := testServiceAccount(t)
	client, err := New("firebase", Options{}).Auth(context.Background(), sa)
	require.NoError(t, err)

	signed, err := client.IssueToken(context.Background(), "u1", nil)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	})
	require.NoError(t, err)
	assert.NotContains(t, claims, "claims")
}

func TestClient_IssueToken_InvalidArguments(t *testing.T) {
	sa, _ := testServiceAccount(t)
	client, err := New("firebase", Options{}).Auth(context.Background(), sa)
	require.NoError(t, err)

	_, err = client.IssueToken(context.Background(), strings.Repeat("x", MaxUIDLength+1), nil)
	assert.Equal(t, core.CodeInvalidArgument, providerErrorCode(t, err))

	_, err = client.IssueToken(context.Background(), "u1", map[string]any{"aud": "other"})
	assert.Equal(t, core.CodeInvalidArgument, providerErrorCode(t, err))
}

func TestNew_ClampsTTL(t *testing.T) {
	assert.Equal(t, MaxTokenTTL, New("f", Options{TokenTTL: 48 * time.Hour}).tokenTTL)
	assert.Equal(t, 10*time.Minute, New("f", Options{TokenTTL: 10 * time.Minute}).tokenTTL)
}

func lookupHandler(t *testing.T, wantAuth string, existing ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/projects/project/accounts:lookup"), r.URL.Path)
		assert.Equal(t, wantAuth, r.Header.Get("Authorization"))

		var req lookupRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := map[string]any{"kind": "identitytoolkit#GetAccountInfoResponse"}
		var users []map[string]any
		for _, id := range req.LocalID {
			for _, e := range existing {
				if id == e {
					users = append(users, map[string]any{"localId": id})
				}
			}
		}
		if len(users) > 0 {
			resp["users"] = users
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestClient_UserExists_Emulator(t *testing.T) {
	srv := httptest.NewServer(lookupHandler(t, "Bearer owner", "u1"))
	defer srv.Close()

	sa, _ := testServiceAccount(t)
	p := New("firebase", Options{EmulatorHost: strings.TrimPrefix(srv.URL, "http://")})
	client, err := p.Auth(context.Background(), sa)
	require.NoError(t, err)

	assert.NoError(t, client.UserExists(context.Background(), "u1"))
	assert.Equal(t, core.CodeUserNotFound, providerErrorCode(t, client.UserExists(context.Background(), "u2")))
}

func TestClient_UserExists_ServiceAccountToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.Form.Get("grant_type"))
		assert.NotEmpty(t, r.Form.Get("assertion"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access","token_type":"Bearer","expires_in":3600}`))
	})
	mux.Handle("/", lookupHandler(t, "Bearer access", "u1"))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sa, _ := testServiceAccount(t)
	p := New("firebase", Options{Endpoint: srv.URL, TokenURL: srv.URL + "/token"})
	client, err := p.Auth(context.Background(), sa)
	require.NoError(t, err)

	assert.NoError(t, client.UserExists(context.Background(), "u1"))
}

func TestClient_UserExists_ReusesAccessToken(t *testing.T) {
	var exchanges atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, _ *http.Request) {
		exchanges.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access","token_type":"Bearer","expires_in":3600}`))
	})
	mux.Handle("/", lookupHandler(t, "Bearer access", "u1"))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sa, _ := testServiceAccount(t)
	client, err := New("firebase", Options{Endpoint: srv.URL, TokenURL: srv.URL + "/token"}).
		Auth(context.Background(), sa)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.UserExists(context.Background(), "u1"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), exchanges.Load())
}

func TestClient_UserExists_RejectedServiceAccount(t *testing.T) {
	var lookups atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid JWT Signature."}`))
	})
	mux.HandleFunc("/", func(http.ResponseWriter, *http.Request) {
		lookups.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sa, _ := testServiceAccount(t)
	client, err := New("firebase", Options{Endpoint: srv.URL, TokenURL: srv.URL + "/token"}).
		Auth(context.Background(), sa)
	require.NoError(t, err)

	err = client.UserExists(context.Background(), "u1")
	assert.Equal(t, core.CodeInvalidCredential, providerErrorCode(t, err))
	assert.Contains(t, err.Error(), "invalid_grant: Invalid JWT Signature.")
	assert.Zero(t, lookups.Load(), "no lookup without an access token")
}

func TestNew_DefaultHTTPClientHasTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New("f", Options{}).httpClient.Timeout)

	custom := &http.Client{}
	assert.Same(t, custom, New("f", Options{HTTPClient: custom}).httpClient)
}

func TestClient_UserExists_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{name: "user not found error", status: 400, body: `{"error":{"code":400,"message":"USER_NOT_FOUND"}}`, wantCode: core.CodeUserNotFound},
		{name: "server error", status: 500, body: `{"error":{"code":500,"message":"INTERNAL"}}`, wantCode: core.CodeInternalError},
		{name: "malformed body", status: 200, body: `{`, wantCode: core.CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			sa, _ := testServiceAccount(t)
			client, err := New("firebase", Options{EmulatorHost: strings.TrimPrefix(srv.URL, "http://")}).
				Auth(context.Background(), sa)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCode, providerErrorCode(t, client.UserExists(context.Background(), "u1")))
		})
	}
}
