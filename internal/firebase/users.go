package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/darmiel/customtoken/internal/core"
	"github.com/darmiel/customtoken/internal/correlation"
)

var scopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/identitytoolkit",
	"https://www.googleapis.com/auth/userinfo.email",
}

type lookupRequest struct {
	LocalID []string `json:"localId"`
}

type lookupResponse struct {
	Users []struct {
		LocalID string `json:"localId"`
	} `json:"users"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// UserExists looks up uid through the accounts:lookup endpoint.
func (c *Client) UserExists(ctx context.Context, uid string) error {
	data, err := json.Marshal(lookupRequest{LocalID: []string{uid}})
	if err != nil {
		return internalError("marshalling lookup request", err)
	}

	u := fmt.Sprintf("%s/v1/projects/%s/accounts:lookup", c.provider.endpoint, url.PathEscape(c.cred.ProjectID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return internalError("creating lookup request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if correlationID := correlation.FromContext(ctx); correlationID != "" {
		req.Header.Set(correlation.Header, correlationID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return rejectedCredential(retrieveErr)
		}
		return internalError("performing lookup request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return internalError("reading lookup response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message == "USER_NOT_FOUND" {
			return userNotFound(uid)
		}
		return core.NewProviderError(core.CodeInternalError,
			"unexpected status code %d from user lookup: %s", resp.StatusCode, string(body))
	}

	var lookup lookupResponse
	if err := json.Unmarshal(body, &lookup); err != nil {
		return internalError("decoding lookup response", err)
	}
	for _, user := range lookup.Users {
		if user.LocalID == uid {
			return nil
		}
	}
	return userNotFound(uid)
}

func userNotFound(uid string) *core.ProviderError {
	return core.NewProviderError(core.CodeUserNotFound,
		"There is no user record corresponding to the provided identifier: %s", uid)
}

// rejectedCredential reports a service account the token endpoint refused to exchange,
// e.g. a revoked key or a client_email that does not belong to the key.
func rejectedCredential(err *oauth2.RetrieveError) *core.ProviderError {
	reason, description := err.ErrorCode, err.ErrorDescription
	if reason == "" {
		// the jwt-bearer flow leaves the RFC 6749 fields unparsed
		var body struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if json.Unmarshal(err.Body, &body) == nil {
			reason, description = body.Error, body.ErrorDescription
		}
	}
	if description != "" {
		reason += ": " + description
	}
	if reason == "" && err.Response != nil {
		reason = err.Response.Status
	}
	pErr := core.NewProviderError(core.CodeInvalidCredential,
		"Failed to fetch a valid Google OAuth2 access token for the service account: %s", reason)
	pErr.Wrapped = err
	return pErr
}

func internalError(msg string, err error) *core.ProviderError {
	pErr := core.NewProviderError(core.CodeInternalError, "%s", msg)
	pErr.Wrapped = err
	return pErr
}
