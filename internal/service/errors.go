package service

import (
	"errors"
	"net/http"

	"github.com/darmiel/customtoken/internal/apierror"
	"github.com/darmiel/customtoken/internal/core"
)

// providerStatus maps provider error codes to HTTP status codes. Unlisted codes map to 500.
var providerStatus = map[string]int{
	core.CodeInvalidCredential: http.StatusUnauthorized,
	core.CodeUserNotFound:      http.StatusNotFound,
}

// Normalize converts any error returned by the service into the client-facing envelope.
//
// *apierror.Error values pass through unchanged. Provider errors keep their message
// and expose their code, uid and developerClaims under data.errors.
func Normalize(err error) *apierror.Error {
	if apiErr, ok := apierror.As(err); ok {
		return apiErr
	}

	var pErr *core.ProviderError
	if errors.As(err, &pErr) {
		status, ok := providerStatus[pErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}

		details := map[string]any{"code": pErr.Code}
		for _, key := range []string{"developerClaims", "uid"} {
			if v, ok := pErr.Data[key]; ok {
				details[key] = v
			}
		}
		return apierror.Normalize(pErr.Message, map[string]any{
			"codePrefix": pErr.Prefix(),
			"errors":     details,
		}, status)
	}

	return apierror.Normalize(err, nil, http.StatusInternalServerError)
}
