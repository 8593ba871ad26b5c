// Package apierror builds the error envelope every failed request is answered with.
package apierror

import (
	"encoding/json"
	"errors"
	"maps"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// DefaultMessage is used when no cause was given.
const DefaultMessage = "Error"

// Category is the machine-readable error class derived from a status code.
type Category struct {
	// Name is the type name, e.g. "NotFound".
	Name string
	// Class is the tag sent to clients, e.g. "not-found".
	Class string
}

// GeneralError is used for every status not listed in categories, including 500 itself.
var GeneralError = Category{Name: "GeneralError", Class: "general-error"}

// categories maps known HTTP status codes to their category.
// New status codes only need a new entry here.
var categories = map[int]Category{
	http.StatusBadRequest:          {Name: "BadRequest", Class: "bad-request"},
	http.StatusUnauthorized:        {Name: "NotAuthenticated", Class: "not-authenticated"},
	http.StatusPaymentRequired:     {Name: "PaymentError", Class: "payment-error"},
	http.StatusForbidden:           {Name: "Forbidden", Class: "forbidden"},
	http.StatusNotFound:            {Name: "NotFound", Class: "not-found"},
	http.StatusMethodNotAllowed:    {Name: "MethodNotAllowed", Class: "method-not-allowed"},
	http.StatusNotAcceptable:       {Name: "NotAcceptable", Class: "not-acceptable"},
	http.StatusRequestTimeout:      {Name: "Timeout", Class: "timeout"},
	http.StatusConflict:            {Name: "Conflict", Class: "conflict"},
	http.StatusLengthRequired:      {Name: "LengthRequired", Class: "length-required"},
	http.StatusUnprocessableEntity: {Name: "Unprocessable", Class: "unprocessable"},
	http.StatusTooManyRequests:     {Name: "TooManyRequests", Class: "too-many-requests"},
	http.StatusNotImplemented:      {Name: "NotImplemented", Class: "not-implemented"},
	http.StatusBadGateway:          {Name: "BadGateway", Class: "bad-gateway"},
	http.StatusServiceUnavailable:  {Name: "Unavailable", Class: "unavailable"},
}

// Lookup returns the category and effective status for a status code.
// Unknown codes resolve to GeneralError with status 500.
func Lookup(status int) (Category, int) {
	if c, ok := categories[status]; ok {
		return c, status
	}
	return GeneralError, http.StatusInternalServerError
}

// Error is the normalized error shape. It has no behaviour besides implementing error
// and is sent to clients as-is.
type Error struct {
	Name     string         `json:"name"`
	Category string         `json:"category"`
	Status   int            `json:"status"`
	Message  string         `json:"message"`
	Data     map[string]any `json:"data"`
}

func (e *Error) Error() string {
	return e.Message
}

// With returns a copy of the error with key set in Data.
func (e *Error) With(key string, value any) *Error {
	cpy := *e
	cpy.Data = make(map[string]any, len(e.Data)+1)
	maps.Copy(cpy.Data, e.Data)
	cpy.Data[key] = value
	return &cpy
}

// Normalize converts a cause, auxiliary data and a status into an *Error.
//
// cause may be an error, a string or nil. status may be any integer or float kind,
// a json.Number or a numeric string; everything else resolves to 500.
// Normalize never fails.
func Normalize(cause any, data map[string]any, status any) *Error {
	code, ok := parseStatus(status)
	if !ok {
		code = http.StatusInternalServerError
	}
	category, code := Lookup(code)

	if data == nil {
		data = map[string]any{}
	}

	return &Error{
		Name:     category.Name,
		Category: category.Class,
		Status:   code,
		Message:  messageOf(cause),
		Data:     data,
	}
}

// New is a shorthand for Normalize with an error message.
func New(status int, message string, data map[string]any) *Error {
	return Normalize(message, data, status)
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func messageOf(cause any) string {
	switch c := cause.(type) {
	case nil:
		return DefaultMessage
	case error:
		if msg := c.Error(); msg != "" {
			return msg
		}
	case string:
		if c != "" {
			return c
		}
	case interface{ String() string }:
		if msg := c.String(); msg != "" {
			return msg
		}
	}
	return DefaultMessage
}

func parseStatus(status any) (int, bool) {
	switch s := status.(type) {
	case nil:
		return http.StatusInternalServerError, true
	case int:
		return s, true
	case int8:
		return int(s), true
	case int16:
		return int(s), true
	case int32:
		return int(s), true
	case int64:
		return int(s), true
	case uint:
		return int(s), true
	case uint8:
		return int(s), true
	case uint16:
		return int(s), true
	case uint32:
		return int(s), true
	case uint64:
		if s > math.MaxInt32 {
			return 0, false
		}
		return int(s), true
	case float32:
		return fromFloat(float64(s))
	case float64:
		return fromFloat(s)
	case json.Number:
		return parseStatus(s.String())
	case string:
		s = strings.TrimSpace(s)
		if v, err := strconv.Atoi(s); err == nil {
			return v, true
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return fromFloat(v)
		}
	}
	return 0, false
}

func fromFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
