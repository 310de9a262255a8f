package google

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// ErrNotSignedIn indicates a request was attempted with an unbound credential.
var ErrNotSignedIn = errors.New("not signed in")

var ErrEmptyResult = errors.New("empty result")

var ErrInvalidGrid = errors.New("invalid grid")

// StatusCode identifies why an interactive sign-in did not produce an identity.
type StatusCode int

const (
	StatusNetworkError     StatusCode = 7
	StatusInternalError    StatusCode = 8
	StatusSignInFailed     StatusCode = 12500
	StatusSignInCancelled  StatusCode = 12501
	StatusSignInInProgress StatusCode = 12502
)

func (c StatusCode) String() string {
	switch c {
	case StatusNetworkError:
		return "network error"
	case StatusInternalError:
		return "internal error"
	case StatusSignInFailed:
		return "sign in failed"
	case StatusSignInCancelled:
		return "sign in cancelled"
	case StatusSignInInProgress:
		return "sign in in progress"
	default:
		return fmt.Sprintf("status %d", int(c))
	}
}

// AuthError is the failure outcome of an interactive sign-in.
type AuthError struct {
	Code StatusCode
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v (code=%d)", e.Code, int(e.Code))
	}
	return fmt.Sprintf("%v (code=%d): %v", e.Code, int(e.Code), e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

type Kind int

const (
	KindTransport Kind = iota
	KindAuthorization
	KindDataShape
)

func (k Kind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindDataShape:
		return "data shape"
	default:
		return "transport"
	}
}

type RequestError struct {
	Op    string // "read" or "append"
	Range string
	Kind  Kind
	Err   error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v error: %v", e.Op, e.Range, e.Kind, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsAuthorization reports whether err is a request that failed for lack of
// a valid credential.
func IsAuthorization(err error) bool {
	var rerr *RequestError
	return errors.As(err, &rerr) && rerr.Kind == KindAuthorization
}

func newRequestError(op string, rng Range, err error) *RequestError {
	return &RequestError{
		Op:    op,
		Range: rng.String(),
		Kind:  classify(err),
		Err:   err,
	}
}

func classify(err error) Kind {
	var gerr *googleapi.Error
	var rerr *oauth2.RetrieveError

	switch {
	case errors.Is(err, ErrNotSignedIn):
		return KindAuthorization
	case errors.Is(err, ErrEmptyResult), errors.Is(err, ErrInvalidGrid):
		return KindDataShape
	case errors.As(err, &gerr) && (gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden):
		return KindAuthorization
	case errors.As(err, &rerr):
		return KindAuthorization
	default:
		return KindTransport
	}
}
