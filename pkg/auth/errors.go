package auth

import (
	"errors"
	"fmt"
)

// Kind classifies every error returned by this package.
type Kind int

const (
	// KindConfiguration covers missing credentials and unknown or unregistered providers.
	KindConfiguration Kind = iota + 1
	// KindTokenExchange means the authorization code could not be traded for a token.
	KindTokenExchange
	// KindUserInfo means the profile could not be fetched or parsed.
	KindUserInfo
	// KindOAuth wraps any other failure during a sign-in flow.
	KindOAuth
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindTokenExchange:
		return "TokenExchangeError"
	case KindUserInfo:
		return "UserInfoError"
	case KindOAuth:
		return "OAuthError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinels matching each Kind with errors.Is.
var (
	ErrConfiguration = errors.New("oauth configuration error")
	ErrTokenExchange = errors.New("failed to exchange code for token")
	ErrUserInfo      = errors.New("failed to get user info")
	ErrOAuthFlow     = errors.New("oauth flow failed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindTokenExchange:
		return ErrTokenExchange
	case KindUserInfo:
		return ErrUserInfo
	case KindOAuth:
		return ErrOAuthFlow
	}
	return nil
}

// Error is the single error type surfaced by providers and the handler.
type Error struct {
	Kind     Kind
	Provider ProviderName // empty when no provider was resolved
	Message  string
	Err      error // underlying cause, may be nil
}

func newError(kind Kind, provider ProviderName, message string, cause error) *Error {
	return &Error{Kind: kind, Provider: provider, Message: message, Err: cause}
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the Kind of err, or 0 if err did not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
