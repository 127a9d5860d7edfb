// internal/cart/errors.go
package cart

import (
	"errors"
	"strings"

	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/models"
)

var (
	// ErrInvalidOwner means the remote rejected the owner reference (stale or unknown user).
	ErrInvalidOwner = errors.New("cart: remote rejected the cart owner")
	// ErrSyncUnsupported means the remote sync endpoint does not honour the contract.
	ErrSyncUnsupported = errors.New("cart: remote cart sync is not supported")

	ErrUnknownAction = errors.New("cart: unknown action")
)

// remoteMessager is implemented by gateway errors that carry the server's own message.
type remoteMessager interface {
	RemoteMessage() string
}

// Classify sorts a failure into the cart error taxonomy.
func Classify(err error) models.ErrorKind {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidOwner):
		return models.ErrorKindInvalidOwner
	case errors.Is(err, ErrSyncUnsupported):
		return models.ErrorKindSyncUnsupported
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid user"),
		strings.Contains(msg, "invalid owner"),
		strings.Contains(msg, "invalid user_id"),
		strings.Contains(msg, "user not found"):
		return models.ErrorKindInvalidOwner
	case strings.Contains(msg, "not supported"),
		strings.Contains(msg, "unsupported"):
		return models.ErrorKindSyncUnsupported
	}

	return models.ErrorKindGeneric
}

// Describe classifies err and renders its message in locale.
func Describe(err error, locale string) *models.CartError {
	if err == nil {
		return nil
	}

	kind := Classify(err)
	switch kind {
	case models.ErrorKindInvalidOwner:
		return &models.CartError{Kind: kind, Message: i18n.T(locale, i18n.KeyCartInvalidOwner)}
	case models.ErrorKindSyncUnsupported:
		return &models.CartError{Kind: kind, Message: i18n.T(locale, i18n.KeyCartSyncUnsupported)}
	}

	msg := ""
	var rm remoteMessager
	if errors.As(err, &rm) {
		msg = rm.RemoteMessage()
	}
	if msg == "" {
		msg = err.Error()
	}
	if strings.TrimSpace(msg) == "" {
		msg = i18n.T(locale, i18n.KeyCartOperationFailed)
	}

	return &models.CartError{Kind: kind, Message: msg}
}
