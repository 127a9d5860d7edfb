// internal/models/cart.go
package models

// CartLine is one product's presence in a cart.
type CartLine struct {
	ID          string        `json:"id"`
	ProductID   string        `json:"product_id"`
	OwnerID     string        `json:"owner_id"`
	Name        LocalizedText `json:"name"`
	Description LocalizedText `json:"description"`
	UnitPrice   string        `json:"unit_price"`
	Image       string        `json:"image,omitempty"`
	Quantity    int           `json:"quantity"`
}

// IsGuest reports whether the line was added before the shopper logged in.
func (l CartLine) IsGuest() bool {
	return l.OwnerID == "" || l.OwnerID == OwnerGuest
}

// LineUpsert is the remote write for a single line. Quantity 0 removes the line.
type LineUpsert struct {
	OwnerID   string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type ErrorKind string

const (
	ErrorKindInvalidOwner    ErrorKind = "invalid_owner"
	ErrorKindSyncUnsupported ErrorKind = "sync_unsupported"
	ErrorKindGeneric         ErrorKind = "generic"
)

// CartError is the classified failure surfaced on CartState. Message is already localized.
type CartError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// CartState is the store's public state.
type CartState struct {
	Lines     []CartLine `json:"lines"`
	IsLoading bool       `json:"is_loading"`
	Error     *CartError `json:"error,omitempty"`
}

// CloneLines copies a line list so callers can't alias store state.
func CloneLines(lines []CartLine) []CartLine {
	if lines == nil {
		return []CartLine{}
	}
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}
