// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Money
	KeyPriceNotAvailable = "money.not_available"
	KeyCurrencySuffix    = "money.currency"

	// Session
	KeySessionLoggedIn  = "session.logged_in"
	KeySessionLoggedOut = "session.logged_out"
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"

	// Cart
	KeyCartInvalidOwner    = "cart.invalid_owner"
	KeyCartSyncUnsupported = "cart.sync_unsupported"
	KeyCartOperationFailed = "cart.operation_failed"
	KeyCartItemAdded       = "cart.item_added"
	KeyCartItemUpdated     = "cart.item_updated"
	KeyCartItemRemoved     = "cart.item_removed"
	KeyCartCleared         = "cart.cleared"
	KeyCartEmpty           = "cart.empty"

	// Checkout
	KeyCouponApplied     = "coupon.applied"
	KeyCouponApplyFailed = "coupon.apply_failed"
	KeyCouponRequired    = "coupon.required"
	KeyAddressUpdated    = "address.updated"
	KeyAddressFailed     = "address.failed"
	KeyOrderCompleted    = "order.completed"
	KeyOrderNotFound     = "order.not_found"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// Rate limiting
	KeyRateLimited = "rate.limited"
)
