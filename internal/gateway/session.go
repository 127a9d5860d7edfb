// internal/gateway/session.go
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/storage"
)

// Session is the Client bound to one shopper session. It implements the cart,
// coupon and address gateways.
type Session struct {
	client  *Client
	storage storage.Store
}

func (s *Session) token(ctx context.Context) string {
	token, err := storage.GetString(ctx, s.storage, storage.KeyToken)
	if err != nil {
		s.client.logger.WithError(err).Warn("Failed to read session token")
		return ""
	}
	return token
}

func (s *Session) FetchCart(ctx context.Context, ownerID, locale string) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := s.client.do(ctx, request{
		method:       http.MethodGet,
		path:         "/cart",
		query:        url.Values{"user_id": {ownerID}, "lang": {locale}},
		token:        s.token(ctx),
		cartEndpoint: true,
	}, &lines)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []models.CartLine{}
	}
	return lines, nil
}

func (s *Session) UpsertCartLine(ctx context.Context, line models.LineUpsert, locale string) error {
	return s.client.do(ctx, request{
		method:       http.MethodPost,
		path:         "/cart/items",
		query:        url.Values{"lang": {locale}},
		body:         line,
		token:        s.token(ctx),
		cartEndpoint: true,
	}, nil)
}

func (s *Session) ClearCart(ctx context.Context, ownerID, locale, authToken string) error {
	return s.client.do(ctx, request{
		method:       http.MethodDelete,
		path:         "/cart",
		query:        url.Values{"user_id": {ownerID}, "lang": {locale}},
		token:        authToken,
		cartEndpoint: true,
	}, nil)
}

type applyCouponRequest struct {
	Code      string `json:"code"`
	CountryID string `json:"country_id,omitempty"`
}

// ApplyCoupon validates code remotely. The raw payload is returned for persistence.
func (s *Session) ApplyCoupon(ctx context.Context, code, countryID string) (models.CouponResult, error) {
	var raw json.RawMessage
	err := s.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/coupons/apply",
		body:   applyCouponRequest{Code: code, CountryID: countryID},
		token:  s.token(ctx),
	}, &raw)
	if err != nil {
		return models.CouponResult{}, err
	}

	var payload struct {
		Amount float64 `json:"amount"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.CouponResult{}, fmt.Errorf("failed to decode coupon: %w", err)
	}
	return models.CouponResult{Amount: payload.Amount, Raw: raw}, nil
}

func (s *Session) FetchCoupons(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := s.client.do(ctx, request{
		method: http.MethodGet,
		path:   "/coupons",
		token:  s.token(ctx),
	}, &coupons)
	if err != nil {
		return nil, err
	}
	if coupons == nil {
		coupons = []models.Coupon{}
	}
	return coupons, nil
}

func (s *Session) SetDefaultAddress(ctx context.Context, addressID string) error {
	return s.client.do(ctx, request{
		method: http.MethodPut,
		path:   "/addresses/" + url.PathEscape(addressID) + "/default",
		token:  s.token(ctx),
	}, nil)
}
