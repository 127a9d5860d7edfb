// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// OwnerGuest marks cart lines that belong to an unauthenticated session.
const OwnerGuest = "guest"

// Supported storefront locales
const (
	LocaleEnglish = "en"
	LocaleArabic  = "ar"
)

// LocalizedText holds the English and Arabic variants of a display string.
type LocalizedText struct {
	EN string `json:"en"`
	AR string `json:"ar"`
}

// In returns the variant for locale, falling back to English.
func (t LocalizedText) In(locale string) string {
	if strings.HasPrefix(locale, LocaleArabic) && t.AR != "" {
		return t.AR
	}
	return t.EN
}

func (t LocalizedText) Value() (driver.Value, error) {
	return json.Marshal(t)
}

func (t *LocalizedText) Scan(value interface{}) error {
	if value == nil {
		*t = LocalizedText{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("localized text: unsupported scan type")
	}

	return json.Unmarshal(raw, t)
}

// StorageEntry is one durable key/value record of a storefront session.
type StorageEntry struct {
	Namespace string    `json:"namespace" gorm:"size:64;primaryKey"`
	Key       string    `json:"key" gorm:"size:128;primaryKey"`
	Value     []byte    `json:"value" gorm:"type:bytea;not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`
}

func (StorageEntry) TableName() string {
	return "storefront_storage"
}
