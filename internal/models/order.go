// internal/models/order.go
package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// OrderRecord is the archived form of a completed checkout.
type OrderRecord struct {
	OrderID       string            `json:"order_id" gorm:"size:64;primaryKey"`
	OwnerID       string            `json:"owner_id" gorm:"size:64;index"`
	Locale        string            `json:"locale" gorm:"size:8"`
	PaymentMethod string            `json:"payment_method" gorm:"size:16"`
	AddressID     string            `json:"address_id" gorm:"size:64"`
	CouponCode    string            `json:"coupon_code" gorm:"size:64"`
	ProductIDs    pq.StringArray    `json:"product_ids" gorm:"type:text[]"`
	Subtotal      decimal.Decimal   `json:"subtotal" gorm:"type:numeric(14,2)"`
	Total         decimal.Decimal   `json:"total" gorm:"type:numeric(14,2)"`
	CompletedAt   time.Time         `json:"completed_at" gorm:"index"`
	Lines         []OrderLineRecord `json:"lines" gorm:"foreignKey:OrderID;references:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderRecord) TableName() string {
	return "storefront_orders"
}

type OrderLineRecord struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	OrderID     string         `json:"order_id" gorm:"size:64;index;not null"`
	ProductID   string         `json:"product_id" gorm:"size:64;not null"`
	Name        LocalizedText  `json:"name" gorm:"type:jsonb"`
	Description LocalizedText  `json:"description" gorm:"type:jsonb"`
	Images      pq.StringArray `json:"images" gorm:"type:text[]"`
	UnitPrice   string         `json:"unit_price" gorm:"size:32"`
	Quantity    int            `json:"quantity"`
}

func (OrderLineRecord) TableName() string {
	return "storefront_order_lines"
}

// NewOrderRecord flattens a completed order for archiving.
func NewOrderRecord(order OrderSnapshot) OrderRecord {
	record := OrderRecord{
		OrderID:       order.OrderID,
		OwnerID:       order.OwnerID,
		Locale:        order.Locale,
		PaymentMethod: order.PaymentMethod,
		AddressID:     order.AddressID,
		CouponCode:    order.CouponCode,
		ProductIDs:    make(pq.StringArray, 0, len(order.Lines)),
		Subtotal:      order.Totals.Subtotal,
		Total:         order.Totals.DiscountedTotal,
		CompletedAt:   order.CompletedAt,
		Lines:         make([]OrderLineRecord, 0, len(order.Lines)),
	}

	for _, line := range order.Lines {
		record.ProductIDs = append(record.ProductIDs, line.ProductID)

		var images pq.StringArray
		if line.Image != "" {
			images = pq.StringArray{line.Image}
		}
		record.Lines = append(record.Lines, OrderLineRecord{
			OrderID:     order.OrderID,
			ProductID:   line.ProductID,
			Name:        line.Name,
			Description: line.Description,
			Images:      images,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		})
	}
	return record
}
