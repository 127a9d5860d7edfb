// internal/models/product.go
package models

// ProductSnapshot is the catalog product handed to the cart when a shopper adds it.
// Name, description, price and image are frozen into the line at add time.
type ProductSnapshot struct {
	ID          string        `json:"id" validate:"required,reference"`
	Name        LocalizedText `json:"name"`
	Description LocalizedText `json:"description"`
	Price       string        `json:"price" validate:"required,price"`
	Images      []string      `json:"images"`
}

// FirstImage returns the product's primary image reference, if any.
func (p ProductSnapshot) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
