package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of fractional digits of the price column.
const PriceScale = 2

// Product represents a single row of the products table.
type Product struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Image     string          `json:"image" db:"image"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// MarshalJSON renders the price with the column's fixed scale, so a stored
// 10.00 goes out as "10.00" rather than "10".
func (p Product) MarshalJSON() ([]byte, error) {
	type row Product
	return json.Marshal(struct {
		row
		Price string `json:"price"`
	}{
		row:   row(p),
		Price: p.Price.StringFixed(PriceScale),
	})
}

// ProductInput is the request payload for creating or replacing a product.
// Price is a pointer so an absent field can be told apart from zero.
type ProductInput struct {
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price"`
	Image string           `json:"image"`
}

// Complete reports whether every field carries a value. Empty strings, an
// absent or null price and a zero price count as missing.
func (in ProductInput) Complete() bool {
	if in.Name == "" || in.Image == "" {
		return false
	}
	return in.Price != nil && !in.Price.IsZero()
}
