package models

import (
	"strings"
	"time"
)

// PurchaseSource records how a purchase entered the system.
type PurchaseSource string

const (
	SourceManual  PurchaseSource = "manual"
	SourceReceipt PurchaseSource = "receipt"
)

// DefaultCurrency is stored when a purchase does not name one. Currencies are
// carried as given and never converted.
const DefaultCurrency = "BRL"

// PurchaseEvent is one recorded purchase of one product by one user.
// Events for a (user, product) key are read back ordered by purchased_at, id.
type PurchaseEvent struct {
	ID          string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID      string         `json:"user_id" gorm:"not null;index:idx_purchase_events_key,priority:1" validate:"required,max=128"`
	ProductName string         `json:"product_name" gorm:"not null;index:idx_purchase_events_key,priority:2" validate:"required,max=200"`
	PurchasedAt time.Time      `json:"purchased_at" gorm:"not null;index:idx_purchase_events_key,priority:3" validate:"required"`
	Quantity    *float64       `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Price       *float64       `json:"price,omitempty" validate:"omitempty,gte=0"`
	Unit        *string        `json:"unit,omitempty" validate:"omitempty,max=32"`
	Category    *string        `json:"category,omitempty" validate:"omitempty,max=64"`
	Currency    string         `json:"currency" gorm:"size:3;not null" validate:"required,len=3"`
	Source      PurchaseSource `json:"source" gorm:"size:16;not null" validate:"required,oneof=manual receipt"`
	ReceiptID   *string        `json:"receipt_id,omitempty" gorm:"index"`
	Notes       *string        `json:"notes,omitempty" validate:"omitempty,max=1000"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CreatePurchaseRequest is the body of POST /users/:user_id/purchases.
type CreatePurchaseRequest struct {
	// ID is an optional client-generated UUIDv7, used when replaying receipts.
	ID          *string `json:"id"`
	ProductName string  `json:"product_name" binding:"required"`
	// PurchasedAt defaults to the server clock when omitted.
	PurchasedAt *time.Time `json:"purchased_at"`
	Quantity    *float64   `json:"quantity"`
	Price       *float64   `json:"price"`
	Unit        *string    `json:"unit"`
	Category    *string    `json:"category"`
	Currency    string     `json:"currency"`
	Source      string     `json:"source"`
	ReceiptID   *string    `json:"receipt_id"`
	Notes       *string    `json:"notes"`
}

// ToEvent builds an unsaved event for userID. Missing defaults are filled in
// from now. Timestamps are stored in UTC so they order the same in every driver.
func (r CreatePurchaseRequest) ToEvent(userID string, now time.Time) PurchaseEvent {
	event := PurchaseEvent{
		UserID:      strings.TrimSpace(userID),
		ProductName: NormalizeProductName(r.ProductName),
		PurchasedAt: now.UTC(),
		Quantity:    r.Quantity,
		Price:       r.Price,
		Unit:        r.Unit,
		Category:    r.Category,
		Currency:    strings.ToUpper(strings.TrimSpace(r.Currency)),
		Source:      PurchaseSource(strings.ToLower(strings.TrimSpace(r.Source))),
		ReceiptID:   r.ReceiptID,
		Notes:       r.Notes,
	}
	if r.ID != nil {
		event.ID = strings.TrimSpace(*r.ID)
	}
	if r.PurchasedAt != nil {
		event.PurchasedAt = r.PurchasedAt.UTC()
	}
	if event.Currency == "" {
		event.Currency = DefaultCurrency
	}
	if event.Source == "" {
		event.Source = SourceManual
	}
	return event
}

// NormalizeProductName turns a free-form product name into the key used for
// storage: surrounding space trimmed, inner runs of whitespace collapsed,
// lower-cased.
func NormalizeProductName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ProductKey identifies the analytics row of one product for one user.
type ProductKey struct {
	UserID      string `json:"user_id"`
	ProductName string `json:"product_name"`
}

func (k ProductKey) String() string {
	return k.UserID + "/" + k.ProductName
}
