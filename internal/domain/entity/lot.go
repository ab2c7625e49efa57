package entity

import "time"

// Entity type constants used by history, notifications and events
const (
	EntityCMLot   = "cm_lot"
	EntityPackLot = "pack_lot"
	EntityRequest = "request"
)

// CMLot represents a batch of raw biological starting material
type CMLot struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Material  string    `json:"material"`
	Status    string    `json:"status"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PackLot represents a batch of finished product derived from an approved CM lot
type PackLot struct {
	ID                     int64     `json:"id"`
	Code                   string    `json:"code"`
	CMLotID                int64     `json:"cm_lot_id"`
	RequiresLyophilization bool      `json:"requires_lyophilization"`
	Status                 string    `json:"status"`
	CreatedBy              string    `json:"created_by"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Request represents a request or reservation against CM lot material
type Request struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	CMLotID     *int64    `json:"cm_lot_id,omitempty"`
	Quantity    float64   `json:"quantity"`
	Unit        string    `json:"unit"`
	RequestedBy string    `json:"requested_by"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LotFilter narrows lot listings
type LotFilter struct {
	Status string
	Limit  int
	Offset int
}
