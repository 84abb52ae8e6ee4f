package model

import (
	"time"

	"github.com/google/uuid"
)

// Manufacturing console records. These are plain admin CRUD collections;
// the only cross-record rule is that devices reference their batch.

// Batch is a production run of devices
type Batch struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code       string     `json:"code" gorm:"uniqueIndex;size:32;not null"`
	Kind       DeviceKind `json:"kind" gorm:"type:varchar(20);not null"`
	Quantity   int        `json:"quantity" gorm:"not null"`
	Status     string     `json:"status" gorm:"size:20;default:'planned'"` // planned, in_production, completed
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Notes      string     `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// InventoryItem tracks parts and finished goods on hand
type InventoryItem struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU       string    `json:"sku" gorm:"uniqueIndex;size:64;not null"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	Category  string    `json:"category" gorm:"size:50;default:'component'"`
	Quantity  int       `json:"quantity" gorm:"default:0"`
	ReorderAt int       `json:"reorder_at" gorm:"default:0"`
	Location  string    `json:"location" gorm:"size:100;default:''"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PurchaseOrder is an order placed with a supplier
type PurchaseOrder struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number     string     `json:"number" gorm:"uniqueIndex;size:32;not null"`
	Supplier   string     `json:"supplier" gorm:"size:200;not null"`
	Status     string     `json:"status" gorm:"size:20;default:'draft'"` // draft, submitted, received, cancelled
	TotalCents int64      `json:"total_cents" gorm:"default:0"`
	Currency   string     `json:"currency" gorm:"size:3;default:'CAD'"`
	OrderedAt  *time.Time `json:"ordered_at,omitempty"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
	Notes      string     `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// FirmwareRelease is a published firmware build for the wearables
type FirmwareRelease struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Version    string     `json:"version" gorm:"uniqueIndex;size:32;not null"`
	Kind       DeviceKind `json:"kind" gorm:"type:varchar(20);not null"`
	URL        string     `json:"url" gorm:"size:500;default:''"`
	Checksum   string     `json:"checksum" gorm:"size:128;default:''"`
	Changelog  string     `json:"changelog" gorm:"type:text"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// QAReport records a quality check against a batch
type QAReport struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BatchID   uuid.UUID `json:"batch_id" gorm:"type:uuid;not null;index"`
	Inspector string    `json:"inspector" gorm:"size:100;not null"`
	Passed    int       `json:"passed" gorm:"default:0"`
	Failed    int       `json:"failed" gorm:"default:0"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Shipment tracks devices on their way to recipients
type Shipment struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BatchID     *uuid.UUID `json:"batch_id,omitempty" gorm:"type:uuid;index"`
	Carrier     string     `json:"carrier" gorm:"size:100;not null"`
	Tracking    string     `json:"tracking" gorm:"size:100;default:''"`
	Destination string     `json:"destination" gorm:"size:500;not null"`
	Status      string     `json:"status" gorm:"size:20;default:'pending'"` // pending, shipped, delivered
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
