package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "Pending"
)

type Transaction struct {
	ID        uuid.UUID         `db:"id"`
	TenantID  uuid.UUID         `db:"tenant_id"`
	UserID    uuid.UUID         `db:"user_id"`
	Amount    float64           `db:"amount"`
	Merchant  string            `db:"merchant"`
	Status    TransactionStatus `db:"status"`
	ImageURL  string            `db:"image_url"`
	Category  *string           `db:"category"`
	Metadata  *ExtractedRecord  `db:"metadata"`
	CreatedAt time.Time         `db:"created_at"`
}
