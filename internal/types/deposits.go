package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deposit request statuses as reported by the trading backend.
// There is no transition back to pending.
const (
	DepositStatusPending  = "pending"
	DepositStatusApproved = "approved"
	DepositStatusRejected = "rejected"
)

// Bulk actions accepted by the trading backend.
const (
	BulkActionApprove = "approve"
	BulkActionReject  = "reject"
)

// DepositRequest represents a customer deposit request awaiting review.
// Rows are never deleted client-side; a processed row keeps its slot until
// the next full refetch.
type DepositRequest struct {
	ID        int64           `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"` // pending, approved, rejected
	Image     string          `json:"image,omitempty"`
	UserID    int64           `json:"user_id,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Pending reports whether the request is still eligible for approval or
// rejection.
func (d *DepositRequest) Pending() bool {
	return d.Status == DepositStatusPending
}
