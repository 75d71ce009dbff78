package audit

import (
	"time"

	"gorm.io/gorm"
)

// Action types recorded by the console
const (
	ActionDepositApprove = "DEPOSIT_APPROVE"
	ActionDepositReject  = "DEPOSIT_REJECT"
	ActionDepositBulk    = "DEPOSIT_BULK"
	ActionCustomerCreate = "CUSTOMER_CREATE"
	ActionCustomerUpdate = "CUSTOMER_UPDATE"
)

// ActionRecord is one acknowledged admin action. Only actions the trading
// backend confirmed are written, so the trail mirrors upstream state.
type ActionRecord struct {
	gorm.Model `json:"-"`
	EntryID    string    `gorm:"uniqueIndex" json:"entry_id"`
	Operator   string    `json:"operator"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"` // deposit_request, customer
	TargetID   string    `json:"target_id"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
