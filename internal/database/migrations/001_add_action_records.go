package migrations

import (
	"github.com/brokerdesk/admin-api/internal/audit"
	"gorm.io/gorm"
)

func AddActionRecords(db *gorm.DB) error {
	return db.AutoMigrate(&audit.ActionRecord{})
}
