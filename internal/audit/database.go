package audit

import (
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateActionRecord(record *ActionRecord) error {
	return d.db.Create(record).Error
}

// ListActionRecords returns the most recent entries, newest first
func (d *Database) ListActionRecords(limit int) ([]ActionRecord, error) {
	var records []ActionRecord
	if err := d.db.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListActionRecordsByOperator returns the most recent entries for one
// operator, newest first
func (d *Database) ListActionRecordsByOperator(operator string, limit int) ([]ActionRecord, error) {
	var records []ActionRecord
	if err := d.db.Where("operator = ?", operator).Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
