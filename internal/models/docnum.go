package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// nextDocNumber issues the next date-encoded sequence number for a document
// table, e.g. "JO-20260829-0004". The count query runs inside the caller's
// transaction so two concurrent creates cannot take the same number.
func nextDocNumber(tx *gorm.DB, table, column, prefix string) (string, error) {
	stem := fmt.Sprintf("%s-%s-", prefix, time.Now().UTC().Format("20060102"))

	var count int64
	err := tx.Table(table).
		Unscoped().
		Where(column+" LIKE ?", stem+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%04d", stem, count+1), nil
}
