package repositories

import (
	"errors"
	"fmt"
	"fulfillment-wms/types"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StaleStatus is the status reported when a compare-and-swap update finds
// that the row changed since it was read.
const StaleStatus = "changed by another transaction"

func staleVersion(entity string, id types.SnowflakeID) error {
	return &types.InvalidStateError{Entity: entity, Ref: id.String(), Operation: "update", Status: StaleStatus}
}

// forUpdate adds a row lock where the dialect has one. SQL Server uses lock
// hints instead of FOR UPDATE, so there the version column is the only guard.
func forUpdate(db *gorm.DB) *gorm.DB {
	switch db.Dialector.Name() {
	case "sqlserver", "sqlite":
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func notFound(err error, entity string, key any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &types.NotFoundError{Entity: entity, Key: fmt.Sprint(key)}
	}
	return err
}

// nextDocumentNo numbers documents as PREFIX + YYMMDD + 4 digit sequence,
// restarting the sequence every day.
func nextDocumentNo(db *gorm.DB, table, column, prefix string, now time.Time) (string, error) {
	currentDate := now.Format("060102")
	stem := prefix + currentDate

	var last string
	err := db.Table(table).
		Select(column).
		Where(column+" LIKE ?", stem+"%").
		Order(column + " DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if strings.HasPrefix(last, stem) && len(last) == len(stem)+4 {
		lastSeq, convErr := strconv.Atoi(last[len(stem):])
		if convErr == nil {
			seq = lastSeq + 1
		}
	}
	return fmt.Sprintf("%s%04d", stem, seq), nil
}
