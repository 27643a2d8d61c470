package reminder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ledgerEntry is one durable notification marker. Existence means the
// reminder has been shown; rows are never updated.
type ledgerEntry struct {
	Owner     string `gorm:"primaryKey"`
	Key       string `gorm:"primaryKey"`
	CreatedAt int64  `gorm:"autoCreateTime:nano"`
}

func (ledgerEntry) TableName() string { return "reminder_ledger" }

// SQLiteLedger is a device-scoped ledger for single-node deployments. It
// survives restarts the way the browser's local storage did for the board's
// web client.
type SQLiteLedger struct {
	db *gorm.DB
}

// OpenSQLiteLedger opens (creating if needed) the ledger database at path
// and runs migrations.
func OpenSQLiteLedger(path string) (*SQLiteLedger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ledger dir: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := db.AutoMigrate(&ledgerEntry{}); err != nil {
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return &SQLiteLedger{db: db}, nil
}

// Mark inserts the key if absent and reports whether it was newly recorded.
func (l *SQLiteLedger) Mark(ctx context.Context, owner string, key Key) (bool, error) {
	res := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&ledgerEntry{Owner: owner, Key: key.String()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Forget deletes a previously recorded key.
func (l *SQLiteLedger) Forget(ctx context.Context, owner string, key Key) error {
	return l.db.WithContext(ctx).
		Delete(&ledgerEntry{Owner: owner, Key: key.String()}).Error
}

// Close releases the underlying database handle.
func (l *SQLiteLedger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
