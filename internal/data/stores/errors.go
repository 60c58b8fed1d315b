package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/colonyops/cams/internal/data/db"
)

// Decision errors returned by OrderStore.SubmitDecision.
var (
	ErrOrderNotPending         = errors.New("order is not pending")
	ErrCaseNotInOrder          = errors.New("case is not part of the order")
	ErrCaseAlreadyConsolidated = errors.New("case is already consolidated")
	ErrLeadCaseIsMember        = errors.New("lead case is a member of another consolidation")
	ErrInvalidDecision         = errors.New("invalid decision")
)

// IsBusyError returns true if the error is a SQLITE_BUSY error.
func IsBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_BUSY
	}
	return false
}

// IsCorruptionError returns true if the error indicates database corruption.
func IsCorruptionError(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CORRUPT ||
			code == sqlite3.SQLITE_NOTADB ||
			code == sqlite3.SQLITE_CANTOPEN
	}

	errStr := err.Error()
	return strings.Contains(errStr, "database disk image is malformed") ||
		strings.Contains(errStr, "file is not a database") ||
		strings.Contains(errStr, "database corruption")
}

// IsNotFoundError returns true if the error is a "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// RecoverFromCorruption moves a corrupted database aside so a fresh one can
// be created. The WAL and SHM files are moved with it; leaving them behind
// would make sqlite replay them into the new file.
func RecoverFromCorruption(dataDir string) (backupPath string, err error) {
	dbPath := filepath.Join(dataDir, db.FileName)
	backupPath = fmt.Sprintf("%s.corrupt.%s", dbPath, time.Now().Format("20060102-150405"))

	if err := os.Rename(dbPath, backupPath); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to backup corrupted database: %w", err)
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		side := dbPath + suffix
		if _, err := os.Stat(side); err != nil {
			continue
		}
		if err := os.Rename(side, backupPath+suffix); err != nil {
			if delErr := os.Remove(side); delErr != nil {
				return "", fmt.Errorf("failed to backup or remove %s file: %w", suffix, err)
			}
		}
	}

	return backupPath, nil
}

// OpenOrRecover opens the database, moving a corrupted file aside and
// starting fresh if sqlite reports corruption.
func OpenOrRecover(dataDir string, opts db.OpenOptions) (database *db.DB, recoveredFrom string, err error) {
	database, err = db.Open(dataDir, opts)
	if err == nil || !IsCorruptionError(err) {
		return database, "", err
	}

	recoveredFrom, recErr := RecoverFromCorruption(dataDir)
	if recErr != nil {
		return nil, "", errors.Join(err, recErr)
	}

	database, err = db.Open(dataDir, opts)
	return database, recoveredFrom, err
}

const (
	busyRetries = 3
	busyBackoff = 50 * time.Millisecond
)

// retryBusy runs fn again when sqlite reports the database is locked by
// another writer.
func retryBusy(ctx context.Context, fn func() error) error {
	wait := busyBackoff
	var err error
	for range busyRetries {
		err = fn()
		if !IsBusyError(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(wait):
			wait *= 2
		}
	}
	return err
}
