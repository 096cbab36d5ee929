package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	repo "storefront/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// リトライで解消しうるPostgreSQLのSQLSTATE
var transientPgCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57014": true, // query_canceled（statement_timeout）
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
	"53300": true, // too_many_connections
}

// 一時的な障害かどうか
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, repo.ErrStorageUnavailable) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		//08xxx は接続系
		return transientPgCodes[pgErr.Code] || strings.HasPrefix(pgErr.Code, "08")
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// 一時的な障害なら ErrStorageUnavailable でラップする
func Classify(err error) error {
	if err == nil || errors.Is(err, repo.ErrStorageUnavailable) {
		return err
	}
	if IsTransient(err) {
		return fmt.Errorf("%w: %w", repo.ErrStorageUnavailable, err)
	}
	return err
}

// 各SQL実行後のエラーをClassifyするgormプラグイン
type TransientErrors struct{}

func (TransientErrors) Name() string {
	return "storefront:transient_errors"
}

func (TransientErrors) Initialize(gdb *gorm.DB) error {
	cb := gdb.Callback()
	if err := cb.Create().After("gorm:create").Register("storefront:classify_create", classifyCallback); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("storefront:classify_query", classifyCallback); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("storefront:classify_update", classifyCallback); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("storefront:classify_delete", classifyCallback); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("storefront:classify_row", classifyCallback); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("storefront:classify_raw", classifyCallback)
}

func classifyCallback(gdb *gorm.DB) {
	if gdb.Error != nil {
		gdb.Error = Classify(gdb.Error)
	}
}
