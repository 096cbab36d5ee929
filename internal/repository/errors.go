package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// 一意制約違反
	ErrConflict = errors.New("conflict")

	// 一時的な障害（接続断、デッドロック、ロック待ちタイムアウト、Txタイムアウトなど）。リトライ可能
	ErrStorageUnavailable = errors.New("storage unavailable")
)
