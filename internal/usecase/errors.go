package usecase

import (
	"errors"
	"fmt"
	"net/http"

	repo "storefront/internal/repository"
)

var (
	//400 入力不足
	ErrValidation = errors.New("validation error")
	//401 認証失敗
	ErrUnauthorized = errors.New("unauthorized")
	//403 権限
	ErrForbidden = errors.New("forbidden")
	//401 refresh tokenの再利用
	ErrSecurityIncident = errors.New("security incident")
	//404
	ErrNotFound = errors.New("not found")
	//409
	ErrConflict = errors.New("conflict")
	//500
	ErrInternal = errors.New("internal error")
)

// 返すエラーコード（チェックアウト系はクライアントが分岐に使う）
const (
	CodeInsufficientStock  = "InsufficientStock"
	CodeCartEmpty          = "CartEmpty"
	CodeProductNotFound    = "ProductNotFound"
	CodeStorageUnavailable = "StorageUnavailable"
	//同じキーで別内容の注文
	CodeIdempotencyConflict = "IdempotencyConflict"
)

// handlerでそのままステータスとbodyにする
type HTTPError struct {
	Status    int
	Message   string
	ProductID *int64
}

func (e *HTTPError) Error() string {
	if e.ProductID != nil {
		return fmt.Sprintf("%d: %s (product_id=%d)", e.Status, e.Message, *e.ProductID)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// 503はリトライしてよい
func (e *HTTPError) Retryable() bool {
	return e.Status == http.StatusServiceUnavailable
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func newProductError(status int, code string, productID int64) error {
	id := productID
	return &HTTPError{Status: status, Message: code, ProductID: &id}
}

func insufficientStock(productID int64) error {
	return newProductError(http.StatusConflict, CodeInsufficientStock, productID)
}

func productNotFound(productID int64) error {
	return newProductError(http.StatusNotFound, CodeProductNotFound, productID)
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// repositoryのエラーを 503（一時的） / 500 に分ける
func dbError(err error) error {
	if errors.Is(err, repo.ErrStorageUnavailable) {
		return NewHTTPError(http.StatusServiceUnavailable, CodeStorageUnavailable)
	}
	return NewHTTPError(http.StatusInternalServerError, "db error")
}

// WithinTxの戻り値用。fnが返したHTTPErrorはそのまま、それ以外（commit失敗など）は分類する
func txError(err error) error {
	if err == nil {
		return nil
	}
	if he, ok := AsHTTPError(err); ok {
		return he
	}
	return dbError(err)
}

// 見つからなければ404、それ以外はdbError
func notFoundOr(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, msg)
	}
	return dbError(err)
}
