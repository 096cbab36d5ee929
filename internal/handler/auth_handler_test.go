package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/middleware"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthEcho(t *testing.T) *echo.Echo {
	t.Helper()

	gdb, err := db.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := config.Config{JWTSecret: testSecret}
	users := infraRepo.NewUserGormRepository(gdb)
	uc := usecase.NewAuthUsecase(
		cfg,
		infraRepo.NewTxManagerGorm(gdb, 5*time.Second),
		users,
		infraRepo.NewRefreshTokenGormRepository(gdb),
		validator.NewAuthValidator(users),
	)

	e := echo.New()
	handler.NewAuthHandler(cfg, uc).RegisterRoutes(e, users)
	return e
}

func doJSON(e *echo.Echo, method, path string, body interface{}, cookies []*http.Cookie, headers map[string]string) *httptest.ResponseRecorder {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("User-Agent", "test-agent")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestAuthHandler_RegisterLoginRefreshLogout(t *testing.T) {
	e := newAuthEcho(t)
	creds := map[string]string{"email": "alice@test.com", "password": "password123", "username": "alice"}

	rec := doJSON(e, http.MethodPost, "/auth/register", creds, nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/auth/register", creds, nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/login", creds, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login usecase.AuthLoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token.AccessToken)

	refreshCk := cookieByName(rec, "refresh_token")
	csrfCk := cookieByName(rec, middleware.CsrfCookieName)
	require.NotNil(t, refreshCk)
	require.NotNil(t, csrfCk)
	assert.True(t, refreshCk.HttpOnly)
	assert.False(t, csrfCk.HttpOnly)

	//アクセストークンで自分の情報
	rec = doJSON(e, http.MethodGet, "/auth/me", nil, nil, map[string]string{
		echo.HeaderAuthorization: "Bearer " + login.Token.AccessToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	//CSRFヘッダなし => 403
	rec = doJSON(e, http.MethodPost, "/auth/refresh", nil, []*http.Cookie{refreshCk, csrfCk}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/refresh", nil, []*http.Cookie{refreshCk, csrfCk}, map[string]string{
		middleware.CsrfHeaderName: csrfCk.Value,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	newRefresh := cookieByName(rec, "refresh_token")
	newCsrf := cookieByName(rec, middleware.CsrfCookieName)
	require.NotNil(t, newRefresh)
	require.NotNil(t, newCsrf)

	var refreshed usecase.JwtAccessTokenDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))

	rec = doJSON(e, http.MethodPost, "/auth/logout", nil, []*http.Cookie{newRefresh, newCsrf}, map[string]string{
		middleware.CsrfHeaderName: newCsrf.Value,
		echo.HeaderAuthorization:  "Bearer " + refreshed.AccessToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	//ログアウト後のrefreshは401
	rec = doJSON(e, http.MethodPost, "/auth/refresh", nil, []*http.Cookie{newRefresh, newCsrf}, map[string]string{
		middleware.CsrfHeaderName: newCsrf.Value,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_LoginWrongPassword(t *testing.T) {
	e := newAuthEcho(t)

	rec := doJSON(e, http.MethodPost, "/auth/register",
		map[string]string{"email": "bob@test.com", "password": "password123", "username": "bob"}, nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/login",
		map[string]string{"email": "bob@test.com", "password": "nope-nope"}, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/login",
		map[string]string{"email": "", "password": ""}, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
