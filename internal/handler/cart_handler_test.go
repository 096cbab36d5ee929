package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartEnv struct {
	e      *echo.Echo
	auth   map[string]string
	cart   model.Cart
	others model.Cart
}

func signToken(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": "USER",
		"tv":   0,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func newCartEnv(t *testing.T) cartEnv {
	t.Helper()

	gdb, err := db.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	user := model.User{Email: "cart@test.com", Username: "cart", PasswordHash: "x", Role: model.RoleUser, IsActive: true}
	require.NoError(t, gdb.Create(&user).Error)
	other := model.User{Email: "other@test.com", Username: "other", PasswordHash: "x", Role: model.RoleUser, IsActive: true}
	require.NoError(t, gdb.Create(&other).Error)
	require.NoError(t, gdb.Create(&model.Product{ID: 7, Name: "pen", Price: 10, Stock: 5, IsActive: true}).Error)

	cart := model.Cart{UserID: user.ID, Status: model.CartStatusActive}
	require.NoError(t, gdb.Create(&cart).Error)
	others := model.Cart{UserID: other.ID, Status: model.CartStatusActive}
	require.NoError(t, gdb.Create(&others).Error)

	carts := infraRepo.NewCartGormRepository(gdb)
	uc := usecase.NewCartUsecase(infraRepo.NewTxManagerGorm(gdb, 5*time.Second), carts, carts)

	e := echo.New()
	handler.NewCartHandler(uc).RegisterRoutes(e, config.Config{JWTSecret: testSecret}, infraRepo.NewUserGormRepository(gdb))

	return cartEnv{
		e:      e,
		auth:   map[string]string{echo.HeaderAuthorization: "Bearer " + signToken(t, user.ID)},
		cart:   cart,
		others: others,
	}
}

func decodeKeys(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestCartHandler_LineShapes(t *testing.T) {
	env := newCartEnv(t)
	itemsPath := fmt.Sprintf("/cart/%d/items", env.cart.ID)

	rec := doJSON(env.e, http.MethodPost, itemsPath,
		map[string]interface{}{"product_id": 7, "quantity": 2, "unit_price": 10}, nil, env.auth)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	//追加の201は product/price
	added := decodeKeys(t, rec.Body.Bytes())
	assert.Equal(t, float64(env.cart.ID), added["cart_id"])
	assert.Equal(t, float64(7), added["product"])
	assert.Equal(t, float64(2), added["quantity"])
	assert.Equal(t, float64(10), added["price"])
	assert.NotContains(t, added, "product_id")
	assert.NotContains(t, added, "unit_price")

	//一覧は product_id/unit_price
	rec = doJSON(env.e, http.MethodGet, itemsPath, nil, nil, env.auth)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	line := list[0]
	assert.Equal(t, added["id"], line["id"])
	assert.Equal(t, float64(env.cart.ID), line["cart_id"])
	assert.Equal(t, float64(7), line["product_id"])
	assert.Equal(t, float64(2), line["quantity"])
	assert.Equal(t, float64(10), line["unit_price"])
	assert.Len(t, line, 5)

	rec = doJSON(env.e, http.MethodGet, itemsPath+"/count", nil, nil, env.auth)
	require.Equal(t, http.StatusOK, rec.Code)
	count := decodeKeys(t, rec.Body.Bytes())
	assert.Equal(t, float64(2), count["count"])
	assert.Equal(t, float64(20), count["total"])
}

func TestCartHandler_UpdateDeleteClear(t *testing.T) {
	env := newCartEnv(t)
	itemsPath := fmt.Sprintf("/cart/%d/items", env.cart.ID)

	rec := doJSON(env.e, http.MethodPost, itemsPath, map[string]interface{}{"product_id": 7, "quantity": 1}, nil, env.auth)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(env.e, http.MethodPut, itemsPath+"/7", map[string]interface{}{"quantity": 4}, nil, env.auth)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeKeys(t, rec.Body.Bytes())
	assert.Equal(t, float64(4), updated["quantity"])
	assert.Equal(t, float64(7), updated["product_id"])

	rec = doJSON(env.e, http.MethodPut, itemsPath+"/7", map[string]interface{}{"quantity": 6}, nil, env.auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(env.e, http.MethodPut, itemsPath+"/7", map[string]interface{}{}, nil, env.auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(env.e, http.MethodDelete, itemsPath+"/7", nil, nil, env.auth)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(env.e, http.MethodPost, itemsPath, map[string]interface{}{"product_id": 7, "quantity": 1}, nil, env.auth)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(env.e, http.MethodDelete, itemsPath, nil, nil, env.auth)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(env.e, http.MethodGet, itemsPath, nil, nil, env.auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCartHandler_Rejections(t *testing.T) {
	env := newCartEnv(t)
	othersPath := fmt.Sprintf("/cart/%d/items", env.others.ID)

	rec := doJSON(env.e, http.MethodGet, othersPath, nil, nil, env.auth)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(env.e, http.MethodPost, othersPath, map[string]interface{}{"product_id": 7, "quantity": 1}, nil, env.auth)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(env.e, http.MethodPost, fmt.Sprintf("/cart/%d/items", env.cart.ID),
		map[string]interface{}{"product_id": 7, "quantity": 1, "unit_price": 9}, nil, env.auth)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(env.e, http.MethodGet, "/cart/abc/items", nil, nil, env.auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(env.e, http.MethodGet, "/cart", nil, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
