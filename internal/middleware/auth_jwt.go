package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

var (
	errNoBearer     = errors.New("missing bearer token")
	errInvalidClaim = errors.New("invalid claim")
)

// アクセストークンから取り出す値
type AccessClaims struct {
	UserID       int64
	Role         model.Role
	TokenVersion int
}

// Bearerのアクセストークンを検証し、user_id/role/tvをcontextとloggerに載せる
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	secret := []byte(cfg.JWTSecret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()

			raw, err := bearerToken(req)
			var claims AccessClaims
			if err == nil {
				claims, err = parseAccessToken(parser, secret, raw)
			}
			if err != nil {
				zerolog.Ctx(ctx).Debug().Err(err).Msg("access token rejected")
				return unauthorized(c)
			}

			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxUserRoleKey, string(claims.Role))
			c.Set(CtxTokenVersionKey, claims.TokenVersion)

			//以降のログにユーザーを付ける
			l := zerolog.Ctx(ctx).With().
				Int64("user_id", claims.UserID).
				Str("role", string(claims.Role)).
				Logger()
			c.SetRequest(req.WithContext(l.WithContext(ctx)))

			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, error) {
	scheme, raw, ok := strings.Cut(r.Header.Get(echo.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errNoBearer
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errNoBearer
	}
	return raw, nil
}

// 署名(HS256のみ)と期限はparserが見る。ここではclaimの形を確かめる
func parseAccessToken(parser *jwt.Parser, secret []byte, raw string) (AccessClaims, error) {
	token, err := parser.Parse(raw, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return AccessClaims{}, err
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return AccessClaims{}, errInvalidClaim
	}

	sub, err := intClaim(mc, "sub")
	if err != nil || sub <= 0 {
		return AccessClaims{}, fmt.Errorf("%w: sub", errInvalidClaim)
	}
	role, _ := mc["role"].(string)
	if !model.Role(role).Valid() {
		return AccessClaims{}, fmt.Errorf("%w: role", errInvalidClaim)
	}
	tv, err := intClaim(mc, "tv")
	if err != nil || tv < 0 {
		return AccessClaims{}, fmt.Errorf("%w: tv", errInvalidClaim)
	}

	return AccessClaims{UserID: sub, Role: model.Role(role), TokenVersion: int(tv)}, nil
}

// JSONの数値はfloat64で来る。文字列の数値も受ける
func intClaim(mc jwt.MapClaims, key string) (int64, error) {
	switch v := mc[key].(type) {
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("%w: %s", errInvalidClaim, key)
	}
}
