package authinfra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuerName = "losers-alert"

// ErrDisabled 表示未設定簽章金鑰。
var ErrDisabled = errors.New("api token auth disabled")

// Claims 定義 API token 的 payload；持有者名稱放在 sub。
type Claims struct {
	jwt.RegisteredClaims
}

// JWTIssuer 簽發與驗證操作員用的 API token（HS256）。
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer 建立 token 簽發器；ttl<=0 代表不設到期時間。
func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled 回報是否設定了金鑰。
func (j *JWTIssuer) Enabled() bool {
	return j != nil && len(j.secret) > 0
}

// Issue 為指定主體簽發 token。
func (j *JWTIssuer) Issue(subject string) (string, time.Time, error) {
	if !j.Enabled() {
		return "", time.Time{}, ErrDisabled
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("subject required")
	}
	now := j.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			ID:       uuid.NewString(),
			Issuer:   issuerName,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	var exp time.Time
	if j.ttl > 0 {
		exp = now.Add(j.ttl)
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseAccessToken 驗證並解析 token。
func (j *JWTIssuer) ParseAccessToken(token string) (Claims, error) {
	if !j.Enabled() {
		return Claims{}, ErrDisabled
	}
	var claims Claims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	}, jwt.WithIssuer(issuerName), jwt.WithTimeFunc(j.now))
	if err != nil {
		return Claims{}, err
	}
	if !tkn.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}
