package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AccountKey gin.Context 中存储登录账户的键
const AccountKey = "account_session"

// DefaultSessionIssuer 默认签发者
const DefaultSessionIssuer = "gift-share-service"

// AccountClaims 账户会话 Cookie 中的声明
type AccountClaims struct {
	AccountID int64 `json:"accountId"`
	jwt.RegisteredClaims
}

// GenerateSession 签发账户会话 Token
func GenerateSession(accountID int64, secretKey string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &AccountClaims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    DefaultSessionIssuer,
			Subject:   "account-session",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
}

// ParseSession 校验并解析账户会话 Token
func ParseSession(tokenString string, secretKey string) (*AccountClaims, error) {
	claims := &AccountClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// GetAccountID 返回当前请求的账户 ID，匿名请求返回 nil
func GetAccountID(c *gin.Context) *int64 {
	v, ok := c.Get(AccountKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*AccountClaims)
	if !ok || claims.AccountID <= 0 {
		return nil
	}
	id := claims.AccountID
	return &id
}
