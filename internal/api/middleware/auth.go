package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/socialgraph/pkg/response"
)

const actorKey = "actorID"

// ErrNoActor 令牌里没有 sub
var ErrNoActor = errors.New("token has no subject")

// Auth 校验 Authorization: Bearer <jwt>（HS256），sub 作为当前用户 id
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		tok := BearerToken(c.GetHeader("Authorization"))
		if tok == "" {
			response.Unauthorized(c, "missing token")
			return
		}
		actorID, err := ParseActor(tok, key)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}
		c.Set(actorKey, actorID)
		c.Next()
	}
}

func BearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return ""
}

// ParseActor 返回令牌的 subject
func ParseActor(token string, key []byte) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrNoActor
	}
	return claims.Subject, nil
}

// ActorID Auth 之后可用
func ActorID(c *gin.Context) string {
	return c.GetString(actorKey)
}
