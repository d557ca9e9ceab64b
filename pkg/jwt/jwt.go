package jwt

import (
	"errors"
	"fmt"
	"time"

	"sociogram/backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// PurposeRecover marks short-lived tokens issued by the password-recovery
// flow. They must never be accepted as session tokens.
const PurposeRecover = "recover"

var ErrInvalidToken = errors.New("invalid token")

// GenerateToken creates a new session JWT for a given user ID.
func GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour * 24 * 7).Unix(), // Token expires in 7 days
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// GenerateRecoveryToken creates a short-lived JWT used to authorize a
// password change during account recovery.
func GenerateRecoveryToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"sub":     userID,
		"purpose": PurposeRecover,
		"exp":     time.Now().Add(time.Hour).Unix(), // Recovery window is 1 hour
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ParseToken validates a token string and returns the user ID it was issued
// for, plus the purpose claim (empty for session tokens).
func ParseToken(tokenString string) (uint, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrInvalidToken
	}

	userIDFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", ErrInvalidToken
	}

	purpose, _ := claims["purpose"].(string)

	return uint(userIDFloat), purpose, nil
}
