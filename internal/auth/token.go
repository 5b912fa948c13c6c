package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// resetTokenTTL bounds how long a password-reset link stays usable.
const resetTokenTTL = 30 * time.Minute

// ResetClaims are the claims carried by a password-reset token. The subject
// purpose claim stops a reset token from ever being accepted anywhere else.
type ResetClaims struct {
	UserID  int64  `json:"userID"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// GenerateResetToken creates a signed, short-lived token authorizing a
// password reset for the given user. The token is delivered by email and is
// the only proof of identity the reset endpoint accepts.
func GenerateResetToken(userID int64, secret string) (string, error) {
	claims := &ResetClaims{
		UserID:  userID,
		Purpose: "password_reset",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(resetTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateResetToken parses and validates a reset token: signature, expiry,
// and purpose. It returns the user ID the reset was issued for.
func ValidateResetToken(tokenString, secret string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ResetClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		// Covers malformed tokens, bad signatures, and jwt.ErrTokenExpired.
		return 0, err
	}

	claims, ok := token.Claims.(*ResetClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token")
	}
	if claims.Purpose != "password_reset" {
		return 0, errors.New("token not valid for password reset")
	}
	return claims.UserID, nil
}
