package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/autoremedy/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Issuer выдает RS256-токены единственной учетке оператора.
// Логин и bcrypt-хеш пароля приходят из конфига — пользовательской БД нет.
type Issuer struct {
	privateKey   *rsa.PrivateKey
	ttl          time.Duration
	operatorUser string
	operatorHash string
}

func NewIssuer(privateKey *rsa.PrivateKey, ttl time.Duration, operatorUser, operatorHash string) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{
		privateKey:   privateKey,
		ttl:          ttl,
		operatorUser: operatorUser,
		operatorHash: operatorHash,
	}
}

func (s *Issuer) IssueToken(username, password string) (*domain.TokenResponse, error) {
	// 1. Аутентификация: сверяем логин и bcrypt-хеш пароля
	if username != s.operatorUser || s.operatorHash == "" {
		return nil, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.operatorHash), []byte(password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	// 2. Формирование Claims
	expiresAt := time.Now().Add(s.ttl)
	claims := &domain.CustomClaims{
		UserID: username,
		Scopes: map[string]bool{"operator": true},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "autoremedy",
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	// 3. Подпись токена ЗАКРЫТЫМ КЛЮЧОМ (RS256)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: signedToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
	}, nil
}
