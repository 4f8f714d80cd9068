// Package token выдаёт и проверяет bearer-токены для API-клиентов,
// которые не хранят cookie сессии.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"repair-tracker/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "repair-tracker"

var (
	ErrInvalid = errors.New("invalid token")
	ErrRevoked = errors.New("token revoked")
)

type Claims struct {
	jwt.RegisteredClaims
	UserID uint            `json:"user_id"`
	Role   models.UserRole `json:"role"`
}

type Manager struct {
	secret    []byte
	ttl       time.Duration
	blacklist Blacklist
	now       func() time.Time
}

func NewManager(secret string, ttl time.Duration, blacklist Blacklist) *Manager {
	if blacklist == nil {
		blacklist = NewMemoryBlacklist()
	}
	return &Manager{secret: []byte(secret), ttl: ttl, blacklist: blacklist, now: time.Now}
}

// Issue возвращает подписанный токен для p и время его истечения.
func (m *Manager) Issue(p models.Principal) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   fmt.Sprint(p.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		UserID: p.UserID,
		Role:   p.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

func (m *Manager) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.ID == "" || claims.UserID == 0 {
		return nil, ErrInvalid
	}
	return claims, nil
}

// Parse проверяет токен и что он не отозван при выходе.
func (m *Manager) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	revoked, err := m.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check blacklist: %w", err)
	}
	if revoked {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Revoke заносит токен в чёрный список до момента его истечения.
func (m *Manager) Revoke(ctx context.Context, tokenString string) error {
	claims, err := m.parse(tokenString)
	if err != nil {
		return err
	}
	ttl := claims.ExpiresAt.Time.Sub(m.now())
	if ttl <= 0 {
		// уже истёк
		return nil
	}
	return m.blacklist.Add(ctx, claims.ID, ttl)
}
