// Package token emite y verifica los JWT de acceso y de refresh.
// Cada clase de token firma con su propio secreto HS256: un access token
// nunca valida como refresh ni al revés.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind distingue las dos clases de token.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrNotConfigured: falta algún secreto de firma.
	ErrNotConfigured = errors.New("token: secretos de firma no configurados")
	// ErrTokenExpired: firma válida pero el token ya venció.
	ErrTokenExpired = errors.New("token: expirado")
	// ErrTokenMalformed: el string no tiene estructura de JWT.
	ErrTokenMalformed = errors.New("token: malformado")
	// ErrTokenInvalid: cualquier otra falla de verificación (firma, iss, aud, claims).
	ErrTokenInvalid = errors.New("token: inválido")
)

// AccessClaims son los claims del access token.
type AccessClaims struct {
	Email     string `json:"email"`
	IsCreator bool   `json:"is_creator"`
	jwt.RegisteredClaims
}

// refreshClaims: el refresh solo lleva el subject.
type refreshClaims struct {
	jwt.RegisteredClaims
}

// Codec emite y verifica ambas clases de token.
type Codec struct {
	issuer        string
	audience      string
	accessSecret  []byte
	refreshSecret []byte

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	now func() time.Time // inyectable en tests
}

// Option ajusta el Codec.
type Option func(*Codec)

// WithTTLs fija los TTLs de emisión.
func WithTTLs(access, refresh time.Duration) Option {
	return func(c *Codec) {
		c.AccessTTL = access
		c.RefreshTTL = refresh
	}
}

// WithClock inyecta el reloj. Solo para tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// New construye un Codec. Los dos secretos son obligatorios; no hay
// valores por defecto porque un secreto adivinable rompe todo el esquema.
func New(issuer, audience, accessSecret, refreshSecret string, opts ...Option) (*Codec, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, ErrNotConfigured
	}
	c := &Codec{
		issuer:        issuer,
		audience:      audience,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MintAccess emite un access token para el usuario.
// Devuelve también el instante de expiración para que el caller lo exponga.
func (c *Codec) MintAccess(userID, email string, isCreator bool) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(c.AccessTTL)
	claims := AccessClaims{
		Email:     email,
		IsCreator: isCreator,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: firmar access: %w", err)
	}
	return signed, exp, nil
}

// MintRefresh emite un refresh token. Solo identifica al usuario; los
// datos de perfil se releen de la base al renovar.
func (c *Codec) MintRefresh(userID string) (string, error) {
	now := c.now()
	claims := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.RefreshTTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("token: firmar refresh: %w", err)
	}
	return signed, nil
}

// VerifyAccess valida un access token y devuelve sus claims.
func (c *Codec) VerifyAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.verify(raw, claims, c.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh valida un refresh token y devuelve el subject (ID de usuario).
func (c *Codec) VerifyRefresh(raw string) (string, error) {
	claims := &refreshClaims{}
	if err := c.verify(raw, claims, c.refreshSecret); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

// IsExpired responde si el token de la clase dada está vencido.
// Un token que no verifica por cualquier otro motivo también da true:
// para el caller un token roto es tan inutilizable como uno vencido.
func (c *Codec) IsExpired(raw string, kind Kind) bool {
	secret := c.accessSecret
	if kind == KindRefresh {
		secret = c.refreshSecret
	}
	err := c.verify(raw, &jwt.RegisteredClaims{}, secret)
	return err != nil
}

func (c *Codec) verify(raw string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithTimeFunc(c.now),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	default:
		return ErrTokenInvalid
	}
}
