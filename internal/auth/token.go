package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTokenTTL はアクセストークンのデフォルト有効期間。
const DefaultAccessTokenTTL = 30 * time.Minute

// MinSecretLength はHMAC署名鍵の最小バイト数。
const MinSecretLength = 32

// ErrInvalidToken はトークンが検証に失敗したことを示す。
// 署名不一致・アルゴリズム不一致・期限切れ・形式不正のいずれかを区別せずに返す。
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenConfig はトークンサービスの設定。
type TokenConfig struct {
	Secret    []byte
	Algorithm string // HS256 / HS384 / HS512
	TTL       time.Duration
}

// TokenService は署名付きのステートレスなベアラートークンを発行・検証する。
// 失効リストは持たないため、発行済みトークンは有効期限まで有効であり続ける。
type TokenService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService はTokenServiceを生成する。
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes", MinSecretLength)
	}

	var method *jwt.SigningMethodHMAC
	switch cfg.Algorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported token algorithm: %q", cfg.Algorithm)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}

	return &TokenService{
		secret: cfg.Secret,
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL はデフォルトの有効期間を返す。
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue はsubjectを埋め込んだトークンを発行する。
// ttlが0以下の場合は設定済みのデフォルト有効期間を使用する。
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject is required")
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := s.now()
	// expは秒精度のため切り上げ、ttl経過前に失効しないようにする
	expiresAt := now.Add(ttl).Add(time.Second - 1).Truncate(time.Second)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify はトークンを検証しsubjectを返す。
// 失敗した場合は理由を問わずErrInvalidTokenを返す。
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
