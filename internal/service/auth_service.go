package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mosaicboard/internal/config"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeSesskey = "sesskey"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrInvalidSesskey = errors.New("invalid sesskey")
)

// AuthService issues and checks the bearer token that identifies the acting
// user and the sesskey that guards write calls.
type AuthService interface {
	IssueToken(userID int64) (string, error)
	UserIDFromToken(tokenString string) (int64, error)
	IssueSesskey(userID int64) (string, error)
	VerifySesskey(sesskey string, userID int64) error
}

type authService struct {
	cfg *config.Config
	now func() time.Time
}

func NewAuthService(cfg *config.Config) AuthService {
	return &authService{
		cfg: cfg,
		now: time.Now,
	}
}

func (s *authService) IssueToken(userID int64) (string, error) {
	return s.sign(userID, tokenTypeAccess, s.cfg.AccessTokenDuration)
}

func (s *authService) IssueSesskey(userID int64) (string, error) {
	return s.sign(userID, tokenTypeSesskey, s.cfg.SesskeyDuration)
}

func (s *authService) UserIDFromToken(tokenString string) (int64, error) {
	return s.parse(tokenString, tokenTypeAccess)
}

func (s *authService) VerifySesskey(sesskey string, userID int64) error {
	owner, err := s.parse(sesskey, tokenTypeSesskey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSesskey, err)
	}
	if owner != userID {
		return ErrInvalidSesskey
	}
	return nil
}

func (s *authService) sign(userID int64, tokenType string, ttl time.Duration) (string, error) {
	if s.cfg.JWTSecretKey == "" {
		return "", errors.New("JWT secret key is not configured")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"userId": userID,
		"typ":    tokenType,
		"exp":    now.Add(ttl).Unix(),
		"iat":    now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *authService) parse(tokenString, tokenType string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecretKey), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithJSONNumber())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	if typ, _ := claims["typ"].(string); typ != tokenType {
		return 0, fmt.Errorf("%w: expected %s token", ErrInvalidToken, tokenType)
	}

	// ids travel as json.Number so values past 2^53 keep every digit
	raw, ok := claims["userId"].(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: missing user", ErrInvalidToken)
	}
	userID, err := raw.Int64()
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("%w: missing user", ErrInvalidToken)
	}

	return userID, nil
}
