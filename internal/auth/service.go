package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/anreonyr/simphy/internal/typeid"
)

var ErrInvalidToken = errors.New("invalid token")

const tokenTTL = 24 * time.Hour

type Service struct {
	jwtSecret []byte
	now       func() time.Time
}

func NewService(jwtSecret string) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

// Viewer is an anonymous participant in editing sessions.
type Viewer struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type TokenResult struct {
	Token     string    `json:"token"`
	Viewer    Viewer    `json:"viewer"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewViewer issues a token for a fresh viewer id.
func (s *Service) NewViewer(displayName string) (*TokenResult, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = "Anonymous"
	}
	v := Viewer{ID: typeid.NewViewerID(), DisplayName: displayName}
	token, exp, err := s.IssueToken(v)
	if err != nil {
		return nil, err
	}
	return &TokenResult{Token: token, Viewer: v, ExpiresAt: exp}, nil
}

func (s *Service) IssueToken(v Viewer) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(tokenTTL)
	claims := jwt.MapClaims{
		"sub":  v.ID,
		"name": v.DisplayName,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, exp, nil
}

func (s *Service) ValidateToken(tokenString string) (Viewer, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Viewer{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Viewer{}, ErrInvalidToken
	}

	viewerID, ok := claims["sub"].(string)
	if !ok || typeid.Validate(viewerID, typeid.PrefixViewer) != nil {
		return Viewer{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	name, _ := claims["name"].(string)

	return Viewer{ID: viewerID, DisplayName: name}, nil
}
