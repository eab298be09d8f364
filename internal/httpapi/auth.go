package httpapi

import (
	"errors"
	"log"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"nexostock/backend/internal/domain"
)

const (
	defaultOperatorEmail    = "admin@stock.com"
	defaultOperatorPassword = "admin123"
	defaultOperatorName     = "Administrador"
)

// AuthManager authenticates the store operator and issues HS256 bearer
// tokens. The deployment has a single operator account, bootstrapped from
// the environment or from well-known development defaults.
type AuthManager struct {
	secret       []byte
	tokenTTL     time.Duration
	operator     domain.Operator
	passwordHash string
}

type operatorClaims struct {
	jwtlib.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

// NewAuthManager hashes the operator credential at startup. Empty email,
// password or name fall back to the development defaults with a WARN so an
// unconfigured deployment is loud about it.
func NewAuthManager(secret string, tokenTTL time.Duration, email string, password string, name string) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
		log.Printf("[auth] WARN: AUTH_SECRET not set, using development secret")
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = defaultOperatorEmail
	}
	if strings.TrimSpace(name) == "" {
		name = defaultOperatorName
	}
	if strings.TrimSpace(password) == "" {
		password = defaultOperatorPassword
		log.Printf("[auth] WARN: OPERATOR_PASSWORD not set, using development credential %s", email)
	}

	hash, err := hashPassword(password)
	if err != nil {
		// bcrypt only fails on absurd cost values; an unusable hash just
		// means every login is rejected.
		log.Printf("[auth] WARN: hashing operator credential: %v", err)
		hash = ""
	}

	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		operator: domain.Operator{
			ID:    "1",
			Name:  strings.TrimSpace(name),
			Email: email,
			Role:  "admin",
		},
		passwordHash: hash,
	}
}

func (a *AuthManager) Login(req domain.LoginRequest) (domain.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != a.operator.Email || !verifyPassword(a.passwordHash, req.Password) {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Operator:  a.operator,
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Operator, error) {
	claims := &operatorClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Operator{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Operator{}, errors.New("invalid token subject")
	}
	return domain.Operator{
		ID:    sub,
		Name:  claims.Name,
		Email: a.operator.Email,
		Role:  claims.Role,
	}, nil
}

func (a *AuthManager) sign(expiresAt time.Time) (string, error) {
	claims := operatorClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   a.operator.ID,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "nexostock",
		},
		Name: a.operator.Name,
		Role: a.operator.Role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
