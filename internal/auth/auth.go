package auth

import (
	"errors"
	"time"

	"github.com/brokerdesk/admin-api/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredentials = errors.New("invalid operator credentials")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// Credentials represents the operator authentication credentials
type Credentials struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

// TokenResponse represents the JWT token response
type TokenResponse struct {
	Token      string    `json:"jwt_token"`
	Expiration time.Time `json:"expiration"`
}

// Claims represents the JWT claims structure
type Claims struct {
	jwt.RegisteredClaims
	OperatorID  string   `json:"operator_id"`
	Permissions []string `json:"permissions"`
}

// Service handles operator authentication for the admin console
type Service struct {
	jwtSecret  []byte
	expiration time.Duration
	// In a real deployment this would live in the operator directory,
	// the console only needs a handful of back-office credentials
	credentials map[string]string // map[APIKey]APISecret
}

// NewService creates a new authentication service with the given JWT secret
// and token lifetime
func NewService(jwtSecret string, expiration time.Duration) *Service {
	return &Service{
		jwtSecret:   []byte(jwtSecret),
		expiration:  expiration,
		credentials: make(map[string]string),
	}
}

// RegisterCredentials registers an operator API key/secret pair
func (s *Service) RegisterCredentials(apiKey, apiSecret string) {
	s.credentials[apiKey] = apiSecret
}

// GenerateToken generates a JWT token for valid operator credentials.
// The token carries the operator ID and console permissions.
func (s *Service) GenerateToken(creds Credentials) (*TokenResponse, error) {
	if !s.validateCredentials(creds) {
		return nil, ErrInvalidCredentials
	}

	expiration := time.Now().Add(s.expiration)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
		OperatorID:  creds.APIKey, // Using API key as operator ID for simplicity
		Permissions: []string{"customers:write", "deposits:write"},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, ErrTokenGeneration
	}

	return &TokenResponse{
		Token:      tokenString,
		Expiration: expiration,
	}, nil
}

// ValidateToken validates a JWT token and returns the claims
// Verifies token signature and expiration
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// validateCredentials checks if the operator credentials are valid
func (s *Service) validateCredentials(creds Credentials) bool {
	secret, exists := s.credentials[creds.APIKey]
	return exists && secret == creds.APISecret
}

// GinHandlers contains HTTP handlers for authentication endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for authentication endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GenerateTokenHandler handles POST requests to exchange operator credentials
// for a JWT token
func (h *GinHandlers) GenerateTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds Credentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		token, err := h.service.GenerateToken(creds)
		if err == ErrInvalidCredentials {
			response.Unauthorized(c, err.Error())
			return
		}
		response.Handle(c, token, err)
	}
}

// GetOperatorID extracts the operator ID from a JWT token
// Returns empty string if the operator ID is not found or invalid
func GetOperatorID(claims interface{}) string {
	if jwtClaims, ok := claims.(jwt.MapClaims); ok {
		if operatorID, ok := jwtClaims["operator_id"].(string); ok {
			return operatorID
		}
	}
	return ""
}
