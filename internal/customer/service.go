package customer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/brokerdesk/admin-api/internal/audit"
	"github.com/brokerdesk/admin-api/internal/auth"
	"github.com/brokerdesk/admin-api/internal/backend"
	"github.com/brokerdesk/admin-api/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// API is the slice of the trading backend the customer screens consume
type API interface {
	GetCustomer(ctx context.Context, customerID string) (map[string]interface{}, error)
	CreateCustomer(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error)
	UpdateCustomer(ctx context.Context, customerID string, payload map[string]interface{}) (map[string]interface{}, error)
}

// Service fetches, normalizes and submits customer records
type Service struct {
	api   API
	audit *audit.Recorder
}

func NewService(api API, recorder *audit.Recorder) *Service {
	return &Service{
		api:   api,
		audit: recorder,
	}
}

// Get fetches a customer and normalizes it into the canonical record the
// configuration form renders
func (s *Service) Get(ctx context.Context, customerID string) (Record, error) {
	raw, err := s.api.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer %s: %w", customerID, err)
	}
	return Normalize(raw), nil
}

// Create normalizes the submitted record, denormalizes it into the backend
// submission shape and creates it upstream
func (s *Service) Create(ctx context.Context, operator string, raw map[string]interface{}) (map[string]interface{}, error) {
	payload := Denormalize(Normalize(raw))

	created, err := s.api.CreateCustomer(ctx, payload)
	if err != nil {
		return nil, err
	}

	name, _ := Normalize(created)[SectionPersonalDetails].(map[string]interface{})["name"].(string)
	s.audit.Record(operator, audit.ActionCustomerCreate, "customer", name, "")

	log.Info().Str("operator", operator).Str("customer", name).Msg("customer created")
	return created, nil
}

// Update normalizes and submits changes to an existing customer
func (s *Service) Update(ctx context.Context, operator, customerID string, raw map[string]interface{}) (map[string]interface{}, error) {
	payload := Denormalize(Normalize(raw))

	updated, err := s.api.UpdateCustomer(ctx, customerID, payload)
	if err != nil {
		return nil, err
	}

	s.audit.Record(operator, audit.ActionCustomerUpdate, "customer", customerID, "")

	log.Info().Str("operator", operator).Str("customer_id", customerID).Msg("customer updated")
	return updated, nil
}

// GinHandlers contains HTTP handlers for customer management endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GetCustomerHandler handles GET requests for a single canonical customer
// record
// URL parameter: customer_id
func (h *GinHandlers) GetCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := c.Param("customer_id")
		if customerID == "" {
			response.BadRequest(c, "Customer ID is required")
			return
		}

		record, err := h.service.Get(c.Request.Context(), customerID)
		if err != nil {
			respondUpstreamError(c, err)
			return
		}

		response.Success(c, record)
	}
}

// CreateCustomerHandler handles POST requests to create a customer
func (h *GinHandlers) CreateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var raw map[string]interface{}
		if err := c.ShouldBindJSON(&raw); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		created, err := h.service.Create(c.Request.Context(), operatorFrom(c), raw)
		if err != nil {
			respondUpstreamError(c, err)
			return
		}

		response.Success(c, created)
	}
}

// UpdateCustomerHandler handles PUT requests to update a customer
// URL parameter: customer_id
func (h *GinHandlers) UpdateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := c.Param("customer_id")
		if customerID == "" {
			response.BadRequest(c, "Customer ID is required")
			return
		}

		var raw map[string]interface{}
		if err := c.ShouldBindJSON(&raw); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		updated, err := h.service.Update(c.Request.Context(), operatorFrom(c), customerID, raw)
		if err != nil {
			respondUpstreamError(c, err)
			return
		}

		response.Success(c, updated)
	}
}

func operatorFrom(c *gin.Context) string {
	if claims, exists := c.Get("claims"); exists {
		return auth.GetOperatorID(claims)
	}
	return ""
}

// respondUpstreamError maps backend failures onto the console error taxonomy:
// expired sessions become a log-in-again condition, backend validation
// messages pass through verbatim, anything else is an upstream failure.
func respondUpstreamError(c *gin.Context, err error) {
	if errors.Is(err, backend.ErrSessionInvalid) {
		response.SessionInvalid(c, "Session invalid, please log in again")
		return
	}

	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusNotFound:
			response.NotFound(c, "Customer not found")
		case statusErr.StatusCode >= 400 && statusErr.StatusCode < 500:
			response.BadRequest(c, statusErr.Body)
		default:
			response.UpstreamError(c, statusErr.Error())
		}
		return
	}

	response.UpstreamError(c, err.Error())
}
