package deposits

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/brokerdesk/admin-api/internal/audit"
	"github.com/brokerdesk/admin-api/internal/auth"
	"github.com/brokerdesk/admin-api/internal/backend"
	"github.com/brokerdesk/admin-api/internal/types"
	"github.com/brokerdesk/admin-api/pkg/response"
	"github.com/gin-gonic/gin"
)

// Service exposes the reconciler to the console API and records the audit
// trail for acknowledged actions
type Service struct {
	reconciler *Reconciler
	audit      *audit.Recorder
}

func NewService(api API, recorder *audit.Recorder) *Service {
	return &Service{
		reconciler: NewReconciler(api),
		audit:      recorder,
	}
}

// Reconciler exposes the underlying reconciler, used by the refresher and
// during startup
func (s *Service) Reconciler() *Reconciler {
	return s.reconciler
}

// ListState is the deposit screen state: rows in server order plus the
// operator's selection
type ListState struct {
	Requests  []types.DepositRequest `json:"requests"`
	Selection []int64                `json:"selection"`
}

func (s *Service) State() ListState {
	return ListState{
		Requests:  s.reconciler.Requests(),
		Selection: s.reconciler.Selection(),
	}
}

func (s *Service) Approve(ctx context.Context, operator string, id int64) error {
	if err := s.reconciler.ApproveOne(ctx, id); err != nil {
		return err
	}
	s.audit.Record(operator, audit.ActionDepositApprove, "deposit_request", strconv.FormatInt(id, 10), "")
	return nil
}

func (s *Service) Reject(ctx context.Context, operator string, id int64, reason string) error {
	if err := s.reconciler.RejectOne(ctx, id, reason); err != nil {
		return err
	}
	s.audit.Record(operator, audit.ActionDepositReject, "deposit_request", strconv.FormatInt(id, 10), reason)
	return nil
}

func (s *Service) Bulk(ctx context.Context, operator string, ids []int64, action, reason string) error {
	if err := s.reconciler.BulkProcess(ctx, ids, action, reason); err != nil {
		return err
	}
	s.audit.Record(operator, audit.ActionDepositBulk, "deposit_request", formatIDs(ids),
		fmt.Sprintf("action=%s reason=%s", action, reason))
	return nil
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// GinHandlers contains HTTP handlers for the deposit request screen
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// ListHandler handles GET requests for the current list and selection state
func (h *GinHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.service.State())
	}
}

// RefreshHandler handles POST requests to refetch the list from the backend
func (h *GinHandlers) RefreshHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.service.Reconciler().Reload(c.Request.Context()); err != nil {
			respondDepositError(c, err)
			return
		}
		response.Success(c, h.service.State())
	}
}

// ToggleSelectHandler handles POST requests to flip one row's selection
// URL parameter: request_id
func (h *GinHandlers) ToggleSelectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := requestIDParam(c)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if !h.service.Reconciler().ToggleSelect(id) {
			response.NotFound(c, "Deposit request not found")
			return
		}
		response.Success(c, h.service.State())
	}
}

// ToggleSelectAllHandler handles POST requests to select or clear every row
func (h *GinHandlers) ToggleSelectAllHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.service.Reconciler().ToggleSelectAll()
		response.Success(c, h.service.State())
	}
}

// ApproveHandler handles POST requests to approve one deposit request
// URL parameter: request_id
func (h *GinHandlers) ApproveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := requestIDParam(c)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if err := h.service.Approve(c.Request.Context(), operatorFrom(c), id); err != nil {
			respondDepositError(c, err)
			return
		}
		response.Success(c, h.service.State())
	}
}

// RejectHandler handles POST requests to reject one deposit request
// URL parameter: request_id, body: {reason}
func (h *GinHandlers) RejectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := requestIDParam(c)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		var body struct {
			Reason string `json:"reason"`
		}
		// Body is optional, a bare reject carries no reason
		_ = c.ShouldBindJSON(&body)

		if err := h.service.Reject(c.Request.Context(), operatorFrom(c), id, body.Reason); err != nil {
			respondDepositError(c, err)
			return
		}
		response.Success(c, h.service.State())
	}
}

// BulkHandler handles POST requests to apply one action to many requests
// Body: {request_ids, action, reason?}
func (h *GinHandlers) BulkHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			RequestIDs []int64 `json:"request_ids"`
			Action     string  `json:"action"`
			Reason     string  `json:"reason"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if err := h.service.Bulk(c.Request.Context(), operatorFrom(c), body.RequestIDs, body.Action, body.Reason); err != nil {
			respondDepositError(c, err)
			return
		}
		response.Success(c, h.service.State())
	}
}

func requestIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("request_id"), 10, 64)
	if err != nil {
		return 0, errors.New("invalid request id")
	}
	return id, nil
}

func operatorFrom(c *gin.Context) string {
	if claims, exists := c.Get("claims"); exists {
		return auth.GetOperatorID(claims)
	}
	return ""
}

// respondDepositError maps reconciler and backend failures onto the console
// error taxonomy
func respondDepositError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrActionInFlight):
		response.ActionInFlight(c, err.Error())
	case errors.Is(err, ErrUnknownRequest):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrInvalidAction):
		response.BadRequest(c, err.Error())
	case errors.Is(err, backend.ErrSessionInvalid):
		response.SessionInvalid(c, "Session invalid, please log in again")
	default:
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
			response.BadRequest(c, statusErr.Body)
			return
		}
		response.UpstreamError(c, err.Error())
	}
}
