package audit

import (
	"strconv"
	"time"

	"github.com/brokerdesk/admin-api/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const defaultListLimit = 100

// Recorder writes the admin action trail. Recording is best-effort: a failed
// write is logged but never fails the action it describes, the backend has
// already acknowledged it.
type Recorder struct {
	db *Database
}

func NewRecorder(gormDB *gorm.DB) *Recorder {
	return &Recorder{
		db: NewDatabase(gormDB),
	}
}

// Record persists one acknowledged action
func (r *Recorder) Record(operator, action, targetType, targetID, detail string) {
	record := &ActionRecord{
		EntryID:    "ACT_" + uuid.New().String(),
		Operator:   operator,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}

	if err := r.db.CreateActionRecord(record); err != nil {
		log.Error().Err(err).
			Str("operator", operator).
			Str("action", action).
			Str("target_id", targetID).
			Msg("failed to write audit record")
	}
}

// List returns recent action records, optionally filtered by operator
func (r *Recorder) List(operator string, limit int) ([]ActionRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if operator != "" {
		return r.db.ListActionRecordsByOperator(operator, limit)
	}
	return r.db.ListActionRecords(limit)
}

// GinHandlers contains HTTP handlers for the audit trail
type GinHandlers struct {
	recorder *Recorder
}

func NewGinHandlers(recorder *Recorder) *GinHandlers {
	return &GinHandlers{
		recorder: recorder,
	}
}

// ListHandler handles GET requests for recent admin actions
// Query parameters: operator (optional filter), limit
func (h *GinHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultListLimit
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		records, err := h.recorder.List(c.Query("operator"), limit)
		response.Handle(c, records, err)
	}
}
