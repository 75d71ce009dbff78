package deposits

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/brokerdesk/admin-api/internal/types"
	"github.com/rs/zerolog/log"
)

var (
	// ErrActionInFlight is returned when a status-changing action is refused
	// because a prior one has not completed. Overlapping bulk actions are
	// never queued.
	ErrActionInFlight = errors.New("another deposit action is still in flight")

	// ErrUnknownRequest is returned for an id not present in the loaded list
	ErrUnknownRequest = errors.New("deposit request not found")

	// ErrInvalidAction is returned for a bulk action other than approve/reject
	ErrInvalidAction = errors.New("invalid bulk action")
)

// API is the slice of the trading backend the deposit screens consume
type API interface {
	ListDeposits(ctx context.Context) ([]types.DepositRequest, error)
	ApproveDeposit(ctx context.Context, requestID int64) error
	RejectDeposit(ctx context.Context, requestID int64, reason string) error
	BulkProcessDeposits(ctx context.Context, requestIDs []int64, action, reason string) error
}

// Reconciler owns the pending-request list and the operator's selection set,
// reconciling both with backend outcomes without a full refetch per action.
//
// Local state mutates strictly after the backend acknowledges: a failed call
// leaves rows and selection exactly as they were, so what the console shows
// is never ahead of the last confirmed upstream state. Rows are never removed
// locally; a processed row keeps its slot until the next reload.
type Reconciler struct {
	mu        sync.Mutex
	api       API
	requests  []types.DepositRequest
	selection map[int64]struct{}
	busy      bool
}

func NewReconciler(api API) *Reconciler {
	return &Reconciler{
		api:       api,
		selection: make(map[int64]struct{}),
	}
}

// begin claims the single in-flight action slot
func (r *Reconciler) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy {
		return ErrActionInFlight
	}
	r.busy = true
	return nil
}

func (r *Reconciler) end() {
	r.mu.Lock()
	r.busy = false
	r.mu.Unlock()
}

// Reload refetches the full list from the backend, replacing local rows in
// server order and pruning the selection down to ids that are still loaded
// and still pending. Refused while an action is in flight.
func (r *Reconciler) Reload(ctx context.Context) error {
	if err := r.begin(); err != nil {
		return err
	}
	defer r.end()

	fetched, err := r.api.ListDeposits(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch deposit requests: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = fetched

	pending := make(map[int64]struct{}, len(fetched))
	for i := range fetched {
		if fetched[i].Pending() {
			pending[fetched[i].ID] = struct{}{}
		}
	}
	for id := range r.selection {
		if _, ok := pending[id]; !ok {
			delete(r.selection, id)
		}
	}

	log.Debug().Int("requests", len(fetched)).Int("selected", len(r.selection)).Msg("deposit list reloaded")
	return nil
}

// Requests returns a copy of the loaded rows in server order
func (r *Reconciler) Requests() []types.DepositRequest {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.DepositRequest, len(r.requests))
	copy(out, r.requests)
	return out
}

// Selection returns the selected ids in ascending order
func (r *Reconciler) Selection() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int64, 0, len(r.selection))
	for id := range r.selection {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ToggleSelect flips membership of id in the selection set. Ids not present
// in the loaded list are ignored, so the selection can never reference an
// unknown row.
func (r *Reconciler) ToggleSelect(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(id) < 0 {
		return false
	}

	if _, selected := r.selection[id]; selected {
		delete(r.selection, id)
	} else {
		r.selection[id] = struct{}{}
	}
	return true
}

// ToggleSelectAll selects every loaded row, or clears the selection if every
// row is already selected. This is a strict toggle over the full row set, not
// a pending-only filter.
func (r *Reconciler) ToggleSelectAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.selection) == len(r.requests) && len(r.requests) > 0 {
		r.selection = make(map[int64]struct{})
		return
	}

	r.selection = make(map[int64]struct{}, len(r.requests))
	for i := range r.requests {
		r.selection[r.requests[i].ID] = struct{}{}
	}
}

// ApproveOne approves a single request. The row's status changes only after
// the backend acknowledges; on failure nothing moves.
func (r *Reconciler) ApproveOne(ctx context.Context, id int64) error {
	return r.processOne(ctx, id, types.BulkActionApprove, "")
}

// RejectOne rejects a single request. The reason travels to the backend for
// audit and display, it is not kept on the local row.
func (r *Reconciler) RejectOne(ctx context.Context, id int64, reason string) error {
	return r.processOne(ctx, id, types.BulkActionReject, reason)
}

func (r *Reconciler) processOne(ctx context.Context, id int64, action, reason string) error {
	if err := r.begin(); err != nil {
		return err
	}
	defer r.end()

	r.mu.Lock()
	idx := r.indexOf(id)
	r.mu.Unlock()
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownRequest, id)
	}

	var err error
	if action == types.BulkActionApprove {
		err = r.api.ApproveDeposit(ctx, id)
	} else {
		err = r.api.RejectDeposit(ctx, id, reason)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if idx = r.indexOf(id); idx >= 0 {
		r.requests[idx].Status = statusFor(action)
	}
	delete(r.selection, id)

	return nil
}

// BulkProcess applies one action to every id in one backend call. On success
// every targeted row moves to the new status and the selection is cleared
// unconditionally, processed rows are no longer eligible for further bulk
// action. On failure no row changes and the selection stays intact so the
// operator can retry.
func (r *Reconciler) BulkProcess(ctx context.Context, ids []int64, action, reason string) error {
	if action != types.BulkActionApprove && action != types.BulkActionReject {
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: empty id list", ErrUnknownRequest)
	}

	if err := r.begin(); err != nil {
		return err
	}
	defer r.end()

	if err := r.api.BulkProcessDeposits(ctx, ids, action, reason); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	status := statusFor(action)
	targeted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		targeted[id] = struct{}{}
	}
	for i := range r.requests {
		if _, ok := targeted[r.requests[i].ID]; ok {
			r.requests[i].Status = status
		}
	}

	r.selection = make(map[int64]struct{})

	log.Info().Int("count", len(ids)).Str("action", action).Msg("bulk deposit action applied")
	return nil
}

// indexOf finds a request by id; callers must hold the mutex
func (r *Reconciler) indexOf(id int64) int {
	for i := range r.requests {
		if r.requests[i].ID == id {
			return i
		}
	}
	return -1
}

func statusFor(action string) string {
	if action == types.BulkActionApprove {
		return types.DepositStatusApproved
	}
	return types.DepositStatusRejected
}
