package deposits

import (
	"context"
	"errors"
	"testing"

	"github.com/brokerdesk/admin-api/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackendDown = errors.New("backend down")

type fakeDepositsAPI struct {
	listResult []types.DepositRequest
	listErr    error
	approveErr error
	rejectErr  error
	bulkErr    error

	bulkIDs    []int64
	bulkAction string
	bulkReason string

	// When set, ApproveDeposit blocks until the channel closes. Used to hold
	// the in-flight slot open from a test.
	approveGate chan struct{}
	approveBusy chan struct{}
}

func (f *fakeDepositsAPI) ListDeposits(_ context.Context) ([]types.DepositRequest, error) {
	return f.listResult, f.listErr
}

func (f *fakeDepositsAPI) ApproveDeposit(_ context.Context, _ int64) error {
	if f.approveGate != nil {
		f.approveBusy <- struct{}{}
		<-f.approveGate
	}
	return f.approveErr
}

func (f *fakeDepositsAPI) RejectDeposit(_ context.Context, _ int64, _ string) error {
	return f.rejectErr
}

func (f *fakeDepositsAPI) BulkProcessDeposits(_ context.Context, ids []int64, action, reason string) error {
	f.bulkIDs = ids
	f.bulkAction = action
	f.bulkReason = reason
	return f.bulkErr
}

func pendingRequests(ids ...int64) []types.DepositRequest {
	requests := make([]types.DepositRequest, len(ids))
	for i, id := range ids {
		requests[i] = types.DepositRequest{
			ID:     id,
			Amount: decimal.NewFromInt(1000 * id),
			Status: types.DepositStatusPending,
		}
	}
	return requests
}

func loadedReconciler(t *testing.T, api *fakeDepositsAPI) *Reconciler {
	t.Helper()
	r := NewReconciler(api)
	require.NoError(t, r.Reload(context.Background()))
	return r
}

func TestReconciler_ReloadKeepsServerOrder(t *testing.T) {
	api := &fakeDepositsAPI{listResult: pendingRequests(3, 1, 2)}
	r := loadedReconciler(t, api)

	requests := r.Requests()
	require.Len(t, requests, 3)
	assert.Equal(t, int64(3), requests[0].ID)
	assert.Equal(t, int64(1), requests[1].ID)
	assert.Equal(t, int64(2), requests[2].ID)
}

func TestReconciler_ReloadPrunesSelection(t *testing.T) {
	api := &fakeDepositsAPI{listResult: pendingRequests(1, 2, 3)}
	r := loadedReconciler(t, api)

	r.ToggleSelect(1)
	r.ToggleSelect(3)

	// Request 3 disappears and request 1 is no longer pending after refetch
	api.listResult = []types.DepositRequest{
		{ID: 1, Status: types.DepositStatusApproved},
		{ID: 2, Status: types.DepositStatusPending},
	}
	require.NoError(t, r.Reload(context.Background()))

	assert.Empty(t, r.Selection())
}

func TestReconciler_ToggleSelect(t *testing.T) {
	api := &fakeDepositsAPI{listResult: pendingRequests(1, 2)}
	r := loadedReconciler(t, api)

	assert.True(t, r.ToggleSelect(1))
	assert.Equal(t, []int64{1}, r.Selection())

	// Toggling again removes it
	assert.True(t, r.ToggleSelect(1))
	assert.Empty(t, r.Selection())

	// Unknown ids never enter the selection
	assert.False(t, r.ToggleSelect(99))
	assert.Empty(t, r.Selection())
}

func TestReconciler_ToggleSelectAllTwiceRestoresEmpty(t *testing.T) {
	api := &fakeDepositsAPI{listResult: pendingRequests(1, 2, 3)}
	r := loadedReconciler(t, api)

	r.ToggleSelectAll()
	assert.Equal(t, []int64{1, 2, 3}, r.Selection())

	r.ToggleSelectAll()
	assert.Empty(t, r.Selection())
}

func TestReconciler_ToggleSelectAllCompletesPartialSelection(t *testing.T) {
	api := &fakeDepositsAPI{listResult: pendingRequests(1, 2, 3)}
	r := loadedReconciler(t, api)

	r.ToggleSelect(2)
	r.ToggleSelectAll()
	assert.Equal(t, []int64{1, 2, 3}, r.Selection())
}

func TestReconciler_ApproveOne(t *testing.T) {
	api := &fakeDepositsAPI{listResult: pendingRequests(1, 2)}
	r := loadedReconciler(t, api)
	r.ToggleSelect(1)

	require.NoError(t, r.ApproveOne(context.Background(), 1))

	requests := r.Requests()
	assert.Equal(t, types.DepositStatusApproved, requests[0].Status)
	assert.Equal(t, types.DepositStatusPending, requests[1].Status)
	assert.Empty(t, r.Selection(), "processed id must leave the selection")
}

func TestReconciler_ApproveOneFailureLeavesStateUntouched(t *testing.T) {
	api := &fakeDepositsAPI{
		listResult: pendingRequests(1, 2),
		approveErr: errBackendDown,
	}
	r := loadedReconciler(t, api)
	r.ToggleSelect(1)

	err := r.ApproveOne(context.Background(), 1)
	require.ErrorIs(t, err, errBackendDown)

	for _, req := range r.Requests() {
		assert.Equal(t, types.DepositStatusPending, req.Status)
	}
	assert.Equal(t, []int64{1}, r.Selection())
}

func TestReconciler_ApproveOneUnknownID(t *testing.T) {
	api := &fakeDepositsAPI{listResult: pendingRequests(1)}
	r := loadedReconciler(t, api)

	err := r.ApproveOne(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUnknownRequest)
}

func TestReconciler_RejectOne(t *testing.T) {
	api := &fakeDepositsAPI{listResult: pendingRequests(1, 2)}
	r := loadedReconciler(t, api)

	require.NoError(t, r.RejectOne(context.Background(), 2, "unreadable proof"))

	requests := r.Requests()
	assert.Equal(t, types.DepositStatusPending, requests[0].Status)
	assert.Equal(t, types.DepositStatusRejected, requests[1].Status)
}

func TestReconciler_BulkProcessSuccess(t *testing.T) {
	api := &fakeDepositsAPI{listResult: pendingRequests(1, 2, 3)}
	r := loadedReconciler(t, api)

	r.ToggleSelect(1)
	r.ToggleSelect(2)

	require.NoError(t, r.BulkProcess(context.Background(), []int64{1, 2}, types.BulkActionApprove, ""))

	requests := r.Requests()
	assert.Equal(t, types.DepositStatusApproved, requests[0].Status)
	assert.Equal(t, types.DepositStatusApproved, requests[1].Status)
	assert.Equal(t, types.DepositStatusPending, requests[2].Status)

	assert.Empty(t, r.Selection(), "selection is cleared unconditionally on success")
	assert.Equal(t, []int64{1, 2}, api.bulkIDs)
	assert.Equal(t, types.BulkActionApprove, api.bulkAction)
}

func TestReconciler_BulkProcessFailureLeavesStateUntouched(t *testing.T) {
	api := &fakeDepositsAPI{
		listResult: pendingRequests(1, 2),
		bulkErr:    errBackendDown,
	}
	r := loadedReconciler(t, api)

	r.ToggleSelect(1)
	r.ToggleSelect(2)

	err := r.BulkProcess(context.Background(), []int64{1, 2}, types.BulkActionReject, "fraud")
	require.ErrorIs(t, err, errBackendDown)

	for _, req := range r.Requests() {
		assert.Equal(t, types.DepositStatusPending, req.Status)
	}
	assert.Equal(t, []int64{1, 2}, r.Selection(), "selection survives a failed bulk action")
}

func TestReconciler_BulkProcessValidation(t *testing.T) {
	api := &fakeDepositsAPI{listResult: pendingRequests(1)}
	r := loadedReconciler(t, api)

	assert.ErrorIs(t, r.BulkProcess(context.Background(), []int64{1}, "archive", ""), ErrInvalidAction)
	assert.ErrorIs(t, r.BulkProcess(context.Background(), nil, types.BulkActionApprove, ""), ErrUnknownRequest)
}

func TestReconciler_SecondActionRefusedWhileInFlight(t *testing.T) {
	api := &fakeDepositsAPI{
		listResult:  pendingRequests(1, 2),
		approveGate: make(chan struct{}),
		approveBusy: make(chan struct{}, 1),
	}
	r := loadedReconciler(t, api)

	done := make(chan error, 1)
	go func() {
		done <- r.ApproveOne(context.Background(), 1)
	}()

	// Wait until the first action holds the slot inside the backend call
	<-api.approveBusy

	assert.ErrorIs(t, r.ApproveOne(context.Background(), 2), ErrActionInFlight)
	assert.ErrorIs(t, r.BulkProcess(context.Background(), []int64{2}, types.BulkActionApprove, ""), ErrActionInFlight)
	assert.ErrorIs(t, r.Reload(context.Background()), ErrActionInFlight)

	close(api.approveGate)
	require.NoError(t, <-done)

	// Slot is free again afterwards
	api.approveGate = nil
	require.NoError(t, r.ApproveOne(context.Background(), 2))
}
