package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-token", 5*time.Second)
}

func TestClient_ListDepositsDecodesEnvelope(t *testing.T) {
	var gotAuth string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/deposits", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"data": [
				{"id": 7, "amount": "2500.50", "status": "pending", "user_id": 3},
				{"id": 8, "amount": "100", "status": "approved", "user_id": 4}
			]
		}`))
	})

	requests, err := client.ListDeposits(context.Background())
	require.NoError(t, err)
	require.Len(t, requests, 2)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, int64(7), requests[0].ID)
	assert.Equal(t, "2500.5", requests[0].Amount.String())
	assert.True(t, requests[0].Pending())
	assert.False(t, requests[1].Pending())
}

func TestClient_AuthFailureMapsToSessionInvalid(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		})

		_, err := client.ListDeposits(context.Background())
		assert.ErrorIs(t, err, ErrSessionInvalid)
	}
}

func TestClient_ClientErrorKeepsBodyVerbatim(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"success":false,"error":{"code":"VALIDATION_ERROR","message":"amount exceeds limit"}}`))
	})

	err := client.ApproveDeposit(context.Background(), 7)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "amount exceeds limit")
}

func TestClient_MutationsCarryIdempotencyKey(t *testing.T) {
	keys := make(map[string]struct{})
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		assert.NotEmpty(t, key)
		keys[key] = struct{}{}
		w.Write([]byte(`{"success":true}`))
	})

	require.NoError(t, client.ApproveDeposit(context.Background(), 1))
	require.NoError(t, client.RejectDeposit(context.Background(), 2, "duplicate"))
	_, err := client.UpdateCustomer(context.Background(), "CUST_1", map[string]interface{}{})
	require.NoError(t, err)

	// Each mutation gets its own key
	assert.Len(t, keys, 3)
}

func TestClient_RejectDepositOmitsEmptyReason(t *testing.T) {
	var body map[string]interface{}
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"success":true}`))
	})

	require.NoError(t, client.RejectDeposit(context.Background(), 9, ""))
	_, present := body["reason"]
	assert.False(t, present)

	require.NoError(t, client.RejectDeposit(context.Background(), 9, "unreadable proof"))
	assert.Equal(t, "unreadable proof", body["reason"])
}

func TestClient_BulkProcessPayloadShape(t *testing.T) {
	var body map[string]interface{}
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/deposits/bulk", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"success":true}`))
	})

	require.NoError(t, client.BulkProcessDeposits(context.Background(), []int64{1, 2, 3}, "approve", ""))

	assert.Equal(t, "approve", body["action"])
	ids, ok := body["requestIds"].([]interface{})
	require.True(t, ok)
	assert.Len(t, ids, 3)
}

func TestClient_GetCustomerReturnsUntypedRecord(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/customers/CUST_1", r.URL.Path)
		w.Write([]byte(`{
			"success": true,
			"data": {"name": "Priya", "status": "active", "auto_close_trades_loss_percent": 0}
		}`))
	})

	raw, err := client.GetCustomer(context.Background(), "CUST_1")
	require.NoError(t, err)

	assert.Equal(t, "Priya", raw["name"])
	assert.Equal(t, "active", raw["status"])
}

func TestClient_UnreachableBackend(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := NewClient(server.URL, "test-token", time.Second)

	_, err := client.ListDeposits(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionInvalid)
}
