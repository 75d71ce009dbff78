package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/brokerdesk/admin-api/internal/audit"
	"github.com/brokerdesk/admin-api/internal/auth"
	"github.com/brokerdesk/admin-api/internal/backend"
	"github.com/brokerdesk/admin-api/internal/customer"
	"github.com/brokerdesk/admin-api/internal/database"
	"github.com/brokerdesk/admin-api/internal/deposits"
	"github.com/brokerdesk/admin-api/internal/types"
	"github.com/brokerdesk/admin-api/pkg/middleware"
)

const (
	gatewayAddress = "http://localhost:8080"
	backendAddress = "http://localhost:9090"
	jwtSecret      = "simulation-secret-key"
	apiKey         = "sim-api-key"
	apiSecret      = "sim-api-secret"
	numRequests    = 12
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// stubBackend plays the remote trading platform: it owns the deposit ledger
// and customer records and answers in the standard envelope
type stubBackend struct {
	mu        sync.Mutex
	deposits  []types.DepositRequest
	customers map[string]map[string]interface{}
}

func newStubBackend() *stubBackend {
	sb := &stubBackend{
		customers: make(map[string]map[string]interface{}),
	}

	for i := 1; i <= numRequests; i++ {
		sb.deposits = append(sb.deposits, types.DepositRequest{
			ID:        int64(i),
			Amount:    decimal.NewFromInt(int64(rand.Intn(90000) + 10000)),
			Status:    types.DepositStatusPending,
			UserID:    int64(100 + i),
			CreatedAt: time.Now().Add(-time.Duration(i) * time.Hour),
		})
	}

	// A legacy-shaped record: flat fields, suffixed option limits
	sb.customers["CUST_1"] = map[string]interface{}{
		"name":                           "Priya",
		"mobile":                         "9990001111",
		"status":                         "active",
		"auto_close_trades_loss_percent": 0,
		"options_config": map[string]interface{}{
			"trade_allowed":               true,
			"max_size_all_equity_options": 250.0,
		},
	}

	return sb
}

func (sb *stubBackend) run() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	ok := func(c *gin.Context, data interface{}) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/deposits", func(c *gin.Context) {
			sb.mu.Lock()
			defer sb.mu.Unlock()
			ok(c, sb.deposits)
		})

		v1.POST("/deposits/approve", func(c *gin.Context) {
			var body struct {
				RequestID int64 `json:"requestId"`
			}
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false})
				return
			}
			sb.setStatus([]int64{body.RequestID}, types.DepositStatusApproved)
			ok(c, gin.H{})
		})

		v1.POST("/deposits/reject", func(c *gin.Context) {
			var body struct {
				RequestID int64  `json:"requestId"`
				Reason    string `json:"reason"`
			}
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false})
				return
			}
			sb.setStatus([]int64{body.RequestID}, types.DepositStatusRejected)
			ok(c, gin.H{})
		})

		v1.POST("/deposits/bulk", func(c *gin.Context) {
			var body struct {
				RequestIDs []int64 `json:"requestIds"`
				Action     string  `json:"action"`
			}
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false})
				return
			}
			status := types.DepositStatusApproved
			if body.Action == types.BulkActionReject {
				status = types.DepositStatusRejected
			}
			sb.setStatus(body.RequestIDs, status)
			ok(c, gin.H{})
		})

		v1.GET("/customers/:customer_id", func(c *gin.Context) {
			sb.mu.Lock()
			defer sb.mu.Unlock()
			record, exists := sb.customers[c.Param("customer_id")]
			if !exists {
				c.JSON(http.StatusNotFound, gin.H{"success": false})
				return
			}
			ok(c, record)
		})

		v1.PUT("/customers/:customer_id", func(c *gin.Context) {
			var payload map[string]interface{}
			if err := c.ShouldBindJSON(&payload); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false})
				return
			}
			sb.mu.Lock()
			sb.customers[c.Param("customer_id")] = payload
			sb.mu.Unlock()
			ok(c, payload)
		})

		v1.POST("/customers", func(c *gin.Context) {
			var payload map[string]interface{}
			if err := c.ShouldBindJSON(&payload); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false})
				return
			}
			id := fmt.Sprintf("CUST_%d", rand.Intn(10000))
			sb.mu.Lock()
			sb.customers[id] = payload
			sb.mu.Unlock()
			ok(c, payload)
		})
	}

	return router.Run(":9090")
}

func (sb *stubBackend) setStatus(ids []int64, status string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	for _, id := range ids {
		for i := range sb.deposits {
			if sb.deposits[i].ID == id {
				sb.deposits[i].Status = status
			}
		}
	}
}

// consoleClient drives the gateway the way the console front end would
type consoleClient struct {
	baseURL   string
	authToken string
	client    *http.Client
}

func newConsoleClient() (*consoleClient, error) {
	cc := &consoleClient{
		baseURL: gatewayAddress,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	token, err := cc.authenticate()
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	cc.authToken = token

	return cc, nil
}

func (cc *consoleClient) authenticate() (string, error) {
	credentials := map[string]string{
		"api_key":    apiKey,
		"api_secret": apiSecret,
	}

	body, err := json.Marshal(credentials)
	if err != nil {
		return "", err
	}

	resp, err := cc.client.Post(
		fmt.Sprintf("%s/api/v1/auth/token", cc.baseURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Token string `json:"jwt_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Data.Token, nil
}

// call performs one authenticated gateway request and decodes the envelope
func (cc *consoleClient) call(method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, cc.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", cc.authToken))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := cc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}

	var result struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return json.Unmarshal(result.Data, out)
}

// startGateway wires the admin gateway against the stub backend, mirroring
// cmd/server without config files or signal handling
func startGateway() error {
	db, err := database.NewDatabase("simulation.db")
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	backendClient := backend.NewClient(backendAddress, "stub-token", 10*time.Second)

	authService := auth.NewService(jwtSecret, 24*time.Hour)
	authService.RegisterCredentials(apiKey, apiSecret)
	authHandlers := auth.NewGinHandlers(authService)

	auditRecorder := audit.NewRecorder(db)
	auditHandlers := audit.NewGinHandlers(auditRecorder)

	customerService := customer.NewService(backendClient, auditRecorder)
	customerHandlers := customer.NewGinHandlers(customerService)

	depositService := deposits.NewService(backendClient, auditRecorder)
	depositHandlers := deposits.NewGinHandlers(depositService)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		customers := v1.Group("/customers")
		customers.Use(middleware.JWTAuth(jwtSecret))
		{
			customers.POST("", customerHandlers.CreateCustomerHandler())
			customers.GET("/:customer_id", customerHandlers.GetCustomerHandler())
			customers.PUT("/:customer_id", customerHandlers.UpdateCustomerHandler())
		}

		depositsGroup := v1.Group("/deposits")
		depositsGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			depositsGroup.GET("", depositHandlers.ListHandler())
			depositsGroup.POST("/refresh", depositHandlers.RefreshHandler())
			depositsGroup.POST("/selection/all", depositHandlers.ToggleSelectAllHandler())
			depositsGroup.POST("/selection/:request_id", depositHandlers.ToggleSelectHandler())
			depositsGroup.POST("/bulk", depositHandlers.BulkHandler())
			depositsGroup.POST("/:request_id/approve", depositHandlers.ApproveHandler())
			depositsGroup.POST("/:request_id/reject", depositHandlers.RejectHandler())
		}

		auditGroup := v1.Group("/audit")
		auditGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			auditGroup.GET("", auditHandlers.ListHandler())
		}
	}

	return router.Run(":8080")
}

type listState struct {
	Requests  []types.DepositRequest `json:"requests"`
	Selection []int64                `json:"selection"`
}

// main runs an operator session against the gateway: refresh the deposit
// list, approve one request, reject one, bulk-approve a selection, then fix
// up a legacy-shaped customer record
func main() {
	stub := newStubBackend()
	go func() {
		if err := stub.run(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start stub backend")
		}
	}()
	go func() {
		if err := startGateway(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start gateway")
		}
	}()

	// Wait for both servers to come up
	time.Sleep(2 * time.Second)

	console, err := newConsoleClient()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize console client")
	}

	var state listState
	if err := console.call("POST", "/api/v1/deposits/refresh", nil, &state); err != nil {
		log.Fatal().Err(err).Msg("Failed to refresh deposit list")
	}
	log.Info().Int("requests", len(state.Requests)).Msg("Deposit list loaded")

	// Approve the first request, reject the second
	if err := console.call("POST", fmt.Sprintf("/api/v1/deposits/%d/approve", state.Requests[0].ID), nil, &state); err != nil {
		log.Error().Err(err).Msg("Failed to approve request")
	} else {
		log.Info().Int64("request_id", state.Requests[0].ID).Msg("Request approved")
	}

	rejectBody := map[string]string{"reason": "unreadable payment proof"}
	if err := console.call("POST", fmt.Sprintf("/api/v1/deposits/%d/reject", state.Requests[1].ID), rejectBody, &state); err != nil {
		log.Error().Err(err).Msg("Failed to reject request")
	} else {
		log.Info().Int64("request_id", state.Requests[1].ID).Msg("Request rejected")
	}

	// Select a handful of pending rows and bulk-approve them
	var pendingIDs []int64
	for _, r := range state.Requests {
		if r.Status == types.DepositStatusPending {
			pendingIDs = append(pendingIDs, r.ID)
		}
		if len(pendingIDs) == 5 {
			break
		}
	}
	for _, id := range pendingIDs {
		if err := console.call("POST", fmt.Sprintf("/api/v1/deposits/selection/%d", id), nil, &state); err != nil {
			log.Error().Err(err).Int64("request_id", id).Msg("Failed to toggle selection")
		}
	}
	log.Info().Ints64("selection", state.Selection).Msg("Rows selected")

	bulkBody := map[string]interface{}{
		"request_ids": state.Selection,
		"action":      types.BulkActionApprove,
	}
	if err := console.call("POST", "/api/v1/deposits/bulk", bulkBody, &state); err != nil {
		log.Error().Err(err).Msg("Failed to bulk approve")
	} else {
		log.Info().Int("selection_after", len(state.Selection)).Msg("Bulk approval applied")
	}

	// Fetch the legacy-shaped customer, flip a flag and resubmit
	var record map[string]interface{}
	if err := console.call("GET", "/api/v1/customers/CUST_1", nil, &record); err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch customer")
	}
	personal := record["personal_details"].(map[string]interface{})
	log.Info().Str("name", fmt.Sprintf("%v", personal["name"])).Msg("Customer fetched and normalized")

	cfg := record["config"].(map[string]interface{})
	cfg["autoCloseTrades"] = false
	var updated map[string]interface{}
	if err := console.call("PUT", "/api/v1/customers/CUST_1", record, &updated); err != nil {
		log.Error().Err(err).Msg("Failed to update customer")
	} else {
		log.Info().Msg("Customer updated")
	}

	// Summarize the session
	var trail []audit.ActionRecord
	if err := console.call("GET", "/api/v1/audit?limit=50", nil, &trail); err != nil {
		log.Error().Err(err).Msg("Failed to fetch audit trail")
	}

	approved, rejected := 0, 0
	for _, r := range state.Requests {
		switch r.Status {
		case types.DepositStatusApproved:
			approved++
		case types.DepositStatusRejected:
			rejected++
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("ADMIN CONSOLE SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf(`
Deposit requests:   %d
Approved:           %d
Rejected:           %d
Still pending:      %d
Audit entries:      %d
`, len(state.Requests), approved, rejected,
		len(state.Requests)-approved-rejected, len(trail))
	fmt.Println(strings.Repeat("=", 60))

	log.Info().
		Int("approved", approved).
		Int("rejected", rejected).
		Int("audit_entries", len(trail)).
		Msg("Simulation completed")
}
