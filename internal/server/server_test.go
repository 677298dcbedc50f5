package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianwealth/ledger/internal/app"
	"github.com/meridianwealth/ledger/internal/common"
	"github.com/meridianwealth/ledger/internal/models"
	"github.com/meridianwealth/ledger/internal/services/ledger"
	"github.com/meridianwealth/ledger/internal/storage/memory"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Auth.JWTSecret = testSecret

	logger := common.NewSilentLogger()
	store := memory.NewManager(logger)
	store.PutProfile(&models.ClientProfile{ID: "cp-1", Level: models.LevelClient, OrganizationID: "org-1"})
	store.PutProfile(&models.ClientProfile{ID: "cp-2", Level: models.LevelClient, OrganizationID: "org-1"})

	a := &app.App{
		Config:  cfg,
		Logger:  logger,
		Storage: store,
		Ledger:  ledger.NewService(store, logger, cfg.Ledger),
	}
	return NewServer(a)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func adminToken(t *testing.T) string {
	return signToken(t, jwt.MapClaims{"sub": "u-admin", "level": "L5_ADMIN"})
}

func clientToken(t *testing.T, profileID string) string {
	return signToken(t, jwt.MapClaims{
		"sub":        "u-" + profileID,
		"level":      "L2_CLIENT",
		"profile_id": profileID,
	})
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func buyPayload(profileID string) map[string]interface{} {
	return map[string]interface{}{
		"transaction_date":  "2024-03-04T00:00:00Z",
		"transaction_type":  "BUY",
		"security_id":       "AAPL",
		"quantity":          "10",
		"price":             "100",
		"master_account_id": "ma-1",
		"client_profile_id": profileID,
	}
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = doRequest(t, srv, http.MethodGet, "/api/version", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/transactions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestInvalidTokenRejected(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/transactions", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndList(t *testing.T) {
	srv := newTestServer(t)
	token := adminToken(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", token, buyPayload("cp-1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.CreateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Created.ID)
	assert.Equal(t, models.StatusDraft, created.Created.EntryStatus)
	require.NotNil(t, created.Created.Amount)
	assert.Equal(t, "1000.00", created.Created.Amount.StringFixed(2))

	rec = doRequest(t, srv, http.MethodGet, "/api/transactions?limit=10", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list models.ListResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Pagination.Total)
}

func TestCreateValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", adminToken(t), map[string]interface{}{})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Violations, "transaction_date is required")
}

func TestCreateCrossProfileForbidden(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", clientToken(t, "cp-2"), buyPayload("cp-1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListIsScoped(t *testing.T) {
	srv := newTestServer(t)
	admin := adminToken(t)

	require.Equal(t, http.StatusCreated,
		doRequest(t, srv, http.MethodPost, "/api/transactions", admin, buyPayload("cp-1")).Code)
	require.Equal(t, http.StatusCreated,
		doRequest(t, srv, http.MethodPost, "/api/transactions", admin, buyPayload("cp-2")).Code)

	rec := doRequest(t, srv, http.MethodGet, "/api/transactions", clientToken(t, "cp-1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list models.ListResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Pagination.Total)
	assert.Equal(t, "cp-1", list.Rows[0].ClientProfileID)
}

func TestDeleteLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := adminToken(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", token, buyPayload("cp-1"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.CreateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.Created.ID

	// Post it, then deletion conflicts.
	rec = doRequest(t, srv, http.MethodPut, "/api/transactions/"+id, token,
		map[string]interface{}{"entry_status": "POSTED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, srv, http.MethodDelete, "/api/transactions/"+id, token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/api/transactions/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkCreateEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := map[string]interface{}{
		"operation":    "create",
		"transactions": []interface{}{buyPayload("cp-1"), map[string]interface{}{}},
	}
	rec := doRequest(t, srv, http.MethodPost, "/api/transactions/bulk", adminToken(t), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result models.BulkCreateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, models.BulkPartialSuccess, result.Status)
	assert.Len(t, result.Successful, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 2, result.Failed[0].Row)
}

func TestBulkUnknownOperation(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions/bulk", adminToken(t),
		map[string]interface{}{"operation": "archive"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkPostEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := adminToken(t)

	require.Equal(t, http.StatusCreated,
		doRequest(t, srv, http.MethodPost, "/api/transactions", token, buyPayload("cp-1")).Code)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions/bulk", token,
		map[string]interface{}{"operation": "post", "account_id": "master_ma-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var affected models.BulkAffected
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &affected))
	assert.Equal(t, 1, affected.Affected)
}

func TestBalanceEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := adminToken(t)

	deposit := map[string]interface{}{
		"transaction_date":  "2024-03-04T00:00:00Z",
		"transaction_type":  "TRANSFER_IN",
		"amount":            "500",
		"master_account_id": "ma-1",
		"client_profile_id": "cp-1",
	}
	require.Equal(t, http.StatusCreated,
		doRequest(t, srv, http.MethodPost, "/api/transactions", token, deposit).Code)
	require.Equal(t, http.StatusCreated,
		doRequest(t, srv, http.MethodPost, "/api/transactions", token, buyPayload("cp-1")).Code)

	rec := doRequest(t, srv, http.MethodGet, "/api/transactions/balance", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp balanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "-500", resp.Balance.String())
}

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	var buf bytes.Buffer
	prev := responseLogger
	responseLogger = common.NewLoggerWithOutput("error", &buf)
	defer func() { responseLogger = prev }()

	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]interface{}{"fn": func() {}})

	assert.Contains(t, buf.String(), "Failed to encode HTTP response")
}

func TestInvalidJSONRejected(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
