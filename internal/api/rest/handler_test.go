package rest

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optionstack/option-indexer/internal/domain"
	"github.com/optionstack/option-indexer/internal/indexer"
	"github.com/optionstack/option-indexer/internal/store"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time                         { return c.now }
func (c *fakeClock) Since(t time.Time) time.Duration        { return c.now.Sub(t) }
func (c *fakeClock) Unix(sec int64, nsec int64) time.Time   { return time.Unix(sec, nsec) }
func (c *fakeClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

const holderAddress = "0xA000000000000000000000000000000000000001"

var apiNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestRouter seeds a store with two parents (one exercised), one child,
// one balance, and one transaction, and mounts the full route table on it
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.New(&fakeClock{now: apiNow})
	expiration := uint64(apiNow.Add(24 * time.Hour).Unix())

	st.UpsertOption(&domain.Option{
		TokenID:        1,
		Creator:        holderAddress,
		StrikePrice:    big.NewInt(50000000000),
		ExpirationTime: expiration,
		Premium:        big.NewInt(2500000000),
		IsParent:       true,
	})
	st.UpsertOption(&domain.Option{
		TokenID:        2,
		Creator:        holderAddress,
		StrikePrice:    big.NewInt(60000000000),
		ExpirationTime: expiration,
		Premium:        big.NewInt(3000000000),
		IsParent:       true,
	})
	st.MarkExercised(2, holderAddress, big.NewInt(100))
	st.UpsertOption(&domain.Option{
		TokenID:        3,
		Creator:        holderAddress,
		StrikePrice:    big.NewInt(52000000000),
		ExpirationTime: expiration,
		Premium:        big.NewInt(1500000000),
		ParentID:       1,
	})
	// balances are keyed by the checksummed form the decoder emits
	st.ApplyTransfer(
		domain.NormalizeAddress("0xB000000000000000000000000000000000000002"),
		domain.NormalizeAddress(holderAddress), 1, 2)
	st.AppendTransaction(domain.TransactionRecord{
		Type:    domain.TransactionOptionCreated,
		TokenID: 1,
		TxHash:  "0xtx1",
	})

	router := gin.New()
	SetupRoutes(router, NewHandler(st, func() indexer.Status {
		return indexer.Status{State: indexer.StateIdle}
	}))
	return router
}

func doRequest(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestListOptions(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/api/v1/options")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), body["total"])

	options, ok := body["options"].([]any)
	require.True(t, ok)
	first, ok := options[0].(map[string]any)
	require.True(t, ok)
	// most-recent-first
	assert.Equal(t, float64(3), first["token_id"])
}

func TestListAvailableOptions(t *testing.T) {
	router := newTestRouter(t)

	// token 2 is exercised; 1 and 3 remain available
	w, body := doRequest(t, router, "/api/v1/options/available")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["total"])
}

func TestListParentOptions(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/api/v1/options/parents")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["total"])
}

func TestGetOption(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/api/v1/options/1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["token_id"])
	assert.Equal(t, true, body["is_parent"])
}

func TestGetOptionNotFound(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/api/v1/options/999")
	assert.Equal(t, http.StatusNotFound, w.Code)

	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "not_found", errBody["code"])
}

func TestGetOptionBadID(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/api/v1/options/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bad_request", errBody["code"])
}

func TestListChildren(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/api/v1/options/1/children")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total"])

	// a parent with no children is an empty list, not an error
	w, body = doRequest(t, router, "/api/v1/options/2/children")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body["total"])
}

func TestGetHierarchy(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/api/v1/options/1/hierarchy")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total_children"])
	assert.Equal(t, float64(1), body["active_children"])

	// a child id is not a hierarchy root
	w, _ = doRequest(t, router, "/api/v1/options/3/hierarchy")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doRequest(t, router, "/api/v1/options/999/hierarchy")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUserOptions(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/api/v1/users/"+holderAddress+"/options")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total"])

	options, ok := body["options"].([]any)
	require.True(t, ok)
	first, ok := options[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), first["balance"])

	// unknown holder gets an empty list
	w, body = doRequest(t, router, "/api/v1/users/0xC000000000000000000000000000000000000003/options")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body["total"])
}

func TestGetUserBalances(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/api/v1/users/"+holderAddress+"/balances")
	assert.Equal(t, http.StatusOK, w.Code)

	balances, ok := body["balances"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), balances["1"])
}

func TestGetCapitalEfficiencyStats(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/api/v1/stats/capital-efficiency")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(2), body["parents"])
	assert.Equal(t, float64(1), body["children"])
	// traditional 110000000000, layered 7000000000 → 93%
	assert.Equal(t, "93%", body["savings_percentage"])
}

func TestListRecentTransactions(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/api/v1/transactions")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total"])

	w, body = doRequest(t, router, "/api/v1/transactions?limit=1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total"])

	w, _ = doRequest(t, router, "/api/v1/transactions?limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, router, "/api/v1/transactions?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	w, body := doRequest(t, router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	scanner, ok := body["scanner"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "idle", scanner["state"])
}
