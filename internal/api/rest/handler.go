package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/optionstack/option-indexer/internal/domain"
	"github.com/optionstack/option-indexer/internal/indexer"
	"github.com/optionstack/option-indexer/internal/store"
)

// defaultTransactionLimit bounds /transactions when no limit is given
const defaultTransactionLimit = 50

// Handler defines the REST API handlers over the query service
type Handler interface {
	// ListOptions returns all options, most-recent-first
	// GET /api/v1/options
	ListOptions(c *gin.Context)

	// ListAvailableOptions returns options neither exercised nor expired
	// GET /api/v1/options/available
	ListAvailableOptions(c *gin.Context)

	// ListParentOptions returns root options
	// GET /api/v1/options/parents
	ListParentOptions(c *gin.Context)

	// GetOption returns a single option by token id
	// GET /api/v1/options/:id
	GetOption(c *gin.Context)

	// ListChildren returns the children of a parent option
	// GET /api/v1/options/:id/children
	ListChildren(c *gin.Context)

	// GetHierarchy returns a parent with its children and counts
	// GET /api/v1/options/:id/hierarchy
	GetHierarchy(c *gin.Context)

	// ListUserOptions returns the options a holder has balances in
	// GET /api/v1/users/:address/options
	ListUserOptions(c *gin.Context)

	// GetUserBalances returns a holder's tokenID→quantity map
	// GET /api/v1/users/:address/balances
	GetUserBalances(c *gin.Context)

	// GetCapitalEfficiencyStats returns aggregate collateral statistics
	// GET /api/v1/stats/capital-efficiency
	GetCapitalEfficiencyStats(c *gin.Context)

	// ListRecentTransactions returns the transaction history tail
	// GET /api/v1/transactions?limit=N
	ListRecentTransactions(c *gin.Context)

	// HealthCheck returns service health plus the scan loop status
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store      store.Store
	scanStatus func() indexer.Status
}

// NewHandler creates a new REST API handler over the given store. scanStatus
// may be nil when no scanner runs (tests).
func NewHandler(st store.Store, scanStatus func() indexer.Status) Handler {
	return &handler{store: st, scanStatus: scanStatus}
}

// ListOptions returns all options, most-recent-first
func (h *handler) ListOptions(c *gin.Context) {
	options := h.store.GetAll()
	c.JSON(http.StatusOK, gin.H{"options": options, "total": len(options)})
}

// ListAvailableOptions returns options neither exercised nor expired
func (h *handler) ListAvailableOptions(c *gin.Context) {
	options := h.store.GetAvailable()
	c.JSON(http.StatusOK, gin.H{"options": options, "total": len(options)})
}

// ListParentOptions returns root options
func (h *handler) ListParentOptions(c *gin.Context) {
	options := h.store.GetParents()
	c.JSON(http.StatusOK, gin.H{"options": options, "total": len(options)})
}

// GetOption returns a single option by token id
func (h *handler) GetOption(c *gin.Context) {
	tokenID, ok := parseTokenID(c)
	if !ok {
		return
	}

	opt, err := h.store.GetByID(tokenID)
	if err != nil {
		if errors.Is(err, domain.ErrOptionNotFound) {
			respondNotFound(c, "Option not found")
			return
		}
		respondInternalError(c, err, "Failed to get option")
		return
	}

	c.JSON(http.StatusOK, opt)
}

// ListChildren returns the children of a parent option
func (h *handler) ListChildren(c *gin.Context) {
	tokenID, ok := parseTokenID(c)
	if !ok {
		return
	}

	children := h.store.GetChildren(tokenID)
	c.JSON(http.StatusOK, gin.H{"options": children, "total": len(children)})
}

// GetHierarchy returns a parent with its children and counts
func (h *handler) GetHierarchy(c *gin.Context) {
	tokenID, ok := parseTokenID(c)
	if !ok {
		return
	}

	hierarchy, err := h.store.GetHierarchy(tokenID)
	if err != nil {
		if errors.Is(err, domain.ErrOptionNotFound) || errors.Is(err, domain.ErrNotParent) {
			respondNotFound(c, "Parent option not found")
			return
		}
		respondInternalError(c, err, "Failed to get hierarchy")
		return
	}

	c.JSON(http.StatusOK, hierarchy)
}

// ListUserOptions returns the options a holder has balances in
func (h *handler) ListUserOptions(c *gin.Context) {
	address, ok := parseAddress(c)
	if !ok {
		return
	}

	options := h.store.GetByUser(address)
	c.JSON(http.StatusOK, gin.H{"options": options, "total": len(options)})
}

// GetUserBalances returns a holder's tokenID→quantity map
func (h *handler) GetUserBalances(c *gin.Context) {
	address, ok := parseAddress(c)
	if !ok {
		return
	}

	balances := h.store.GetUserBalances(address)
	c.JSON(http.StatusOK, gin.H{"address": address, "balances": balances})
}

// GetCapitalEfficiencyStats returns aggregate collateral statistics
func (h *handler) GetCapitalEfficiencyStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.CapitalEfficiencyStats())
}

// ListRecentTransactions returns the transaction history tail
func (h *handler) ListRecentTransactions(c *gin.Context) {
	limit := defaultTransactionLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondBadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	transactions := h.store.RecentTransactions(limit)
	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "total": len(transactions)})
}

// HealthCheck returns service health plus the scan loop status
func (h *handler) HealthCheck(c *gin.Context) {
	payload := gin.H{
		"status":  "ok",
		"service": "option-indexer",
	}
	if h.scanStatus != nil {
		payload["scanner"] = h.scanStatus()
	}
	c.JSON(http.StatusOK, payload)
}

// parseTokenID reads the :id path parameter, responding 400 on garbage
func parseTokenID(c *gin.Context) (uint64, bool) {
	raw := c.Param("id")
	tokenID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respondBadRequest(c, "Invalid token id", raw)
		return 0, false
	}
	return tokenID, true
}

// parseAddress reads and normalizes the :address path parameter
func parseAddress(c *gin.Context) (string, bool) {
	raw := c.Param("address")
	if raw == "" {
		respondBadRequest(c, "Address is required")
		return "", false
	}
	return domain.NormalizeAddress(raw), true
}
