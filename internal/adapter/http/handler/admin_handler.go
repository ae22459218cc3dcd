package handler

import (
	"tx-resource-manager/internal/adapter/http/dto"
	"tx-resource-manager/internal/manager"
	"tx-resource-manager/internal/pool"
	"tx-resource-manager/pkg/response"
	"tx-resource-manager/pkg/txerror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler exposes the pool and the transaction registry.
type AdminHandler struct {
	pool    *pool.Pool
	manager *manager.TransactionManager
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(p *pool.Pool, m *manager.TransactionManager) *AdminHandler {
	return &AdminHandler{pool: p, manager: m}
}

// GetPoolStats handles GET /api/v1/pool/stats.
func (h *AdminHandler) GetPoolStats(c *gin.Context) {
	stats := h.pool.Stats()
	response.OK(c, dto.PoolStatsResponse{
		Available: stats.Available,
		Borrowed:  stats.Borrowed,
		Total:     stats.Total,
		MinSize:   stats.MinSize,
		MaxSize:   stats.MaxSize,
		Unpooled:  stats.Unpooled,
	})
}

// ListTransactions handles GET /api/v1/transactions.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	response.OK(c, gin.H{
		"mode":         h.manager.Mode(),
		"counters":     h.manager.Counters(),
		"transactions": h.manager.List(),
	})
}

// GetTransaction handles GET /api/v1/transactions/:id.
func (h *AdminHandler) GetTransaction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, txerror.ErrTransactionNotFound(c.Param("id")))
		return
	}

	coord, ok := h.manager.Get(id)
	if !ok {
		response.Error(c, txerror.ErrTransactionNotFound(id.String()))
		return
	}

	response.OK(c, gin.H{
		"id":                coord.ID(),
		"state":             coord.State(),
		"mode":              coord.Mode(),
		"participant_count": coord.ParticipantCount(),
		"started_at":        coord.StartedAt(),
		"heuristic":         coord.Heuristic(),
	})
}
