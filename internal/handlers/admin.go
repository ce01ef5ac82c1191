package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/ashendes/payplus-connector/internal/apperrors"
	"github.com/ashendes/payplus-connector/internal/models"
	"github.com/ashendes/payplus-connector/internal/store"
)

const maxListLimit = 500

func (h *Handler) listTransactions(c *gin.Context) {
	filter := store.Filter{Status: models.TransactionStatus(c.Query("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + strconv.Quote(string(filter.Status))})
		return
	}

	var err error
	if filter.Limit, err = queryInt(c, "limit", store.DefaultLimit); err != nil || filter.Limit < 1 || filter.Limit > maxListLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and " + strconv.Itoa(maxListLimit)})
		return
	}
	if filter.Offset, err = queryInt(c, "offset", 0); err != nil || filter.Offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must not be negative"})
		return
	}

	txns, err := h.txns.List(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("Failed to list transactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list transactions"})
		return
	}
	total, err := h.txns.Count(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("Failed to count transactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": txns,
		"total":        total,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})
}

func (h *Handler) getTransaction(c *gin.Context) {
	txn, err := h.txns.FindByOrderReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		log.WithError(err).Error("Failed to load transaction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transaction"})
		return
	}
	c.JSON(http.StatusOK, txn)
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
