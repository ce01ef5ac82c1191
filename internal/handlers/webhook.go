package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/ashendes/payplus-connector/internal/apperrors"
)

// maxWebhookBody bounds the callback body the connector reads
const maxWebhookBody = 1 << 20

// webhook answers the gateway with plain text only. 200 stops retries, 5xx
// asks for a redelivery.
func (h *Handler) webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	body, err := c.GetRawData()
	if err != nil {
		log.WithError(err).Warn("Failed to read PayPlus webhook body")
		c.String(http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	_, err = h.webhooks.Process(c.Request.Context(), body)
	switch kind := apperrors.KindOf(err); {
	case err == nil:
		c.String(http.StatusOK, "OK")
	case kind == apperrors.KindInvalidSignature:
		c.String(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	case kind == apperrors.KindMissingFields:
		c.String(http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
	default:
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
