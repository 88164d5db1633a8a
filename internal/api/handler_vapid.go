package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"panel-backend/internal/apperr"
)

// GetVAPIDPublicKey returns the VAPID public key to the client.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		_ = c.Error(apperr.Display("Push notifications are not configured on this panel."))
		return
	}

	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
