package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"panel-backend/internal/apperr"
	"panel-backend/internal/model"
	"panel-backend/internal/mw"
)

// GetServers lists the caller's servers.
func (h *Handler) GetServers(c *gin.Context) {
	servers, err := h.store.ServersByOwner(c.Request.Context(), mw.CurrentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, collection("server", servers, transformServer))
}

// GetServerAnalytics returns the retained usage samples of a server with a
// short summary.
func (h *Handler) GetServerAnalytics(c *gin.Context) {
	server, ok := h.ownedServer(c)
	if !ok {
		return
	}

	report, err := h.Analytics.Report(c.Request.Context(), server.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ownedServer loads the :server parameter. Servers owned by someone else are
// reported as missing unless the caller is an admin.
func (h *Handler) ownedServer(c *gin.Context) (*model.Server, bool) {
	server, err := h.store.ServerByIdentifier(c.Request.Context(), c.Param("server"))
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}

	user := mw.CurrentUser(c)
	if server.OwnerID != user.ID && !user.RootAdmin {
		_ = c.Error(apperr.ErrNotFound)
		return nil, false
	}
	return server, true
}
