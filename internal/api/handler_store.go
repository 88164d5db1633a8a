package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"panel-backend/internal/apperr"
	"panel-backend/internal/deploy"
	"panel-backend/internal/mw"
)

// GetStoreNodes lists the nodes servers can be deployed to.
func (h *Handler) GetStoreNodes(c *gin.Context) {
	nodes, err := h.Deploy.Nodes(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, collection("node", nodes, transformStoreNode))
}

// GetStoreNests lists the nests that can be deployed.
func (h *Handler) GetStoreNests(c *gin.Context) {
	nests, err := h.Deploy.Nests(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, collection("nest", nests, transformNest))
}

// GetStoreEggs lists the eggs of the nest given by the id query parameter,
// or of the first public nest.
func (h *Handler) GetStoreEggs(c *gin.Context) {
	var nestID int64
	if raw := c.Query("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			_ = c.Error(apperr.ErrNotFound)
			return
		}
		nestID = id
	}

	eggs, err := h.Deploy.Eggs(c.Request.Context(), nestID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, collection("egg", eggs, transformEgg))
}

// DeployServer creates a server from the store.
func (h *Handler) DeployServer(c *gin.Context) {
	var req deploy.Request
	if !bindJSON(c, &req) {
		return
	}

	server, err := h.Deploy.Deploy(c.Request.Context(), mw.CurrentUser(c).ID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": server.UUIDShort})
}

type redeemRequest struct {
	Code string `json:"code" binding:"required"`
}

// RedeemCoupon credits the caller with a coupon's value.
func (h *Handler) RedeemCoupon(c *gin.Context) {
	var req redeemRequest
	if !bindJSON(c, &req) {
		return
	}

	coupon, err := h.Coupons.Redeem(c.Request.Context(), mw.CurrentUser(c).ID, req.Code)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credits": coupon.Cr})
}
