package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"panel-backend/internal/approvals"
	"panel-backend/internal/coupons"
	"panel-backend/internal/model"
)

// GetApprovals shows the approval settings and pending users.
func (h *Handler) GetApprovals(c *gin.Context) {
	overview, err := h.Approvals.Overview(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled": overview.Enabled,
		"webhook": overview.Webhook,
		"users":   collection("user", overview.Users, transformUser),
	})
}

// UpdateApprovals stores the approval settings.
func (h *Handler) UpdateApprovals(c *gin.Context) {
	var req approvals.Settings
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Approvals.UpdateSettings(c.Request.Context(), req); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BulkApprovals approves or denies every pending user.
func (h *Handler) BulkApprovals(c *gin.Context) {
	n, err := h.Approvals.Bulk(c.Request.Context(), c.Param("action"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": n})
}

// ApproveUser approves a single pending user.
func (h *Handler) ApproveUser(c *gin.Context) {
	id, ok := idParam(c, "user")
	if !ok {
		return
	}

	user, err := h.Approvals.Approve(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, item{Object: "user", Attributes: transformUser(*user)})
}

// DenyUser deletes a single pending user.
func (h *Handler) DenyUser(c *gin.Context) {
	id, ok := idParam(c, "user")
	if !ok {
		return
	}

	if _, err := h.Approvals.Deny(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

type verifyRequest struct {
	Verified bool `json:"verified"`
}

// VerifyUser sets a user's verified flag.
func (h *Handler) VerifyUser(c *gin.Context) {
	id, ok := idParam(c, "user")
	if !ok {
		return
	}
	var req verifyRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.store.SetUserVerified(c.Request.Context(), id, req.Verified); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCoupons lists every coupon.
func (h *Handler) GetCoupons(c *gin.Context) {
	rows, err := h.Coupons.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, collection("coupon", rows, transformCoupon))
}

// CreateCoupon adds a coupon.
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req coupons.CreateRequest
	if !bindJSON(c, &req) {
		return
	}

	coupon, err := h.Coupons.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, item{Object: "coupon", Attributes: transformCoupon(*coupon)})
}

// DeleteCoupon removes a coupon.
func (h *Handler) DeleteCoupon(c *gin.Context) {
	id, ok := idParam(c, "coupon")
	if !ok {
		return
	}

	if err := h.Coupons.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createNestRequest struct {
	Name        string `json:"name" binding:"required,max=191"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
}

// GetNests lists every nest, private ones included.
func (h *Handler) GetNests(c *gin.Context) {
	nests, err := h.store.ListNests(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, collection("nest", nests, transformNest))
}

// CreateNest adds a nest.
func (h *Handler) CreateNest(c *gin.Context) {
	var req createNestRequest
	if !bindJSON(c, &req) {
		return
	}

	nest := &model.Nest{Name: req.Name, Description: req.Description, Private: req.Private}
	if err := h.store.CreateNest(c.Request.Context(), nest); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, item{Object: "nest", Attributes: transformNest(*nest)})
}

type createEggRequest struct {
	Name        string `json:"name" binding:"required,max=191"`
	Description string `json:"description"`
	DockerImage string `json:"docker_image" binding:"required"`
	Startup     string `json:"startup"`
}

// CreateEgg adds an egg to a nest.
func (h *Handler) CreateEgg(c *gin.Context) {
	id, ok := idParam(c, "nest")
	if !ok {
		return
	}
	var req createEggRequest
	if !bindJSON(c, &req) {
		return
	}

	nest, err := h.store.NestByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	egg := &model.Egg{
		NestID:      nest.ID,
		Name:        req.Name,
		Description: req.Description,
		DockerImage: req.DockerImage,
		Startup:     req.Startup,
	}
	if err := h.store.CreateEgg(c.Request.Context(), egg); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, item{Object: "egg", Attributes: transformEgg(*egg)})
}

// GetAllServers lists every server on the panel.
func (h *Handler) GetAllServers(c *gin.Context) {
	servers, err := h.store.ListServers(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, collection("server", servers, transformServer))
}

// DeleteServer removes a server from its node and the panel. Pass
// ?force=true to ignore node errors.
func (h *Handler) DeleteServer(c *gin.Context) {
	force := c.Query("force") == "true"
	if err := h.Deploy.Delete(c.Request.Context(), c.Param("server"), force); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
