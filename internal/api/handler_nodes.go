package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"panel-backend/internal/apperr"
	"panel-backend/internal/model"
	"panel-backend/internal/parse"
)

type createNodeRequest struct {
	Name         string `json:"name" binding:"required,max=191"`
	FQDN         string `json:"fqdn" binding:"required,hostname_rfc1123"`
	Scheme       string `json:"scheme" binding:"omitempty,oneof=http https"`
	DaemonListen int    `json:"daemon_listen" binding:"omitempty,min=1,max=65535"`
	DaemonToken  string `json:"daemon_token" binding:"required"`
	Deployable   bool   `json:"deployable"`
	DeployFee    int64  `json:"deploy_fee" binding:"min=0"`
	Memory       int    `json:"memory" binding:"required,min=1"`
	Disk         int    `json:"disk" binding:"required,min=1"`
	IP           string `json:"allocation_ip" binding:"omitempty,ip"`
	Ports        string `json:"allocation_ports"`
}

// GetNodes lists every node.
func (h *Handler) GetNodes(c *gin.Context) {
	nodes, err := h.store.ListNodes(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, collection("node", nodes, transformNode))
}

// CreateNode adds a node together with its allocations. Ports use the
// "25565-25570,25600" syntax.
func (h *Handler) CreateNode(c *gin.Context) {
	var req createNodeRequest
	if !bindJSON(c, &req) {
		return
	}

	var ports []int
	if req.Ports != "" {
		if req.IP == "" {
			_ = c.Error(apperr.Display("An allocation IP is required when ports are given."))
			return
		}
		parsed, err := parse.ParsePorts(req.Ports)
		if err != nil {
			_ = c.Error(apperr.Display("%v", err))
			return
		}
		ports = parsed
	}

	node := &model.Node{
		Name:         req.Name,
		FQDN:         req.FQDN,
		Scheme:       req.Scheme,
		DaemonListen: req.DaemonListen,
		DaemonToken:  req.DaemonToken,
		Deployable:   req.Deployable,
		DeployFee:    req.DeployFee,
		Memory:       req.Memory,
		Disk:         req.Disk,
	}
	if node.Scheme == "" {
		node.Scheme = "https"
	}
	if node.DaemonListen == 0 {
		node.DaemonListen = 8080
	}

	if err := h.store.CreateNode(c.Request.Context(), node, req.IP, ports); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"object":      "node",
		"attributes":  transformNode(*node),
		"allocations": len(node.Allocations),
	})
}
