package api

import (
	"time"

	"panel-backend/internal/model"
)

// item is a single resource in the response envelope.
type item struct {
	Object     string `json:"object"`
	Attributes any    `json:"attributes"`
}

// list is a collection of resources in the response envelope.
type list struct {
	Object string `json:"object"`
	Data   []item `json:"data"`
}

func collection[T any](object string, rows []T, transform func(T) any) list {
	out := list{Object: "list", Data: make([]item, 0, len(rows))}
	for _, row := range rows {
		out.Data = append(out.Data, item{Object: object, Attributes: transform(row)})
	}
	return out
}

type nodeAttributes struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	FQDN         string `json:"fqdn"`
	Scheme       string `json:"scheme"`
	DaemonListen int    `json:"daemon_listen"`
	Deployable   bool   `json:"deployable"`
	DeployFee    int64  `json:"deploy_fee"`
	Memory       int    `json:"memory"`
	Disk         int    `json:"disk"`
}

func transformNode(n model.Node) any {
	return nodeAttributes{
		ID:           n.ID,
		Name:         n.Name,
		FQDN:         n.FQDN,
		Scheme:       n.Scheme,
		DaemonListen: n.DaemonListen,
		Deployable:   n.Deployable,
		DeployFee:    n.DeployFee,
		Memory:       n.Memory,
		Disk:         n.Disk,
	}
}

// transformStoreNode hides connection details from regular users.
func transformStoreNode(n model.Node) any {
	return map[string]any{
		"id":         n.ID,
		"name":       n.Name,
		"fqdn":       n.FQDN,
		"deploy_fee": n.DeployFee,
	}
}

func transformNest(n model.Nest) any {
	return map[string]any{
		"id":          n.ID,
		"name":        n.Name,
		"description": n.Description,
		"private":     n.Private,
	}
}

func transformEgg(e model.Egg) any {
	return map[string]any{
		"id":           e.ID,
		"nest":         e.NestID,
		"name":         e.Name,
		"description":  e.Description,
		"docker_image": e.DockerImage,
	}
}

type serverAttributes struct {
	ID          int64     `json:"internal_id"`
	Identifier  string    `json:"identifier"`
	UUID        string    `json:"uuid"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Owner       int64     `json:"owner"`
	Node        string    `json:"node"`
	Status      string    `json:"status"`
	Limits      limits    `json:"limits"`
	Features    features  `json:"feature_limits"`
	CreatedAt   time.Time `json:"created_at"`
}

type limits struct {
	CPU    int `json:"cpu"`
	Memory int `json:"memory"`
	Disk   int `json:"disk"`
}

type features struct {
	Allocations int `json:"allocations"`
	Backups     int `json:"backups"`
	Databases   int `json:"databases"`
}

func transformServer(s model.Server) any {
	return serverAttributes{
		ID:          s.ID,
		Identifier:  s.UUIDShort,
		UUID:        s.UUID,
		Name:        s.Name,
		Description: s.Description,
		Owner:       s.OwnerID,
		Node:        s.Node.Name,
		Status:      s.Status,
		Limits:      limits{CPU: s.CPU, Memory: s.Memory, Disk: s.Disk},
		Features: features{
			Allocations: s.AllocationLimit,
			Backups:     s.BackupLimit,
			Databases:   s.DatabaseLimit,
		},
		CreatedAt: s.CreatedAt,
	}
}

func transformUser(u model.User) any {
	return u
}

func transformCoupon(c model.Coupon) any {
	return map[string]any{
		"id":      c.ID,
		"code":    c.Code,
		"cr":      c.Cr,
		"uses":    c.Uses,
		"expires": c.Expires,
		"expired": c.Expired,
	}
}

func transformTicket(t model.Ticket) any {
	return map[string]any{
		"id":         t.ID,
		"user_id":    t.UserID,
		"title":      t.Title,
		"content":    t.Content,
		"status":     t.Status,
		"created_at": t.CreatedAt,
		"updated_at": t.UpdatedAt,
	}
}

func transformTicketMessage(m model.TicketMessage) any {
	return map[string]any{
		"id":         m.ID,
		"user_id":    m.UserID,
		"content":    m.Content,
		"created_at": m.CreatedAt,
	}
}
