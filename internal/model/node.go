package model

import (
	"fmt"
	"time"
)

// Node is a machine running the Node Agent.
type Node struct {
	ID           int64  `gorm:"primaryKey"`
	Name         string `gorm:"size:191;not null"`
	FQDN         string `gorm:"column:fqdn;size:191;not null"`
	Scheme       string `gorm:"size:8;not null;default:https"`
	DaemonListen int    `gorm:"not null;default:8080"`
	DaemonToken  string `gorm:"not null"`
	Deployable   bool   `gorm:"not null"`
	DeployFee    int64  `gorm:"not null;default:0"`
	Memory       int    `gorm:"not null"`
	Disk         int    `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Allocations []Allocation `gorm:"foreignKey:NodeID"`
}

// AgentURL returns the base URL of the node's agent API.
func (n Node) AgentURL() string {
	return fmt.Sprintf("%s://%s:%d", n.Scheme, n.FQDN, n.DaemonListen)
}

// Allocation is an ip:port pair on a node, optionally bound to a server.
type Allocation struct {
	ID       int64  `gorm:"primaryKey"`
	NodeID   int64  `gorm:"not null;uniqueIndex:idx_allocation_node_ip_port"`
	IP       string `gorm:"column:ip;size:45;not null;uniqueIndex:idx_allocation_node_ip_port"`
	Port     int    `gorm:"not null;uniqueIndex:idx_allocation_node_ip_port"`
	ServerID *int64 `gorm:"index"`

	Node Node `gorm:"constraint:OnDelete:CASCADE"`
}
