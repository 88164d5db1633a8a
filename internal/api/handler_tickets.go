package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"panel-backend/internal/mw"
	"panel-backend/internal/tickets"
)

// GetTickets lists the caller's tickets.
func (h *Handler) GetTickets(c *gin.Context) {
	rows, err := h.Tickets.ListForUser(c.Request.Context(), mw.CurrentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, collection("ticket", rows, transformTicket))
}

// CreateTicket opens a ticket.
func (h *Handler) CreateTicket(c *gin.Context) {
	var req tickets.CreateRequest
	if !bindJSON(c, &req) {
		return
	}

	ticket, err := h.Tickets.Create(c.Request.Context(), mw.CurrentUser(c).ID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, item{Object: "ticket", Attributes: transformTicket(*ticket)})
}

// GetTicket returns a ticket with its messages.
func (h *Handler) GetTicket(c *gin.Context) {
	id, ok := idParam(c, "ticket")
	if !ok {
		return
	}

	ticket, err := h.Tickets.Get(c.Request.Context(), mw.CurrentUser(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"object":     "ticket",
		"attributes": transformTicket(*ticket),
		"messages":   collection("ticket_message", ticket.Messages, transformTicketMessage),
	})
}

// CreateTicketMessage replies to a ticket.
func (h *Handler) CreateTicketMessage(c *gin.Context) {
	id, ok := idParam(c, "ticket")
	if !ok {
		return
	}
	var req tickets.MessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.Tickets.Reply(c.Request.Context(), mw.CurrentUser(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, item{Object: "ticket_message", Attributes: transformTicketMessage(*msg)})
}

// GetAllTickets lists every ticket for admins.
func (h *Handler) GetAllTickets(c *gin.Context) {
	rows, err := h.Tickets.ListAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, collection("ticket", rows, transformTicket))
}

// UpdateTicketStatus changes a ticket's state.
func (h *Handler) UpdateTicketStatus(c *gin.Context) {
	id, ok := idParam(c, "ticket")
	if !ok {
		return
	}
	var req tickets.StatusRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Tickets.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
