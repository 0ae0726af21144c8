package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/farellandr/ticketgate/internal/helpers"
	"github.com/farellandr/ticketgate/internal/models"
	"github.com/farellandr/ticketgate/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TicketHandler struct {
	tickets *services.TicketService
}

func NewTicketHandler(tickets *services.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

type CheckTicketIDRequest struct {
	TicketID string `json:"ticketId"`
}

type StoreTicketRequest struct {
	TicketID         string           `json:"ticketId" binding:"required"`
	Email            string           `json:"email" binding:"required"`
	Category         string           `json:"category" binding:"required"`
	Quantity         *int             `json:"quantity"`
	Amount           *decimal.Decimal `json:"amount"`
	IsPaid           *bool            `json:"isPaid"`
	PaymentReference *string          `json:"paymentReference"`
	PurchaseDate     *time.Time       `json:"purchaseDate"`
	SendEmail        bool             `json:"sendEmail"`
	Perks            []string         `json:"perks"`
}

type SendEmailRequest struct {
	Description string   `json:"description"`
	Perks       []string `json:"perks"`
	ImageURL    string   `json:"imageUrl"`
}

type ValidateQRRequest struct {
	QRData string `json:"qrData" binding:"required"`
}

func (h *TicketHandler) CheckTicketID(c *gin.Context) {
	var req CheckTicketIDRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TicketID == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Ticket ID is required.")
		return
	}

	result, err := h.tickets.IsUnique(c.Request.Context(), req.TicketID)
	if err != nil {
		helpers.RespondWithServiceError(c, err, "Failed to check ticket ID.")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *TicketHandler) StoreTicket(c *gin.Context) {
	var req StoreTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Required fields missing.")
		return
	}

	result, err := h.tickets.Create(c.Request.Context(), services.CreateInput{
		NewTicket: models.NewTicket{
			TicketID:         req.TicketID,
			Email:            req.Email,
			Category:         req.Category,
			Quantity:         req.Quantity,
			Amount:           req.Amount,
			IsPaid:           req.IsPaid,
			PaymentReference: req.PaymentReference,
			PurchaseDate:     req.PurchaseDate,
		},
		SendEmail: req.SendEmail,
		Perks:     req.Perks,
	})
	if err != nil {
		helpers.RespondWithServiceError(c, err, "Failed to store ticket.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Ticket stored successfully!",
		"ticket":       result.Ticket,
		"notification": result.Notification,
	})
}

func (h *TicketHandler) ListTickets(c *gin.Context) {
	tickets, err := h.tickets.List(c.Request.Context())
	if err != nil {
		helpers.RespondWithServiceError(c, err, "Failed to fetch tickets.")
		return
	}

	c.JSON(http.StatusOK, tickets)
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticket, err := h.tickets.Get(c.Request.Context(), c.Param("ticketId"))
	if err != nil {
		helpers.RespondWithServiceError(c, err, "Failed to fetch ticket.")
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// UpdateTicket binds the body into models.TicketPatch, so fields other than
// isPaid and isUsed are dropped by decoding.
func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	var patch models.TicketPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	ticket, err := h.tickets.Update(c.Request.Context(), c.Param("ticketId"), patch)
	if err != nil {
		helpers.RespondWithServiceError(c, err, "Failed to update ticket.")
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) ValidateTicket(c *gin.Context) {
	result, err := h.tickets.Validate(c.Request.Context(), c.Param("ticketId"))
	h.respondValidation(c, result, err)
}

func (h *TicketHandler) ValidateQR(c *gin.Context) {
	var req ValidateQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	result, err := h.tickets.ValidateQR(c.Request.Context(), req.QRData)
	if err != nil && (errors.Is(err, models.ErrInvalidSignature) || errors.Is(err, models.ErrInvalidInput)) {
		status := helpers.StatusForError(err)
		c.JSON(status, services.ValidationResult{Valid: false, Message: "Invalid QR code"})
		return
	}
	h.respondValidation(c, result, err)
}

// respondValidation always answers with a ValidationResult body so scanners
// can render every response the same way.
func (h *TicketHandler) respondValidation(c *gin.Context, result *services.ValidationResult, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case result != nil:
		_ = c.Error(err)
		c.JSON(helpers.StatusForError(err), result)
	default:
		_ = c.Error(err)
		c.JSON(helpers.StatusForError(err), services.ValidationResult{
			Valid:   false,
			Message: "Failed to validate ticket",
		})
	}
}

func (h *TicketHandler) CheckIn(c *gin.Context) {
	result, err := h.tickets.CheckIn(c.Request.Context(), c.Param("ticketId"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, services.CheckInResult{Admitted: false, Message: models.MessageNotFound})
			return
		}
		helpers.RespondWithServiceError(c, err, "Failed to check in ticket.")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *TicketHandler) GetTicketQR(c *gin.Context) {
	png, err := h.tickets.QRCode(c.Request.Context(), c.Param("ticketId"))
	if err != nil {
		helpers.RespondWithServiceError(c, err, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *TicketHandler) SendTicketEmail(c *gin.Context) {
	var req SendEmailRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload.")
			return
		}
	}

	outcome, err := h.tickets.SendTicketEmail(c.Request.Context(), c.Param("ticketId"), services.EmailInput{
		Description: req.Description,
		Perks:       req.Perks,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		if errors.Is(err, models.ErrNotificationFailure) {
			_ = c.Error(err)
			c.JSON(http.StatusBadGateway, gin.H{
				"message":      "Failed to send ticket email.",
				"notification": outcome,
			})
			return
		}
		helpers.RespondWithServiceError(c, err, "Failed to send ticket email.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Ticket email sent.",
		"notification": outcome,
	})
}
