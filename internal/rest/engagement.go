package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"rateview/domain"
	"rateview/pkg/metrics"
)

type (
	EngagementHandler struct {
		validate          *validator.Validate
		engagementService EngagementService
	}

	EngagementService interface {
		RecordEvent(ctx context.Context, event domain.EngagementEvent) (bool, error)
		GetProductEngagement(ctx context.Context, productID uuid.UUID, day *time.Time) ([]domain.ProductEngagementDaily, error)
		GetCustomerEngagement(ctx context.Context, customerID string, day *time.Time) ([]domain.CustomerEngagementDaily, error)
	}

	EventRequest struct {
		EventType string     `json:"event_type" validate:"required,oneof=view click add_to_cart purchase"`
		ProductID string     `json:"product_id" validate:"required,uuid"`
		UserID    string     `json:"user_id"`
		SessionID string     `json:"session_id"`
		Quantity  int        `json:"quantity" validate:"omitempty,min=1"`
		Price     *float64   `json:"price" validate:"omitempty,min=0"`
		Timestamp *time.Time `json:"timestamp"`
	}
)

func NewEngagementHandler(svc EngagementService) *EngagementHandler {
	return &EngagementHandler{
		validate:          validator.New(),
		engagementService: svc,
	}
}

// POST /events
//
// Accepted events are folded into the daily aggregates; duplicates inside the
// same hourly bucket are acknowledged with accepted=false.
func (h *EngagementHandler) Ingest(c echo.Context) error {
	var req EventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	event := domain.EngagementEvent{
		EventType: req.EventType,
		ProductID: productID,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Quantity:  req.Quantity,
	}
	if req.Price != nil {
		price := decimal.NewFromFloat(*req.Price)
		event.Price = &price
	}
	if req.Timestamp != nil {
		event.Timestamp = *req.Timestamp
	}

	accepted, err := h.engagementService.RecordEvent(c.Request().Context(), event)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	metrics.EngagementEventsTotal.WithLabelValues(req.EventType).Inc()
	return c.JSON(http.StatusAccepted, fres.Response.StatusOK(map[string]bool{"accepted": accepted}))
}

// GET /events/products/:id?day=2026-08-27
func (h *EngagementHandler) ProductEngagement(c echo.Context) error {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	day, err := parseDay(c.QueryParam("day"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	rows, err := h.engagementService.GetProductEngagement(c.Request().Context(), productID, day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(rows))
}

// GET /events/customers/:id?day=2026-08-27
func (h *EngagementHandler) CustomerEngagement(c echo.Context) error {
	customerID := c.Param("id")
	if customerID == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "customer id is required"})
	}

	day, err := parseDay(c.QueryParam("day"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	rows, err := h.engagementService.GetCustomerEngagement(c.Request().Context(), customerID, day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(rows))
}

func parseDay(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return nil, err
	}
	return &day, nil
}
