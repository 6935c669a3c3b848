package rest

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"rateview/domain"
	"rateview/pkg/metrics"
)

type (
	ExposureHandler struct {
		validate        *validator.Validate
		exposureService ExposureService
	}

	ExposureService interface {
		GetExposure(ctx context.Context, displayContext string, userID *string, categoryID *uuid.UUID, limit int) (*domain.ExposureResponse, error)
		Refresh(ctx context.Context, displayContext string, userID *string, categoryID *uuid.UUID, limit int) (*domain.ExposureResponse, error)
		ClearCache(ctx context.Context, displayContext string, userID *string, categoryID *uuid.UUID) error
	}

	ExposureQuery struct {
		Context    string `query:"context" validate:"required,min=2,max=50"`
		UserID     string `query:"user_id"`
		CategoryID string `query:"category_id" validate:"omitempty,uuid"`
		Limit      int    `query:"limit" validate:"omitempty,min=1,max=50"`
	}

	ClearCacheQuery struct {
		Context    string `query:"context" validate:"omitempty,min=2,max=50"`
		UserID     string `query:"user_id"`
		CategoryID string `query:"category_id" validate:"omitempty,uuid"`
	}
)

func NewExposureHandler(svc ExposureService) *ExposureHandler {
	return &ExposureHandler{
		validate:        validator.New(),
		exposureService: svc,
	}
}

// GET /exposure?context=home&user_id=&category_id=&limit=
//
// The mix payload is the public contract and goes out unwrapped.
func (h *ExposureHandler) GetExposure(c echo.Context) error {
	timer := prometheus.NewTimer(metrics.ExposureRequestLatency)
	defer timer.ObserveDuration()

	var q ExposureQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if q.Limit <= 0 {
		q.Limit = 12
	}

	userID, categoryID, err := q.optionals()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	payload, err := h.exposureService.GetExposure(c.Request().Context(), q.Context, userID, categoryID, q.Limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	metrics.ExposureRequestsTotal.Inc()
	return c.JSON(http.StatusOK, payload)
}

// POST /exposure/refresh?context=home&user_id=&category_id=&limit=
func (h *ExposureHandler) Refresh(c echo.Context) error {
	var q ExposureQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if q.Limit <= 0 {
		q.Limit = 12
	}

	userID, categoryID, err := q.optionals()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	payload, err := h.exposureService.Refresh(c.Request().Context(), q.Context, userID, categoryID, q.Limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, payload)
}

// DELETE /exposure/cache?context=home&user_id=&category_id=
//
// Without a context the whole cache and slot table are flushed.
func (h *ExposureHandler) ClearCache(c echo.Context) error {
	var q ClearCacheQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	userID, categoryID, err := parseOptionals(q.UserID, q.CategoryID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.exposureService.ClearCache(c.Request().Context(), q.Context, userID, categoryID); err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}

func (q ExposureQuery) optionals() (*string, *uuid.UUID, error) {
	return parseOptionals(q.UserID, q.CategoryID)
}

func parseOptionals(userID, categoryID string) (*string, *uuid.UUID, error) {
	var user *string
	if userID != "" {
		user = &userID
	}

	var category *uuid.UUID
	if categoryID != "" {
		parsed, err := uuid.Parse(categoryID)
		if err != nil {
			return nil, nil, err
		}
		category = &parsed
	}

	return user, category, nil
}
