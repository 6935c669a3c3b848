package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"rateview/business/scoring"
	"rateview/domain"
)

type (
	ScoringHandler struct {
		validate       *validator.Validate
		scoringService ScoringService
	}

	ScoringService interface {
		RunScoring(ctx context.Context, windowDays int) (scoring.ScoringResult, error)
		GetLatestRankings(ctx context.Context, limit int) ([]domain.ProductRanking, error)
	}

	RunScoringQuery struct {
		WindowDays int `query:"window_days" validate:"omitempty,min=1,max=90"`
	}

	RankingsQuery struct {
		Limit int `query:"limit" validate:"omitempty,min=1,max=200"`
	}
)

func NewScoringHandler(svc ScoringService) *ScoringHandler {
	return &ScoringHandler{
		validate:       validator.New(),
		scoringService: svc,
	}
}

// POST /internal/scoring/run?window_days=14
func (h *ScoringHandler) Run(c echo.Context) error {
	var q RunScoringQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	result, err := h.scoringService.RunScoring(c.Request().Context(), q.WindowDays)
	if err != nil {
		if errors.Is(err, scoring.ErrRunInProgress) {
			return c.JSON(http.StatusConflict, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, result)
}

// GET /internal/scoring/rankings?limit=20
func (h *ScoringHandler) Rankings(c echo.Context) error {
	var q RankingsQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}

	rankings, err := h.scoringService.GetLatestRankings(c.Request().Context(), q.Limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(rankings))
}
