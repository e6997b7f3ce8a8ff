package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/entity-review-api/internal/dto"
	"github.com/noah-isme/entity-review-api/internal/models"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
	"github.com/noah-isme/entity-review-api/pkg/response"
)

type submissionLister interface {
	List(ctx context.Context, filter models.SubmissionFilter) (*dto.SubmissionListResponse, error)
}

// SubmissionHandler exposes the submission log.
type SubmissionHandler struct {
	service submissionLister
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(svc submissionLister) *SubmissionHandler {
	return &SubmissionHandler{service: svc}
}

// List godoc
// @Summary Submission log
// @Description Accepted submissions, newest first
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param category query string false "asset, indication or catalyst"
// @Param reviewer query string false "Reviewer username"
// @Param ticker query string false "Ticker"
// @Param mine query bool false "Only the current reviewer"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	filter := models.SubmissionFilter{
		Reviewer: strings.TrimSpace(c.Query("reviewer")),
		Ticker:   strings.TrimSpace(c.Query("ticker")),
	}
	if raw := c.Query("category"); raw != "" {
		category, err := models.ParseCategory(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.Category = category
	}
	if mine, _ := strconv.ParseBool(c.Query("mine")); mine {
		if sess, err := sessionFromContext(c); err == nil {
			filter.Reviewer = sess.Username
		}
	}
	var err error
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.Offset, err = intQuery(c, "offset"); err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be a non-negative integer")
	}
	return v, nil
}
