package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/entity-review-api/internal/dto"
	"github.com/noah-isme/entity-review-api/internal/middleware"
	"github.com/noah-isme/entity-review-api/internal/models"
	"github.com/noah-isme/entity-review-api/internal/service"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
	"github.com/noah-isme/entity-review-api/pkg/response"
)

type reviewService interface {
	ListPending(ctx context.Context, sess *models.Session, category string) (*dto.PendingListResponse, bool, error)
	Open(ctx context.Context, sess *models.Session, reviewID string, reload bool) (*dto.WorkspaceView, error)
	EditField(ctx context.Context, sess *models.Session, reviewID string, index int, field string, value models.Value) (*dto.RecordMutationResponse, error)
	SetDisposition(ctx context.Context, sess *models.Session, reviewID string, index int, raw string) (*dto.RecordMutationResponse, error)
	ApplyBulk(ctx context.Context, sess *models.Session, reviewID string, raw string) (*dto.WorkspaceView, error)
	Summary(ctx context.Context, sess *models.Session, reviewID string) (*models.SelectionSummary, error)
	Preview(ctx context.Context, sess *models.Session, reviewID string) (*models.SubmissionPayload, error)
	Submit(ctx context.Context, sess *models.Session, reviewID string) (*dto.SubmitResponse, error)
	Discard(ctx context.Context, sess *models.Session, reviewID string) error
	Export(ctx context.Context, sess *models.Session, reviewID string, format string) (*service.ExportFile, error)
}

// ReviewHandler exposes the review workspace endpoints.
type ReviewHandler struct {
	service reviewService
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(svc reviewService) *ReviewHandler {
	return &ReviewHandler{service: svc}
}

// Pending godoc
// @Summary List pending reviews
// @Description Pending review jobs from the backend, newest first, optionally filtered by category
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param category query string false "asset, indication or catalyst"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /reviews/pending [get]
func (h *ReviewHandler) Pending(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, hit, err := h.service.ListPending(c.Request.Context(), sess, c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.OK(c, res, middleware.ExtractMeta(c))
}

// Open godoc
// @Summary Open a review
// @Description Hydrate the review into a workspace, or return the open workspace unless reload is set
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Param reload query bool false "Discard local edits and fetch again"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /reviews/{id} [get]
func (h *ReviewHandler) Open(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	reload := false
	if raw := c.Query("reload"); raw != "" {
		reload, err = strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "reload must be a boolean"))
			return
		}
	}
	view, err := h.service.Open(c.Request.Context(), sess, c.Param("id"), reload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Discard godoc
// @Summary Close a review
// @Description Drop the workspace and every unsubmitted edit
// @Tags Reviews
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 204 {string} string ""
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Discard(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Discard(c.Request.Context(), sess, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// EditField godoc
// @Summary Edit a field
// @Description Set the current value of one field; the previous value is kept
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Param index path int true "Record index"
// @Param field path string true "Field name"
// @Param payload body dto.EditFieldRequest true "New value"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reviews/{id}/records/{index}/fields/{field} [patch]
func (h *ReviewHandler) EditField(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	index, err := recordIndexParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.EditFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid field payload"))
		return
	}
	value, err := req.FieldValue()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid field payload"))
		return
	}
	res, err := h.service.EditField(c.Request.Context(), sess, c.Param("id"), index, c.Param("field"), value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// SetDisposition godoc
// @Summary Decide a record
// @Description Set approve, reject, delete or none on one record
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Param index path int true "Record index"
// @Param payload body dto.DispositionRequest true "Disposition"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reviews/{id}/records/{index}/disposition [put]
func (h *ReviewHandler) SetDisposition(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	index, err := recordIndexParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	raw, err := bindDisposition(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.SetDisposition(c.Request.Context(), sess, c.Param("id"), index, raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// ApplyBulk godoc
// @Summary Decide every record
// @Description Set the same disposition on all records; nothing changes when it is invalid
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Param payload body dto.DispositionRequest true "Disposition"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reviews/{id}/disposition [put]
func (h *ReviewHandler) ApplyBulk(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	raw, err := bindDisposition(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.ApplyBulk(c.Request.Context(), sess, c.Param("id"), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Summary godoc
// @Summary Selection summary
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reviews/{id}/summary [get]
func (h *ReviewHandler) Summary(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}

// Preview godoc
// @Summary Submission preview
// @Description The payload Submit would send right now
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reviews/{id}/submission [get]
func (h *ReviewHandler) Preview(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.service.Preview(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, payload)
}

// Submit godoc
// @Summary Submit a review
// @Description Post every record with its disposition to the backend and close the workspace
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /reviews/{id}/submit [post]
func (h *ReviewHandler) Submit(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.Submit(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Export godoc
// @Summary Export field diffs
// @Tags Reviews
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reviews/{id}/export [get]
func (h *ReviewHandler) Export(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.Export(c.Request.Context(), sess, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func bindDisposition(c *gin.Context) (string, error) {
	var req dto.DispositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid disposition payload")
	}
	if req.Disposition == nil {
		return "", nil
	}
	return *req.Disposition, nil
}
