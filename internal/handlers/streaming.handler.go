package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/fasthttp/router"
	"github.com/nimasrn/donation-gateway/internal/model"
	"github.com/nimasrn/donation-gateway/internal/services"
	xhttp "github.com/nimasrn/donation-gateway/pkg/http"
)

type StreamingService interface {
	Create(ctx context.Context, p model.StreamingCreateRequest) (*model.Streaming, error)
	Get(ctx context.Context, code string) (*model.Streaming, error)
	Start(ctx context.Context, code string, actingUserID int64) error
	Stop(ctx context.Context, code string, actingUserID int64) error
	CreateComment(ctx context.Context, p model.CommentCreateRequest) (*model.Comment, error)
	ListComments(ctx context.Context, code string, limit, offset int) ([]*model.Comment, int64, error)
}

type StreamingHandler struct {
	svc StreamingService
}

func RegisterStreamingRoutes(e *router.Group, h *StreamingHandler, verifier TokenVerifier) {
	e.POST("/streamings", RequireAuth(verifier, h.CreateStreaming))
	e.GET("/streamings/{code}", h.GetStreaming)
	e.POST("/streamings/{code}/start", RequireAuth(verifier, h.StartStreaming))
	e.POST("/streamings/{code}/stop", RequireAuth(verifier, h.StopStreaming))
	e.GET("/streamings/{code}/comments", h.ListComments)
	e.POST("/streamings/{code}/comments", RequireAuth(verifier, h.CreateComment))
}

func NewStreamingHandler(streamingService StreamingService) *StreamingHandler {
	return &StreamingHandler{
		svc: streamingService,
	}
}

type createStreamingRequest struct {
	DateStart time.Time      `json:"date_start"`
	DateEnd   time.Time      `json:"date_end"`
	Bank      model.BankInfo `json:"bank"`
}

type createCommentRequest struct {
	Comment string `json:"comment"`
}

type commentListResponse struct {
	Items []*model.Comment `json:"items"`
	Total int64            `json:"total"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *StreamingHandler) CreateStreaming(ctx *xhttp.RequestCtx) {
	var req createStreamingRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	p := model.StreamingCreateRequest{
		UserID:    authUserID(ctx),
		DateStart: req.DateStart,
		DateEnd:   req.DateEnd,
		Bank:      req.Bank,
	}
	streaming, err := h.svc.Create(ctx, p)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, streaming)
}

func (h *StreamingHandler) GetStreaming(ctx *xhttp.RequestCtx) {
	code, _ := ctx.UserValue("code").(string)
	streaming, err := h.svc.Get(ctx, code)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, streaming)
}

func (h *StreamingHandler) StartStreaming(ctx *xhttp.RequestCtx) {
	h.setStatus(ctx, h.svc.Start)
}

func (h *StreamingHandler) StopStreaming(ctx *xhttp.RequestCtx) {
	h.setStatus(ctx, h.svc.Stop)
}

func (h *StreamingHandler) setStatus(ctx *xhttp.RequestCtx, op func(context.Context, string, int64) error) {
	code, _ := ctx.UserValue("code").(string)
	if err := op(ctx, code, authUserID(ctx)); err != nil {
		writeServiceError(ctx, err)
		return
	}
	streaming, err := h.svc.Get(ctx, code)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, streaming)
}

func (h *StreamingHandler) CreateComment(ctx *xhttp.RequestCtx) {
	var req createCommentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	code, _ := ctx.UserValue("code").(string)
	comment, err := h.svc.CreateComment(ctx, model.CommentCreateRequest{
		StreamingCode: code,
		UserID:        authUserID(ctx),
		Comment:       req.Comment,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, comment)
}

func (h *StreamingHandler) ListComments(ctx *xhttp.RequestCtx) {
	code, _ := ctx.UserValue("code").(string)

	limit, offset := 0, 0
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			offset = n
		}
	}

	items, total, err := h.svc.ListComments(ctx, code, limit, offset)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, commentListResponse{Items: items, Total: total})
}

// writeServiceError translates well-known service errors to status codes.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrStreamingGone):
		writeError(ctx, 404, err.Error())
	case errors.Is(err, services.ErrForbidden):
		writeError(ctx, 403, err.Error())
	case errors.Is(err, services.ErrInvalidState):
		writeError(ctx, 409, err.Error())
	case errors.Is(err, services.ErrUnsupportedBank), errors.Is(err, services.ErrManualOnly):
		writeError(ctx, 400, err.Error())
	default:
		writeError(ctx, 400, err.Error())
	}
}
