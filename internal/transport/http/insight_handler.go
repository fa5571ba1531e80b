package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "gamepulse/internal/errors"
	"gamepulse/internal/insight"
)

// InsightClientInterface is the capability the handler needs from the
// insight service client.
type InsightClientInterface interface {
	GenerateInsights(ctx context.Context, summary insight.Summary) string
	AnswerQuery(ctx context.Context, question string, summary insight.Summary) string
}

// InsightHandler exposes the conversational insight surface. Upstream
// failures degrade to fallback prose inside the client; this handler
// always answers 200 with text.
type InsightHandler struct {
	client       InsightClientInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewInsightHandler creates an insight handler.
func NewInsightHandler(client InsightClientInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *InsightHandler {
	return &InsightHandler{
		client:       client,
		logger:       logger.With(slog.String("component", "insight_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the insight routes.
func (h *InsightHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/", h.GenerateInsights)
	r.Post("/ask", h.AnswerQuery)
	return r
}

type insightRequest struct {
	Summary  insight.Summary `json:"summary"`
	Question string          `json:"question,omitempty"`
}

type insightResponse struct {
	Text string `json:"text"`
}

// GenerateInsights returns free-text findings for a metrics summary.
func (h *InsightHandler) GenerateInsights(w http.ResponseWriter, r *http.Request) {
	var req insightRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	text := h.client.GenerateInsights(r.Context(), req.Summary)
	render.JSON(w, r, insightResponse{Text: text})
}

// AnswerQuery answers a specific question against a metrics summary.
func (h *InsightHandler) AnswerQuery(w http.ResponseWriter, r *http.Request) {
	var req insightRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if req.Question == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("question", "A question is required"))
		return
	}

	text := h.client.AnswerQuery(r.Context(), req.Question, req.Summary)
	render.JSON(w, r, insightResponse{Text: text})
}
