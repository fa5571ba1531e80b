// Package http exposes the analysis pipeline over chi routes.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"gamepulse/internal/dataset"
	apierrors "gamepulse/internal/errors"
	"gamepulse/internal/services"
)

// AnalysisServiceInterface is the capability the handler needs from the
// analysis service.
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, path string, opts services.AnalysisOptions) (*services.AnalysisResult, error)
}

// AnalysisHandler handles file-upload analysis requests.
type AnalysisHandler struct {
	service        AnalysisServiceInterface
	uploadDir      string
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewAnalysisHandler creates an analysis handler.
func NewAnalysisHandler(service AnalysisServiceInterface, uploadDir string, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	return &AnalysisHandler{
		service:        service,
		uploadDir:      uploadDir,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "analysis_handler")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the analysis routes.
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/", h.CreateAnalysis)
	return r
}

// CreateAnalysis accepts a multipart CSV/Excel upload, runs one full
// pipeline pass and returns the computed metrics. Nothing is retained
// between requests; the uploaded file is removed after processing.
func (h *AnalysisHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "A CSV or Excel file upload is required"))
		return
	}
	defer file.Close()

	opts, err := parseOptions(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	path, err := h.saveUpload(file, header.Filename)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer os.Remove(path)

	result, err := h.service.Analyze(r.Context(), path, opts)
	if err != nil {
		if errors.Is(err, dataset.ErrUnsupportedFormat) {
			h.errorHandler.HandleError(w, r, apierrors.ErrUnsupportedFormat)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.AnalysisFailedError(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, result)
}

func parseOptions(r *http.Request) (services.AnalysisOptions, error) {
	var opts services.AnalysisOptions

	if steps := r.FormValue("funnel_steps"); steps != "" {
		for _, step := range strings.Split(steps, ",") {
			if step = strings.TrimSpace(step); step != "" {
				opts.FunnelSteps = append(opts.FunnelSteps, step)
			}
		}
	}
	if raw := r.FormValue("anomaly_threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold <= 0 {
			return opts, fmt.Errorf("anomaly_threshold must be a positive number")
		}
		opts.AnomalyThreshold = threshold
	}
	if raw := r.FormValue("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return opts, fmt.Errorf("seed must be an integer")
		}
		opts.Seed = seed
	}
	return opts, nil
}

// saveUpload writes the upload under a unique name, preserving the
// extension that drives format detection.
func (h *AnalysisHandler) saveUpload(file io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(h.uploadDir, uuid.NewString()+ext)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return path, nil
}
