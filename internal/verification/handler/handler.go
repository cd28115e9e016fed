package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docverify/internal/batch"
	"docverify/internal/ocr"
	"docverify/internal/orientation"
	"docverify/internal/verification/models"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

// MaxUploadBytes bounds the document accepted by POST /extract.
const MaxUploadBytes = 10 << 20

const documentField = "document"

var acceptedUploadTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// Service defines the verification operations exposed over HTTP.
type Service interface {
	Verify(ctx context.Context, source orientation.LineSource, job models.Job) (*models.Outcome, error)
	Identify(ctx context.Context, source orientation.LineSource, data []byte) (*models.Outcome, error)
}

// EnginePool lends OCR engine handles to requests.
type EnginePool interface {
	Acquire(ctx context.Context) (ocr.Engine, error)
	Release(e ocr.Engine)
}

// BatchRunner runs a batch over the stored applicants.
type BatchRunner interface {
	RunStored(ctx context.Context) (*batch.Report, error)
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service Service
	engines EnginePool
	batch   BatchRunner
	logger  *slog.Logger
}

// New constructs a verification handler. runner may be nil, in which case the batch
// endpoint is not mounted.
func New(service Service, engines EnginePool, runner BatchRunner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		service: service,
		engines: engines,
		batch:   runner,
		logger:  logger,
	}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify", h.HandleVerify)
	r.Post("/extract", h.HandleExtract)
	if h.batch != nil {
		r.Post("/batch/run", h.HandleBatchRun)
	}
}

// HandleVerify handles POST /verify requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	engine, err := h.acquire(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer h.engines.Release(engine)

	outcome, err := h.service.Verify(ctx, engine, req.Job())
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestID,
			"applicant_id", req.Reference.ApplicantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document verified",
		"request_id", requestID,
		"applicant_id", outcome.ApplicantID,
		"decision", outcome.Match.Decision,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromOutcome(outcome))
}

// HandleExtract handles POST /extract: a multipart upload that is identified by its
// ID number and verified against the matching applicant.
func (h *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	data, err := readUpload(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected upload", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	engine, err := h.acquire(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer h.engines.Release(engine)

	outcome, err := h.service.Identify(ctx, engine, data)
	if err != nil {
		h.logger.WarnContext(ctx, "identification failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "uploaded document verified",
		"request_id", requestID,
		"applicant_id", outcome.ApplicantID,
		"decision", outcome.Match.Decision,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromOutcome(outcome))
}

// HandleBatchRun handles POST /batch/run requests.
func (h *Handler) HandleBatchRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	report, err := h.batch.RunStored(ctx)
	if err != nil {
		if errors.Is(err, batch.ErrAlreadyRunning) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "a batch is already running"))
			return
		}
		h.logger.ErrorContext(ctx, "batch run failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "batch run failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromReport(report))
}

func (h *Handler) acquire(ctx context.Context) (ocr.Engine, error) {
	engine, err := h.engines.Acquire(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "no ocr engine available")
	}
	return engine, nil
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, dErrors.New(dErrors.CodeTooLarge, "document exceeds 10 MiB")
		}
		return nil, dErrors.New(dErrors.CodeBadRequest, "expected a multipart form")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile(documentField)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "document is required")
	}
	defer file.Close()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read document")
	}
	if n == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "document is empty")
	}
	if n > MaxUploadBytes {
		return nil, dErrors.New(dErrors.CodeTooLarge, "document exceeds 10 MiB")
	}
	if !acceptedUploadTypes[http.DetectContentType(buf.Bytes())] {
		return nil, dErrors.New(dErrors.CodeValidation, "document must be a PDF, PNG or JPEG")
	}
	return buf.Bytes(), nil
}
