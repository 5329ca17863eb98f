package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"qpcrscore/internal/amplification"
	"qpcrscore/internal/config"
	apierrors "qpcrscore/internal/errors"
	appmw "qpcrscore/internal/middleware"
)

// Response formats accepted in the format query parameter
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// ScoreHandler handles amplification uploads
type ScoreHandler struct {
	service        ScoringServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	query          *appmw.QueryParamValidator
	maxUploadBytes int64
	fileName       string
}

// NewScoreHandler creates a new score handler. maxUploadBytes bounds the
// request body; fileName is the download name of CSV responses.
func NewScoreHandler(service ScoringServiceInterface, maxUploadBytes int64, fileName string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ScoreHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = config.DefaultMaxUploadBytes
	}
	if fileName == "" {
		fileName = config.DefaultExportFileName
	}
	return &ScoreHandler{
		service:        service,
		logger:         logger.With(slog.String("component", "score_handler")),
		errorHandler:   errorHandler,
		query:          appmw.NewQueryParamValidator(logger, errorHandler),
		maxUploadBytes: maxUploadBytes,
		fileName:       fileName,
	}
}

// Routes returns the scoring routes
func (h *ScoreHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(appmw.ContentTypeValidator(h.errorHandler, "multipart/form-data")).Post("/", h.Score)
	return r
}

// Score handles POST /api/score
func (h *ScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	if h.service == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrServiceUnavailable)
		return
	}

	format, ok := h.query.ValidateEnum(w, r, "format", []string{FormatJSON, FormatCSV}, FormatJSON)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(config.UploadFormField)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(config.UploadFormField,
			fmt.Sprintf("multipart field %q with the amplification export is required", config.UploadFormField)))
		return
	}
	defer file.Close()

	if _, err := amplification.DetectFormat(header.Filename); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrUnsupportedMedia.WithDetails(
			map[string]interface{}{"filename": header.Filename}))
		return
	}

	h.logger.InfoContext(ctx, "scoring upload",
		slog.String("request_id", reqID),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
		slog.String("format", format))

	result, err := h.service.ScoreUpload(ctx, header.Filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if format == FormatCSV {
		// Render fully before touching the response so a failure still
		// produces a problem document.
		var buf bytes.Buffer
		if err := h.service.ExportCSV(ctx, &buf, result); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", config.CSVContentType+"; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", strconv.Quote(h.fileName)))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
		return
	}

	render.JSON(w, r, result)
}
