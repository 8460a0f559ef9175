package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/export"
)

const maxRequestBody = 1 << 20

type ingestRequest struct {
	Path string `json:"path"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPHandler mounts the REST API.
func NewHTTPHandler(svc *DocumentService, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &httpHandler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"service":"docingest"}`))
	})
	r.Route("/v1", func(r chi.Router) {
		r.Post("/ingest", h.ingest)
		r.Get("/documents", h.list)
		r.Get("/documents/{id}", h.get)
	})
	return r
}

type httpHandler struct {
	svc    *DocumentService
	logger *slog.Logger
}

func (h *httpHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.fail(w, r, errors.Join(common.ErrInvalidInput, err))
		return
	}
	rec, dedup, err := h.svc.Ingest(r.Context(), req.Path)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	code := http.StatusCreated
	if dedup {
		code = http.StatusOK
	}
	w.Header().Set("X-Deduplicated", strconv.FormatBool(dedup))
	h.writeJSON(w, code, rec)
}

func (h *httpHandler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *httpHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	recs, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]export.Record{"documents": recs})
}

func (h *httpHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := common.HTTPStatusFromError(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		h.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)
	}
	h.writeJSON(w, code, errorResponse{Error: err.Error()})
}

func (h *httpHandler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		h.logger.Warn("write response failed", "error", err)
	}
}

func (h *httpHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
