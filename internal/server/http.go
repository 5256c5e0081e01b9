package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ironsheep/hough-tools-mcp/internal/imaging"
)

// stageTools maps the {stage} path segment of POST /v1/images/{id}/{stage}
// to the MCP tool that serves it.
var stageTools = map[string]string{
	"edges":    "image_edge_detect",
	"hough":    "image_hough_accumulator",
	"lines":    "image_detect_lines",
	"segments": "image_detect_segments",
	"overlay":  "image_overlay_lines",
}

// maxStageBody limits the JSON arguments of a stage request.
const maxStageBody = 64 << 10

// httpError is the JSON body of every non-2xx response.
type httpError struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// uploadResult is returned by POST /v1/images.
type uploadResult struct {
	ID string `json:"id"`
	*imaging.ImageInfo
}

// Handler returns the HTTP API. Uploads larger than maxUpload bytes are
// rejected; maxUpload <= 0 disables the limit.
//
// Routes:
//
//	GET  /healthz
//	POST /v1/images                 upload an image, returns its id
//	GET  /v1/images/{id}            describe an uploaded image
//	POST /v1/images/{id}/{stage}    run edges|hough|lines|segments|overlay
//
// Stage requests take the same JSON arguments as the matching MCP tool,
// minus "path".
func (s *Server) Handler(maxUpload int64) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"version": Version,
			"images":  s.cache.Len(),
		})
	})

	r.Route("/v1/images", func(r chi.Router) {
		r.Post("/", s.handleUpload(maxUpload))
		r.Get("/{id}", s.handleDescribe)
		r.Post("/{id}/{stage}", s.handleStage)
	})

	return r
}

func (s *Server) handleUpload(maxUpload int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := io.Reader(r.Body)
		if maxUpload > 0 {
			body = http.MaxBytesReader(w, r.Body, maxUpload)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			s.writeError(w, r, readStatus(err), err)
			return
		}
		id, err := s.cache.Decode(bytes.NewReader(data))
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		info, err := s.cache.Describe(id)
		if err != nil {
			s.writeError(w, r, statusFor(err), err)
			return
		}
		s.logger.Info("image uploaded", "id", id, "width", info.Width, "height", info.Height, "format", info.Format)
		writeJSON(w, http.StatusCreated, &uploadResult{ID: id, ImageInfo: info})
	}
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	id, ok := s.imageID(w, r)
	if !ok {
		return
	}
	info, err := s.cache.Describe(id)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleStage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.imageID(w, r)
	if !ok {
		return
	}
	tool, ok := stageTools[chi.URLParam(r, "stage")]
	if !ok {
		s.writeError(w, r, http.StatusNotFound, errors.New("unknown stage "+chi.URLParam(r, "stage")))
		return
	}

	args := map[string]interface{}{}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStageBody))
	if err != nil {
		s.writeError(w, r, readStatus(err), err)
		return
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}
	args["path"] = id
	encoded, err := json.Marshal(args)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	result, err := s.executeTool(tool, encoded)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// imageID returns the {id} path parameter if it is a handle the cache
// knows. HTTP clients may only address uploaded images, never file paths.
func (s *Server) imageID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !s.cache.IsHandle(id) {
		s.writeError(w, r, http.StatusNotFound, errors.New("image "+id+": "+imaging.ErrNotFound.Error()))
		return "", false
	}
	return id, true
}

// readStatus maps a request body read error to 413 or 400.
func readStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, imaging.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, imaging.ErrInvalidParameter),
		errors.Is(err, imaging.ErrShapeMismatch),
		errors.Is(err, errInvalidArguments):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, &httpError{
		Error:     err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// logRequests logs one line per request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
