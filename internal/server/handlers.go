package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"slices"
	"time"

	"github.com/MeKo-Tech/docweave/internal/assembler"
	"github.com/MeKo-Tech/docweave/internal/detector"
	"github.com/MeKo-Tech/docweave/internal/document"
	"github.com/MeKo-Tech/docweave/internal/geometry"
	"github.com/MeKo-Tech/docweave/internal/imageio"
	"github.com/MeKo-Tech/docweave/internal/ocrerr"
	"github.com/MeKo-Tech/docweave/internal/version"
)

var contentTypes = map[string]string{
	"json": "application/json",
	"yaml": "application/yaml",
	"text": "text/plain; charset=utf-8",
	"csv":  "text/csv; charset=utf-8",
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// extractHandler accepts either a JSON ExtractRequest or a multipart form
// whose "map" files are grayscale renderings of probability maps.
func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	maps, rotated, err := s.parseExtractRequest(r)
	if err != nil {
		s.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	ext, err := s.extractorFor(rotated)
	if err != nil {
		s.writeError(w, r, err, 0)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	results, err := ext.ExtractResults(ctx, maps, s.opts)
	if err != nil {
		pagesProcessedTotal.WithLabelValues("extract", "error").Inc()
		s.writeError(w, r, err, 0)
		return
	}

	resp := ExtractResponse{RequestID: RequestID(r.Context()), Pages: make([]PageBoxes, len(results))}
	for i, res := range results {
		resp.Pages[i] = pageBoxes(i, res)
		observePage(res)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) parseExtractRequest(r *http.Request) ([]detector.ProbabilityMap, *bool, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		maps, err := s.parseMapUploads(r)
		return maps, nil, err
	}
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, fmt.Errorf("decoding request: %w", err)
	}
	maps := make([]detector.ProbabilityMap, len(req.Maps))
	for i, m := range req.Maps {
		maps[i] = m.probabilityMap()
	}
	return maps, req.RotatedBBox, nil
}

func (s *Server) parseMapUploads(r *http.Request) ([]detector.ProbabilityMap, error) {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, fmt.Errorf("parsing form: %w", err)
	}
	files := r.MultipartForm.File["map"]
	if len(files) == 0 {
		return nil, errors.New(`no "map" files in form`)
	}
	maps := make([]detector.ProbabilityMap, len(files))
	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		img, err := imageio.Decode(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		maps[i] = imageio.MapFromImage(img)
	}
	return maps, nil
}

// extractorFor returns the server extractor, or a per-request one when the
// box mode is overridden.
func (s *Server) extractorFor(rotated *bool) (*detector.Extractor, error) {
	if rotated == nil || *rotated == s.detCfg.RotatedBBox {
		return s.extractor, nil
	}
	cfg := s.detCfg
	cfg.RotatedBBox = *rotated
	return detector.NewExtractor(cfg)
}

func (s *Server) assembleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if !slices.Contains(document.Formats, format) {
		s.writeError(w, r, ocrerr.InvalidParameter("format", "must be one of %v, got %q", document.Formats, format), 0)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	var req AssembleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("decoding request: %w", err), http.StatusBadRequest)
		return
	}

	boxes := make([][]geometry.ScoredBox, len(req.Pages))
	shapes := make([]assembler.Shape, len(req.Pages))
	meta := make([]assembler.PageMeta, len(req.Pages))
	for i, p := range req.Pages {
		boxes[i], shapes[i] = p.Boxes, p.Dimensions
		if p.Orientation != nil {
			meta[i].Orientation = *p.Orientation
		}
		if p.Language != nil {
			meta[i].Language = *p.Language
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	doc, err := s.asm.AssembleWithMeta(ctx, boxes, req.Strings, shapes, meta)
	if err != nil {
		pagesProcessedTotal.WithLabelValues("assemble", "error").Inc()
		s.writeError(w, r, err, 0)
		return
	}
	pagesProcessedTotal.WithLabelValues("assemble", "ok").Add(float64(len(doc.Pages)))

	body, err := doc.Encode(format)
	if err != nil {
		s.writeError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Error("Failed to write response", "request_id", RequestID(r.Context()), "error", err)
	}
}

func pageBoxes(i int, res detector.PageResult) PageBoxes {
	boxes := res.Boxes
	if boxes == nil {
		boxes = []geometry.ScoredBox{}
	}
	return PageBoxes{Page: i, Boxes: boxes, Angle: res.Angle, AngleConfidence: res.AngleConfidence}
}

func observePage(res detector.PageResult) {
	pagesProcessedTotal.WithLabelValues("extract", "ok").Inc()
	boxesPerPage.Observe(float64(len(res.Boxes)))
	pageSkewDegrees.Observe(math.Abs(res.Angle))
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	var (
		sm *ocrerr.ShapeMismatchError
		ip *ocrerr.InvalidParameterError
		uf *ocrerr.UnsupportedFeatureError
		be *ocrerr.BatchError
		mb *http.MaxBytesError
	)
	switch {
	case errors.As(err, &mb):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &be), errors.As(err, &sm):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ip):
		return http.StatusBadRequest
	case errors.As(err, &uf):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func errorType(err error) string {
	var (
		sm *ocrerr.ShapeMismatchError
		ip *ocrerr.InvalidParameterError
		uf *ocrerr.UnsupportedFeatureError
		be *ocrerr.BatchError
	)
	switch {
	case errors.As(err, &be):
		return "batch_error"
	case errors.As(err, &sm):
		return "shape_mismatch"
	case errors.As(err, &ip):
		return "invalid_parameter"
	case errors.As(err, &uf):
		return "unsupported_feature"
	}
	return "error"
}

// writeError writes err as an ErrorResponse. A zero status derives the code
// from the error type.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if code := statusFor(err); status == 0 || code == http.StatusRequestEntityTooLarge {
		status = code
	}
	resp := ErrorResponse{Error: err.Error(), Type: errorType(err), RequestID: RequestID(r.Context())}
	if page := ocrerr.PageOf(err); page != ocrerr.NoPage {
		resp.Page = &page
	}
	var be *ocrerr.BatchError
	if errors.As(err, &be) {
		resp.Pages = be.FailedPages()
	}
	slog.Debug("Request failed", "request_id", resp.RequestID, "status", status, "error", err)
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
