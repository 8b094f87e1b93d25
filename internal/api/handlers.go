package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	quire "github.com/nevindra/quire"
)

const maxJSONBodyBytes = 1 << 20 // 1MB

// uploadRequest carries the optional form fields of POST /documents.
type uploadRequest struct {
	Format      string
	Instruction string
	Exports     []string
	Render      bool
}

func (u uploadRequest) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Format, validation.In("table", "summary", "report", "article", "custom")),
		validation.Field(&u.Exports, validation.Each(validation.In("csv", "docx", "json", "md", "txt", "xlsx"))),
	)
}

// transformRequest is the parsed body of POST /documents/{id}/transform.
type transformRequest struct {
	Format      string `json:"format"`
	Instruction string `json:"instruction,omitempty"`
}

func (t transformRequest) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Format, validation.Required,
			validation.In("table", "summary", "report", "article", "custom")),
	)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Acquire a pipeline slot; fail fast under load.
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	default:
		writeError(w, http.StatusServiceUnavailable, "server busy: pipeline capacity reached")
		return
	}

	// Allow 1MB of form overhead on top of the file cap.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d MB limit", s.maxUploadBytes>>20))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "uploaded file is empty")
		return
	}
	if int64(len(data)) > s.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds %d MB limit", s.maxUploadBytes>>20))
		return
	}

	req := uploadRequest{
		Format:      r.FormValue("format"),
		Instruction: r.FormValue("instruction"),
		Exports:     splitFormats(r.FormValue("exports")),
		Render:      r.FormValue("render") == "true" || r.FormValue("render") == "1",
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.pipeline.Run(r.Context(), quire.Input{
		Name:            header.Filename,
		Data:            data,
		TransformFormat: req.Format,
		Instruction:     req.Instruction,
		ExportFormats:   req.Exports,
		OutDir:          s.exportDir,
		RenderPages:     req.Render,
	})
	if err != nil {
		s.logger.Error("pipeline run failed", "name", header.Filename, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.logger.Info("document ingested",
		"document", out.Document.ID,
		"name", out.Document.Name,
		"pages", out.Document.PageCount,
		"warnings", len(out.Warnings))
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, 500)
	}

	docs, err := s.store.Documents(r.Context(), limit)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Document(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.Document(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	assets, err := s.store.AssetsByDocument(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

func (s *Server) handleListTransforms(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.Document(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	transforms, err := s.store.TransformsByDocument(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transforms": transforms})
}

// handleTransform reruns the LLM rewrite against a stored document's text
// and persists the result.
func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	if s.rewriter == nil {
		writeError(w, http.StatusServiceUnavailable, "transform unavailable: no provider configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	var req transformRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := s.store.Document(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	tr, err := s.rewriter.Rewrite(r.Context(), doc.Text, req.Format, req.Instruction)
	if err != nil {
		s.logger.Error("transform failed", "document", doc.ID, "format", req.Format, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	tr.DocumentID = doc.ID

	if err := s.store.SaveTransform(r.Context(), tr); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.logger.Info("document transformed", "document", doc.ID, "format", req.Format, "model", tr.Model)
	writeJSON(w, http.StatusCreated, tr)
}

// handleExport serializes a stored document. The latest transform output
// is preferred; documents without one export their extracted text.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export unavailable: no exporter configured")
		return
	}

	formats := splitFormats(strings.Join(r.URL.Query()["format"], ","))
	if len(formats) == 0 {
		formats = s.exportFormats
	}
	if len(formats) == 0 {
		writeError(w, http.StatusBadRequest, "format query parameter is required")
		return
	}

	doc, err := s.store.Document(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	output := doc.Text
	transforms, err := s.store.TransformsByDocument(r.Context(), doc.ID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if len(transforms) > 0 {
		output = transforms[0].Output
	}

	files, err := s.exporter.Export(s.exportDir, exportStem(doc.Name, doc.ID), output, formats)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.logger.Info("document exported", "document", doc.ID, "files", len(files))
	writeJSON(w, http.StatusOK, map[string]any{"exports": files})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// splitFormats parses a comma-separated format list, trimming blanks.
func splitFormats(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(v, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// exportStem names export files after the document, suffixed with a short
// ID fragment so repeated exports never clobber each other. Directory
// components in the stored name are stripped.
func exportStem(name, id string) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "document"
	}
	if len(id) >= 8 {
		return base + "_" + id[len(id)-8:]
	}
	return base
}
