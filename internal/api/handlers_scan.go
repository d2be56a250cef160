package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/a11ylab/appscan/internal/archive"
	"github.com/a11ylab/appscan/internal/scan"
)

// handleScan accepts a multipart upload of one solution package and scans
// it synchronously.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	scanID := uuid.NewString()
	log := s.log.With("scan_id", scanID, "filename", header.Filename)

	res, err := scan.ScanPackage(r.Context(), data, s.opts)
	if err != nil {
		if errors.Is(err, archive.ErrUnreadableArchive) {
			log.Warn("unreadable package", "error", err)
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		log.Error("scan failed", "error", err)
		jsonError(w, "scan failed", http.StatusInternalServerError)
		return
	}
	log.Info("scan complete", "apps", len(res.Apps), "diagnostics", len(res.Diagnostics))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"scan_id":     scanID,
		"solution":    res.SolutionName,
		"apps":        res.Apps,
		"diagnostics": res.Diagnostics,
	})
}

// handleListRules describes the active catalog so clients can map issue
// types to descriptions.
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	type ruleInfo struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Severity    string `json:"severity"`
	}
	out := make([]ruleInfo, 0, len(s.opts.Rules))
	for _, rule := range s.opts.Rules {
		out = append(out, ruleInfo{
			ID:          rule.ID(),
			Description: rule.Description(),
			Severity:    rule.Severity().String(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"rules": out})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
