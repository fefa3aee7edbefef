package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sheetflow/sheetflow/internal/tabular"
)

// Handler exposes batch import as an HTTP endpoint.
type Handler struct {
	importer *Importer
}

// NewHTTPHandler wraps the importer with a POST upload endpoint.
func NewHTTPHandler(imp *Importer) http.Handler {
	return &Handler{importer: imp}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	table, err := tabular.Parse(header.Filename, payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := Options{
		ProjectKey: strings.TrimSpace(r.FormValue("projectKey")),
		IssueType:  strings.TrimSpace(r.FormValue("issueType")),
		FileName:   header.Filename,
		DryRun:     strings.EqualFold(r.FormValue("dryRun"), "true"),
	}

	summary, err := h.importer.ImportBatch(r.Context(), table.Rows, opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
