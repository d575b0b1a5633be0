package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/jarbasai/jarbas/services/ingestion_service"
)

const maxUploadBytes = 10 << 20 // 10 MB

// UploadHandler receives documents and hands them to the ingestion service.
type UploadHandler struct {
	ingestion *ingestion_service.IngestionService
	logger    *slog.Logger
}

func NewUploadHandler(ingestion *ingestion_service.IngestionService, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		ingestion: ingestion,
		logger:    logger,
	}
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Failed to get file from form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		writeJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Received document upload",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	metadata := map[string]interface{}{
		"content_type": header.Header.Get("Content-Type"),
	}
	chunks, err := h.ingestion.IngestDocument(r.Context(), header.Filename, buf.Bytes(), metadata)
	if err != nil {
		h.logger.Error("Document ingestion failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "File uploaded and processed successfully",
		"file":    header.Filename,
		"chunks":  chunks,
	})
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
