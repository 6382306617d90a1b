package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"employee-export/internal/core/domain"
	"employee-export/internal/core/ports"
	"employee-export/internal/core/usecases"
	"employee-export/internal/identity"
)

type ExportHandler struct {
	exportService ports.ExportService
	encoders      usecases.EncoderRegistry
}

func NewExportHandler(exportService ports.ExportService, encoders usecases.EncoderRegistry) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		encoders:      encoders,
	}
}

func (h *ExportHandler) SubmitExport(w http.ResponseWriter, r *http.Request) {
	log.Debugf("HTTP SubmitExport called - method: %s, path: %s", r.Method, r.URL.Path)

	var req SubmitExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Debugf("HTTP SubmitExport failed - JSON decode error: %v", err)
		respondWithErrors(w, http.StatusBadRequest, []ErrorObject{errorInvalidJSON(err)})
		return
	}

	ownerID := identity.OwnerFromRequest(r)
	if ownerID == "" {
		ownerID = req.UserID
	}

	receipt, err := h.exportService.SubmitExport(r.Context(), ownerID, req.ExportParameters)
	if err != nil {
		log.Debugf("HTTP SubmitExport failed: %v", err)
		respondWithServiceError(w, err, "")
		return
	}

	log.Debugf("HTTP SubmitExport success - reference id: %s, owner: %q", receipt.ReferenceID, ownerID)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/api/exports/"+receipt.ReferenceID)
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(ToSubmitExportResponse(receipt)); err != nil {
		log.Warnf("HTTP SubmitExport - failed to encode response: %v", err)
	}
}

// GetExport returns the artifact of a completed job, or the job status
// otherwise. download=false asks for the status even when completed.
func (h *ExportHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	referenceID := mux.Vars(r)["referenceId"]

	download := true
	if raw := r.URL.Query().Get("download"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithErrors(w, http.StatusBadRequest, []ErrorObject{errorInvalidField("download", "must be true or false")})
			return
		}
		download = parsed
	}

	job, err := h.exportService.GetExport(r.Context(), referenceID)
	if err != nil {
		log.Debugf("HTTP GetExport failed - reference id: %s, error: %v", referenceID, err)
		respondWithServiceError(w, err, referenceID)
		return
	}

	if job.Status == domain.StatusCompleted && download {
		h.writeArtifact(w, job)
		return
	}

	respondWithJSON(w, http.StatusOK, ToExportStatusResponse(job))
}

func (h *ExportHandler) writeArtifact(w http.ResponseWriter, job domain.ExportJob) {
	contentType, extension := "application/octet-stream", "bin"
	if enc, err := h.encoders.Lookup(job.ExportType); err == nil {
		contentType, extension = enc.ContentType(), enc.FileExtension()
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="export_%s.%s"`, job.ReferenceID, extension))
	w.Header().Set("Content-Length", strconv.Itoa(len(job.Result)))
	w.Header().Set("X-File-Size", strconv.FormatInt(job.FileSize, 10))
	if job.TotalRecords != nil {
		w.Header().Set("X-Total-Records", strconv.Itoa(*job.TotalRecords))
	}
	w.Header().Set("X-Created-At", job.CreatedAt.UTC().Format(time.RFC3339))
	if job.CompletedAt != nil {
		w.Header().Set("X-Completed-At", job.CompletedAt.UTC().Format(time.RFC3339))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(job.Result); err != nil {
		log.Warnf("HTTP GetExport - failed to write artifact %s: %v", job.ReferenceID, err)
	}
}

func (h *ExportHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.exportService.ListExports(r.Context())
	if err != nil {
		log.Debugf("HTTP ListExports failed: %v", err)
		respondWithServiceError(w, err, "")
		return
	}

	respondWithJSON(w, http.StatusOK, ToExportSummaryResponseList(jobs))
}

func (h *ExportHandler) ListUserExports(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	jobs, err := h.exportService.ListExportsByOwner(r.Context(), userID)
	if err != nil {
		log.Debugf("HTTP ListUserExports failed - user: %s, error: %v", userID, err)
		respondWithServiceError(w, err, "")
		return
	}

	respondWithJSON(w, http.StatusOK, ToExportSummaryResponseList(jobs))
}

func (h *ExportHandler) CancelExport(w http.ResponseWriter, r *http.Request) {
	referenceID := mux.Vars(r)["referenceId"]

	job, err := h.exportService.CancelExport(r.Context(), referenceID)
	if err != nil {
		log.Debugf("HTTP CancelExport failed - reference id: %s, error: %v", referenceID, err)
		respondWithServiceError(w, err, referenceID)
		return
	}

	log.Debugf("HTTP CancelExport success - reference id: %s", referenceID)
	respondWithJSON(w, http.StatusOK, ToCancelExportResponse(job))
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondWithJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warnf("HTTP - failed to encode response: %v", err)
	}
}
