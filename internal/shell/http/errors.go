package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"employee-export/internal/core/domain"
)

// ErrorObject represents a simplified JSON:API error object
type ErrorObject struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// ErrorResponse is the top-level JSON:API error response
type ErrorResponse struct {
	Errors []ErrorObject `json:"errors"`
}

// respondWithErrors sends multiple JSON:API errors
func respondWithErrors(w http.ResponseWriter, statusCode int, objects []ErrorObject) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	for i := range objects {
		if objects[i].Status == "" {
			objects[i].Status = http.StatusText(statusCode)
		}
	}

	json.NewEncoder(w).Encode(ErrorResponse{Errors: objects})
}

func errorNotFound(resourceType, id string) ErrorObject {
	return ErrorObject{
		Status: "404",
		Title:  resourceType + " Not Found",
		Detail: "The " + resourceType + " with ID '" + id + "' could not be found",
	}
}

func errorInvalidJSON(err error) ErrorObject {
	detail := "The request body contains invalid JSON"
	if err != nil {
		detail = "Invalid JSON: " + err.Error()
	}
	return ErrorObject{
		Status: "400",
		Title:  "Invalid JSON",
		Detail: detail,
	}
}

func errorInvalidField(field, reason string) ErrorObject {
	return ErrorObject{
		Status: "400",
		Title:  "Invalid Field",
		Detail: "The field '" + field + "' is invalid: " + reason,
	}
}

func errorConflict(detail string) ErrorObject {
	return ErrorObject{
		Status: "409",
		Title:  "Conflict",
		Detail: detail,
	}
}

func errorServiceUnavailable(detail string) ErrorObject {
	return ErrorObject{
		Status: "503",
		Title:  "Service Unavailable",
		Detail: detail,
	}
}

func errorInternalServer() ErrorObject {
	return ErrorObject{
		Status: "500",
		Title:  "Internal Server Error",
		Detail: "An unexpected error occurred while processing your request",
	}
}

// respondWithServiceError maps an ExportService error onto its HTTP outcome.
func respondWithServiceError(w http.ResponseWriter, err error, referenceID string) {
	var validationErr *domain.ValidationError
	var cancelErr *domain.CancelConflictError

	switch {
	case errors.As(err, &validationErr):
		objects := make([]ErrorObject, 0, len(validationErr.Fields))
		for _, f := range validationErr.Fields {
			objects = append(objects, errorInvalidField(f.Field, f.Reason))
		}
		respondWithErrors(w, http.StatusBadRequest, objects)
	case errors.Is(err, domain.ErrInvalidParameters), errors.Is(err, domain.ErrUnsupportedFormat):
		respondWithErrors(w, http.StatusBadRequest, []ErrorObject{{Status: "400", Title: "Bad Request", Detail: err.Error()}})
	case errors.Is(err, domain.ErrExportNotFound):
		respondWithErrors(w, http.StatusNotFound, []ErrorObject{errorNotFound("Export", referenceID)})
	case errors.As(err, &cancelErr):
		respondWithErrors(w, http.StatusConflict, []ErrorObject{errorConflict(cancelErr.Error())})
	case errors.Is(err, domain.ErrCannotCancel), errors.Is(err, domain.ErrStatusConflict):
		respondWithErrors(w, http.StatusConflict, []ErrorObject{errorConflict(err.Error())})
	case errors.Is(err, domain.ErrQueueFull):
		respondWithErrors(w, http.StatusServiceUnavailable, []ErrorObject{errorServiceUnavailable(err.Error())})
	default:
		respondWithErrors(w, http.StatusInternalServerError, []ErrorObject{errorInternalServer()})
	}
}
