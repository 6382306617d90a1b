package http

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"employee-export/internal/core/ports"
	"employee-export/internal/core/usecases"
	"employee-export/internal/identity"
)

func SetupRoutes(exportService ports.ExportService, encoders usecases.EncoderRegistry) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware)
	handler := NewExportHandler(exportService, encoders)

	router.HandleFunc("/healthz", Healthz).Methods("GET")

	// Identity is optional; when present it decides the job owner
	api := router.PathPrefix("/api").Subrouter()
	api.Use(identity.ExtractIdentity)

	api.HandleFunc("/exports", handler.SubmitExport).Methods("POST")
	api.HandleFunc("/exports", handler.ListExports).Methods("GET")
	api.HandleFunc("/exports/user/{userId}", handler.ListUserExports).Methods("GET")
	api.HandleFunc("/exports/{referenceId}", handler.GetExport).Methods("GET")
	api.HandleFunc("/exports/{referenceId}", handler.CancelExport).Methods("DELETE")

	return router
}

// SetupPrivateRoutes serves the admin endpoints on the private port.
func SetupPrivateRoutes(metricsPath string) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware)
	router.HandleFunc("/healthz", Healthz).Methods("GET")
	router.Handle(metricsPath, promhttp.Handler()).Methods("GET")
	return router
}
