package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/nfrais/notes-de-frais/internal/auth"
	"github.com/nfrais/notes-de-frais/internal/category"
	"github.com/nfrais/notes-de-frais/internal/export"
	"github.com/nfrais/notes-de-frais/internal/receipt"
	"github.com/nfrais/notes-de-frais/internal/scanning"
	"github.com/nfrais/notes-de-frais/internal/transport/middleware"
	"github.com/nfrais/notes-de-frais/internal/transport/swagger"
	"github.com/nfrais/notes-de-frais/internal/uploadqueue"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, allowedOrigins string, authHandler *auth.Handler, categoryHandler *category.Handler, receiptHandler *receipt.Handler, exportHandler *export.Handler, queueHandler *uploadqueue.Handler, callbackHandler *scanning.CallbackHandler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORSWithOrigins(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Scan results pushed by an out-of-process extraction service.
		if callbackHandler != nil {
			r.Post("/scan/callback", callbackHandler.HandleScanCallback)
		}

		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		// The category registry is static reference data; no auth required.
		if categoryHandler != nil {
			r.Get("/categories", categoryHandler.GetCategories)
		}

		if authHandler != nil {
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				pr.Get("/users/me", authHandler.Profile)

				if receiptHandler != nil {
					pr.Route("/receipts", func(rr chi.Router) {
						rr.Post("/", receiptHandler.CreateReceipt)
						rr.Get("/", receiptHandler.ListReceipts)
						rr.Post("/image", receiptHandler.UploadImage)
						rr.Get("/{id}", receiptHandler.GetReceipt)
						rr.Patch("/{id}", receiptHandler.UpdateReceipt)
						rr.Delete("/{id}", receiptHandler.DeleteReceipt)
					})
				}

				if exportHandler != nil {
					pr.Route("/exports", func(er chi.Router) {
						er.Get("/", exportHandler.ListExports)
						er.Post("/{month}", exportHandler.ExportMonth)
					})
				}

				if queueHandler != nil {
					pr.Route("/queue", func(qr chi.Router) {
						qr.Post("/", queueHandler.Enqueue)
						qr.Get("/", queueHandler.ListEntries)
						qr.Post("/sync", queueHandler.Sync)
					})
				}
			})
		}
	})
}
