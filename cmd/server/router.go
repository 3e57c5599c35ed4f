package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmehra/quizforge/internal/api"
)

// setupRouter configures the HTTP router with middleware and the
// operational endpoints. Quiz and poll traffic arrives through the
// chat transport, so the HTTP surface is intentionally small.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	admin := api.NewAdminHandler(app.queue, app.statuses, app.pollManager, app.rotator)
	r.Get("/health", admin.Health)
	r.Get("/status", admin.Status)

	return r
}
