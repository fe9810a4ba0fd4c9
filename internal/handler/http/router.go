package http

import (
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth/v5"
	"github.com/haulops/backoffice-go/internal/config"
	"github.com/haulops/backoffice-go/internal/domain/user"
	"github.com/haulops/backoffice-go/internal/handler/http/middleware"
	"github.com/haulops/backoffice-go/internal/pkg/jwt"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewLogger builds the JSON logger shared by the router and the services.
func NewLogger(w io.Writer, app config.AppConfig) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(false)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       app.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", app.Name),
		slog.String("version", app.Version),
		slog.String("env", app.Env),
	)
}

func NewRouter(cfg config.HTTPConfig, logger *slog.Logger, JWTService jwt.Service, payrollHandler PayrollHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService))

			r.Route("/payroll", func(r chi.Router) {
				r.Route("/{category}/periods/{start}/{end}", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/", payrollHandler.OpenPeriod)

					r.Route("/records/{employeeId}", func(r chi.Router) {
						r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/trips", payrollHandler.ListTrips)

						r.Group(func(r chi.Router) {
							r.Use(middleware.RequirePermission(user.PermissionPayrollEdit))
							r.Patch("/", payrollHandler.EditRecord)
							r.Post("/override", payrollHandler.ToggleOverride)
							r.Post("/thirteenth-month", payrollHandler.ApplyThirteenthMonth)
							r.Put("/trips/{waybill}", payrollHandler.UpdateTrip)
						})
					})

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionPayrollEdit))
						r.Post("/drafts", payrollHandler.SaveDrafts)
						r.Delete("/drafts", payrollHandler.ClearDrafts)
					})

					r.With(middleware.RequirePermission(user.PermissionPayrollFinalize)).Post("/finalize", payrollHandler.Finalize)
				})

				r.With(middleware.RequirePermission(user.PermissionPayrollFinalize)).
					Post("/reports/{reportId}/clear-drafts", payrollHandler.ClearFinalizedDrafts)
			})
		})
	})
	return r
}
