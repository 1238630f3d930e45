package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/course-enrollment/internal/auth"
	"github.com/frahmantamala/course-enrollment/internal/enrollment"
	"github.com/frahmantamala/course-enrollment/internal/job"
	"github.com/frahmantamala/course-enrollment/internal/payment"
	"github.com/frahmantamala/course-enrollment/internal/training"
	"github.com/frahmantamala/course-enrollment/internal/transport/middleware"
	"github.com/frahmantamala/course-enrollment/internal/transport/swagger"
	"github.com/frahmantamala/course-enrollment/internal/user"
)

type Handlers struct {
	Auth       *auth.Handler
	User       *user.Handler
	Payment    *payment.Handler
	Webhook    *payment.WebhookHandler
	Enrollment *enrollment.Handler
	Training   *training.Handler
	Job        *job.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// OpenAPI spec and swagger UI live outside the API prefix
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Gateway webhook: signature-checked inside the handler, no auth
		if h.Webhook != nil {
			r.Post("/webhooks/korapay", h.Webhook.HandleChargeNotification)
		}

		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/signup", h.Auth.Signup)
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		// Payment initialize/verify are public: the paying browser is not
		// necessarily logged in when the mobile-money prompt fires.
		if h.Payment != nil {
			r.Route("/payments", func(pr chi.Router) {
				pr.Post("/initialize", h.Payment.InitiatePayment)
				pr.Post("/verify", h.Payment.VerifyPayment)
				pr.Post("/authorize", h.Payment.AuthorizePayment)
			})
		}

		// Public job browsing
		if h.Job != nil {
			r.Get("/jobs", h.Job.ListPostings)
			r.Get("/jobs/{id}", h.Job.GetPosting)
		}

		// Public training browsing
		if h.Training != nil {
			r.Get("/trainings", h.Training.ListSessions)
			r.Get("/trainings/upcoming", h.Training.UpcomingSessions)
			r.Get("/trainings/{id}", h.Training.GetSession)
		}

		if h.Auth == nil {
			return
		}

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
			}

			if h.Enrollment != nil {
				pr.Route("/enrollments", func(er chi.Router) {
					er.Get("/access", h.Enrollment.CheckAccess)
					er.Get("/", h.Enrollment.ListEnrollments)
				})
			}

			if h.Training != nil {
				pr.Post("/trainings/{id}/enroll", h.Training.Enroll)
				pr.Get("/trainings/{id}/videos", h.Training.SessionVideos)

				pr.Group(func(ar chi.Router) {
					ar.Use(auth.RequireAdmin())
					ar.Post("/trainings", h.Training.CreateSession)
					ar.Patch("/trainings/{id}", h.Training.UpdateSession)
					ar.Delete("/trainings/{id}", h.Training.CancelSession)
					ar.Post("/trainings/{id}/videos", h.Training.AddVideo)
				})
			}

			if h.Job != nil {
				pr.Post("/jobs/{id}/applications", h.Job.Apply)

				pr.Group(func(ar chi.Router) {
					ar.Use(auth.RequireAdmin())
					ar.Post("/jobs", h.Job.CreatePosting)
					ar.Delete("/jobs/{id}", h.Job.ClosePosting)
					ar.Get("/jobs/{id}/applications", h.Job.ListApplicants)
					ar.Patch("/jobs/applications/{id}", h.Job.UpdateApplicationStatus)
				})
			}

			if h.Payment != nil {
				pr.Group(func(ar chi.Router) {
					ar.Use(auth.RequireAdmin())
					ar.Get("/admin/payments", h.Payment.ListPayments)
					ar.Get("/admin/payments/stats", h.Payment.PaymentStats)
					ar.Get("/admin/payments/{reference}", h.Payment.GetPayment)
				})
			}
		})
	})
}
