package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/retechci/retechci-backend/api/controllers"
	"github.com/retechci/retechci-backend/api/middleware"
	"github.com/retechci/retechci-backend/internal/applications"
	"github.com/retechci/retechci-backend/internal/auth"
	"github.com/retechci/retechci-backend/internal/finance"
	"github.com/retechci/retechci-backend/internal/members"
	"github.com/retechci/retechci-backend/internal/messages"
	"github.com/retechci/retechci-backend/internal/salaries"
	"github.com/retechci/retechci-backend/pkg/auth/session"
	"github.com/retechci/retechci-backend/pkg/config"
	"github.com/retechci/retechci-backend/pkg/db"
	"github.com/retechci/retechci-backend/pkg/logger"
	"github.com/retechci/retechci-backend/pkg/redis"
)

// Dependencies are the services and infrastructure the router mounts.
// Redis and Metrics are optional.
type Dependencies struct {
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Metrics  http.Handler

	Auth         auth.Service
	Applications applications.Service
	Members      members.Service
	Salaries     salaries.Service
	Finance      finance.Service
	Messages     messages.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	// typed nils would defeat the nil checks inside the middleware
	var (
		limiter     redis.RateLimiter
		idempotency redis.IdempotencyStore
		redisPinger controllers.Pinger
	)
	if deps.Redis != nil {
		limiter = deps.Redis
		idempotency = deps.Redis
		redisPinger = deps.Redis
	}
	var dbPinger controllers.Pinger
	if deps.DB != nil {
		dbPinger = deps.DB
	}

	authMW := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	idem := middleware.Idempotency(idempotency, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbPinger,
			"redis": redisPinger,
		}))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.RateLimit(middleware.ApplicationPolicy(cfg.AuthRateLimit), limiter, logg)).
			Post("/applications", controllers.SubmitApplication(deps.Applications, logg))
		r.Get("/technicians", controllers.ListTechnicians(deps.Members, logg))
		r.Get("/technicians/{memberId}", controllers.GetTechnician(deps.Members, logg))
		r.Get("/salaries", controllers.ListSalaries(deps.Salaries, logg))
		r.Post("/messages", controllers.SendMessage(deps.Messages, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(middleware.LoginPolicy(cfg.AuthRateLimit), limiter, logg)).
				Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(authMW)
			r.Get("/", controllers.MeProfile(deps.Members, logg))
			r.Get("/cachet", controllers.MeCachet(deps.Members, logg))
			r.Put("/availability", controllers.MeSetAvailability(deps.Members, logg))
			r.Put("/2fa", controllers.MeSetTwoFactor(deps.Members, logg))
			r.Put("/password", controllers.MeChangePassword(deps.Members, logg))
			r.Post("/filmography", controllers.MeAddFilm(deps.Members, logg))
			r.Delete("/filmography/{index}", controllers.MeRemoveFilm(deps.Members, logg))
			r.Put("/avatar", controllers.MeSetAvatar(deps.Members, logg))
			r.Post("/gallery", controllers.MeAddPhoto(deps.Members, logg))
			r.Delete("/gallery/{photoId}", controllers.MeRemovePhoto(deps.Members, logg))
			r.Post("/payments/{year}", controllers.MePayMembership(deps.Members, logg))
		})
	})

	// capabilities are checked by the services; the router only authenticates
	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(authMW)

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", controllers.AdminListApplications(deps.Applications, logg))
			r.Get("/{applicationId}", controllers.AdminGetApplication(deps.Applications, logg))
			r.With(idem).Post("/{applicationId}/approve", controllers.AdminApproveApplication(deps.Applications, logg))
			r.With(idem).Post("/{applicationId}/invite", controllers.AdminInviteApplicant(deps.Applications, logg))
			r.With(idem).Post("/{applicationId}/activate", controllers.AdminActivateApplication(deps.Applications, logg))
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", controllers.AdminListMembers(deps.Members, logg))
			r.With(idem).Post("/", controllers.AdminAddSpecialMember(deps.Members, logg))
			r.With(idem).Put("/{memberId}/sanction", controllers.AdminSanctionMember(deps.Members, logg))
			r.With(idem).Put("/{memberId}/status", controllers.AdminSetMemberStatus(deps.Members, logg))
			r.With(idem).Put("/{memberId}/role", controllers.AdminSetMemberRole(deps.Members, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", controllers.AdminListTransactions(deps.Finance, logg))
			r.With(idem).Post("/", controllers.AdminRecordTransaction(deps.Finance, logg))
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", controllers.AdminListMessages(deps.Messages, logg))
			r.Put("/{messageId}/read", controllers.AdminMarkMessageRead(deps.Messages, logg))
		})
	})

	return r
}
