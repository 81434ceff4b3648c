package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nimbusapp/nimbus-api/internal/application/otp"
	"github.com/nimbusapp/nimbus-api/internal/config"
	"github.com/nimbusapp/nimbus-api/internal/transport/http/cookies"
	"github.com/nimbusapp/nimbus-api/internal/transport/http/handler"
	appmiddleware "github.com/nimbusapp/nimbus-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(appmiddleware.Guard(deps.Factory))

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	ckManager := cookies.NewManager(cfg.IsProduction(), cfg.ChallengeTTL)
	otpSvc := otp.NewService(otp.ServiceDeps{
		Identity:       deps.Identity,
		Mailer:         deps.Mailer,
		Challenges:     deps.Challenges,
		SiteURL:        cfg.SiteURL,
		ChallengeTTL:   cfg.ChallengeTTL,
		ResendCooldown: cfg.ResendCooldown,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(otpSvc, ckManager)
	pwH := handler.NewPasswordHandler(otpSvc, ckManager)
	emailH := handler.NewEmailHandler(otpSvc)
	cbH := handler.NewCallbackHandler(otpSvc, ckManager)
	pagesH := handler.NewPageHandler(deps.Factory)

	// ── Pages (guarded by the redirect policy above) ─────────────────────
	r.Get("/", pagesH.Marketing)
	r.Get("/login", pagesH.Login)
	r.Get("/signup", pagesH.Signup)
	r.Get("/verify-code", pagesH.VerifyCode)
	r.Get("/forgot-password", pagesH.ForgotPassword)
	r.Get("/reset-password", pagesH.ResetPassword)
	r.Get("/auth-code-error", pagesH.AuthCodeError)
	r.Get("/dashboard", pagesH.Dashboard)
	r.Get("/dashboard/settings", pagesH.Settings)

	// ── Auth flow endpoints ──────────────────────────────────────────────
	r.Route("/auth", func(r chi.Router) {
		r.With(sensitiveRL.Limit).Post("/signup", authH.Signup)
		r.With(sensitiveRL.Limit).Post("/login", authH.Login)
		r.Post("/verify-code", authH.VerifyCode)
		r.With(sensitiveRL.Limit).Post("/resend-code", authH.ResendCode)
		r.With(sensitiveRL.Limit).Post("/reset-password", pwH.ResetPassword)
		r.Post("/update-password", pwH.UpdatePassword)
		r.Post("/update-email", emailH.UpdateEmail)
		r.Get("/email-change/wait", emailH.WaitEmailChange)
		r.Post("/signout", authH.SignOut)
	})

	// Provider-originated email links land here.
	r.Get("/callback", cbH.Callback)

	r.Get("/healthz", healthH.Ping)

	return r
}
