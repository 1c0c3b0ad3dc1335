package api

import (
	"context"
	"net/http"
	"time"

	"dactylo_api/internal/api/handler"
	"dactylo_api/internal/api/middleware"
	"dactylo_api/internal/app/service"
	"dactylo_api/internal/common"
	"dactylo_api/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/sirupsen/logrus"
)

// Pinger reports whether the database answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Services struct {
	Auth       *service.AuthService
	Users      *service.UserService
	Courses    *service.CourseService
	Challenges *service.ChallengeService
	Badges     *service.BadgeService
	Groups     *service.GroupService
	Exercises  *service.ExerciseService
	Stats      *service.StatService
}

type RouterConfig struct {
	Tokens         *security.TokenIssuer
	Weekly         handler.WeeklyRunner
	DB             Pinger
	Logger         logrus.FieldLogger
	CORSOrigins    []string
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig, svc Services) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.StripSlashes)
	if cfg.RequestTimeout > 0 {
		r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))
	}

	// Verifies "Authorization: Bearer T" when present; Authenticator enforces it per route.
	r.Use(jwtauth.Verifier(cfg.Tokens.JWTAuth()))
	auth := middleware.Authenticator(svc.Auth)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.DB.PingContext(r.Context()); err != nil {
			middleware.LoggerFromContext(r.Context()).WithError(err).Error("health check failed")
			common.RespondWithError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	handler.NewAuthHandler(svc.Auth).RegisterRoutes(r)
	handler.NewUserHandler(svc.Users, svc.Auth, svc.Badges, svc.Exercises, auth).RegisterRoutes(r)
	handler.NewCourseHandler(svc.Courses).RegisterRoutes(r)
	handler.NewChallengeHandler(svc.Challenges, cfg.Weekly, auth, middleware.AdminOnly).RegisterRoutes(r)
	handler.NewBadgeHandler(svc.Badges, auth).RegisterRoutes(r)
	handler.NewGroupHandler(svc.Groups, auth).RegisterRoutes(r)
	handler.NewExerciseHandler(svc.Exercises, auth).RegisterRoutes(r)
	handler.NewStatHandler(svc.Stats, svc.Users, auth).RegisterRoutes(r)

	return applyCORSHandler(r, cfg.CORSOrigins)
}
