package handler

import (
	"crypto/sha256"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gorilla/csrf"
	"github.com/gorilla/schema"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/auth"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/notify"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/roster"
)

type Handler struct {
	validate   *validator.Validate
	translator ut.Translator
	decoder    *schema.Decoder
	sanitizer  *bluemonday.Policy

	config        *config.Config
	location      *time.Location
	repository    *repository.Repository
	authenticator auth.Authenticator
	sessions      *auth.Sessions
	notifier      notify.Notifier
	metrics       *metrics.Metrics
	roster        *roster.Builder
	now           func() time.Time

	Mux *chi.Mux
}

func NewHandler(
	cfg *config.Config,
	repo *repository.Repository,
	authenticator auth.Authenticator,
	sessions *auth.Sessions,
	notifier notify.Notifier,
	m *metrics.Metrics,
) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &Handler{
		validate:   validate,
		translator: trans,
		decoder:    decoder,
		sanitizer:  bluemonday.StrictPolicy(),

		config:        cfg,
		location:      location,
		repository:    repo,
		authenticator: authenticator,
		sessions:      sessions,
		notifier:      notifier,
		metrics:       m,
		roster:        roster.NewBuilder(repo),
		now:           time.Now,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(middleware.RequestID)
	h.Mux.Use(middleware.RealIP)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	if h.config.CSRF.Enabled {
		h.Mux.Use(h.csrf())
	}

	// 不需要登录
	h.Mux.Get("/health", h.Health)
	h.Mux.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	h.Mux.Get("/login", h.LoginPage)
	h.Mux.Post("/login", h.Login)

	// 以下路由必须要在登录后才允许访问
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			h.redirect(w, r, "/roster")
		})
		r.Get("/logout", h.Logout)
		r.Get("/roster", h.GetRoster)

		r.Route("/me", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Post("/password", h.UpdateMyPassword)
		})

		// 管理员操作，非管理员会被带着提示重定向回班表
		r.With(h.requireAdmin("Only admins can assign shifts")).Post("/assign_shift", h.AssignShift)
		r.With(h.requireAdmin("Only admins can manage team")).Get("/team", h.GetTeam)
		r.With(h.requireAdmin("Only admins can add members")).Post("/add_member", h.AddMember)
		r.With(h.requireAdmin("Only admins can edit members"), h.member).Post("/edit_member/{id}", h.EditMember)
		r.With(h.requireAdmin("Only admins can delete members"), h.member).Post("/delete_member/{id}", h.DeleteMember)
	})
}

// csrf 保护所有非幂等的表单请求，没有配置密钥时从会话密钥派生
func (h *Handler) csrf() func(http.Handler) http.Handler {
	key := []byte(h.config.CSRF.Key)
	if len(key) != 32 {
		sum := sha256.Sum256([]byte("csrf:" + h.config.CSRF.Key + h.config.Session.Secret))
		key = sum[:]
	}

	protect := csrf.Protect(key,
		csrf.Secure(h.config.IsProduction()),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(h.csrfFailure)),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 非生产环境通常没有 TLS，需要告诉 csrf 不要做 HTTPS 下的 Referer 检查
			if !h.config.IsProduction() {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) csrfFailure(w http.ResponseWriter, r *http.Request) {
	slog.Warn("CSRF 校验失败", "method", r.Method, "path", r.URL.Path, "reason", csrf.FailureReason(r))
	h.writeJSON(w, r, http.StatusForbidden, Response{
		Success: false,
		Message: "Invalid CSRF token",
		Data:    nil,
	})
}
