package http

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http/middleware"
	appsvc "github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/service"
	authErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc     appsvc.Service
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewHandler(svc appsvc.Service, log *zap.Logger, m *metrics.Metrics) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Handler{svc: svc, log: log, metrics: m}
}

type RouterOptions struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(h.log))

	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: opts.AllowCredentials,
			MaxAge:           12 * time.Hour,
		}))
	}

	auth := router.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)

	users := router.Group("/users", middleware.RequireBearer(h.svc))
	users.GET("/me", h.Me)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	return router
}

func (h *Handler) Register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "register", err)
		return
	}
	h.log.Info("/auth/register", zap.String("user", fingerprint(body.Email)))

	sess, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, "register", err)
		return
	}
	h.metrics.Observe("register", metrics.OutcomeOK)
	c.JSON(http.StatusCreated, dto.NewSessionResponse(sess))
}

func (h *Handler) Login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "login", err)
		return
	}
	h.log.Info("/auth/login", zap.String("user", fingerprint(body.Email)))

	sess, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, "login", err)
		return
	}
	h.metrics.Observe("login", metrics.OutcomeOK)
	c.JSON(http.StatusOK, dto.NewSessionResponse(sess))
}

func (h *Handler) Refresh(c *gin.Context) {
	var body dto.RefreshDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "refresh", err)
		return
	}

	sess, err := h.svc.Refresh(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, "refresh", err)
		return
	}
	h.metrics.Observe("refresh", metrics.OutcomeOK)
	c.JSON(http.StatusOK, dto.NewSessionResponse(sess))
}

func (h *Handler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		h.handleError(c, "me", authErrors.ErrInvalidToken)
		return
	}
	h.metrics.Observe("me", metrics.OutcomeOK)
	c.JSON(http.StatusOK, user.Profile())
}

func (h *Handler) badRequest(c *gin.Context, op string, err error) {
	h.metrics.Observe(op, metrics.OutcomeInvalid)
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request body"})
	_ = c.Error(err)
}

// handleError never says which credential check failed.
func (h *Handler) handleError(c *gin.Context, op string, err error) {
	switch {
	case authErrors.IsInvalidArgument(err):
		h.metrics.Observe(op, metrics.OutcomeInvalid)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case authErrors.IsInvalidCredentials(err):
		h.metrics.Observe(op, metrics.OutcomeUnauthorized)
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
	case authErrors.IsInvalidToken(err):
		h.metrics.Observe(op, metrics.OutcomeUnauthorized)
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid token"})
	case authErrors.IsAlreadyExists(err):
		h.metrics.Observe(op, metrics.OutcomeConflict)
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "email already registered"})
	default:
		h.metrics.Observe(op, metrics.OutcomeError)
		h.log.Error("internal error", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
}

func fingerprint(email string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(email)))
}
