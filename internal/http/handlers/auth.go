package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/madialex/accounthub/internal/apperr"
	"github.com/madialex/accounthub/internal/auth"
	"github.com/madialex/accounthub/internal/config"
	"github.com/madialex/accounthub/internal/domain/user"
	"github.com/madialex/accounthub/internal/http/middlewares"
	"github.com/madialex/accounthub/internal/jobs"
	"github.com/madialex/accounthub/internal/security"
)

// UsersStore is everything the controller needs from persistence.
type UsersStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]user.User, error)
}

// WelcomeEnqueuer pushes the post-signup job. Nil-able: signup works
// without a queue.
type WelcomeEnqueuer interface {
	Enqueue(ctx context.Context, payload []byte) error
}

type AuthHandler struct {
	users UsersStore
	jwt   *auth.Manager
	queue WelcomeEnqueuer
	cfg   config.Config
}

func NewAuthHandler(users UsersStore, jwtManager *auth.Manager, queue WelcomeEnqueuer, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwtManager,
		queue: queue,
		cfg:   cfg,
	}
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	// pre-check; the unique index still backstops concurrent signups
	_, err := h.users.GetByEmail(cctx, req.Email)

	if err == nil {
		Fail(ctx, apperr.BadRequest("email_taken", fmt.Sprintf("User with email %s already exists!", req.Email)))
		return
	}

	if !errors.Is(err, user.ErrNotFound) {
		Fail(ctx, err)
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		Fail(ctx, err)
		return
	}

	u, err := h.users.Create(cctx, user.New(req.Name, req.Email, hash))

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			// lost the race to a concurrent signup
			Fail(ctx, apperr.BadRequest("email_taken", fmt.Sprintf("User with email %s already exists!", req.Email)))
			return
		}

		Fail(ctx, err)
		return
	}

	token, err := h.jwt.GenerateSessionToken(u.ID)

	if err != nil {
		Fail(ctx, err)
		return
	}

	h.setSessionCookie(ctx, token)
	h.enqueueWelcome(ctx, u)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered!",
		"user":    u.Public(),
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			Fail(ctx, apperr.BadRequest("invalid_credentials", fmt.Sprintf("%s not registered!", req.Email)))
			return
		}

		Fail(ctx, err)
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		Fail(ctx, apperr.BadRequest("invalid_credentials", "Invalid Password!"))
		return
	}

	token, err := h.jwt.GenerateSessionToken(foundUser.ID)

	if err != nil {
		Fail(ctx, err)
		return
	}

	h.setSessionCookie(ctx, token)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "login successful!",
		"user":    foundUser.Public(),
	})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.clearSessionCookie(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "logout successfully!",
	})
}

// helpers

func (h *AuthHandler) enqueueWelcome(ctx *gin.Context, u user.User) {
	if h.queue == nil {
		return
	}

	payload, err := jobs.EncodePayload(jobs.JobWelcomeEmail, jobs.WelcomeEmailPayload{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
	})

	if err != nil {
		return
	}

	j, err := jobs.NewJob(jobs.JobWelcomeEmail, payload)

	if err != nil {
		return
	}

	raw, err := jobs.Encode(j)

	if err != nil {
		return
	}

	// best-effort: a down queue never fails the signup
	qctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
	defer cancel()

	_ = h.queue.Enqueue(qctx, raw)
}

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, token string) {
	secure := h.cfg.Env == "prod"

	maxAge := int(h.cfg.TokenTTL().Seconds())

	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		middlewares.SessionCookie,
		token,
		maxAge,
		"/",
		"",
		secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		middlewares.SessionCookie,
		"",
		-1,
		"/",
		"",
		secure,
		true,
	)
}
