package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/madialex/accounthub/internal/apperr"
	"github.com/madialex/accounthub/internal/cache"
	"github.com/madialex/accounthub/internal/config"
	"github.com/madialex/accounthub/internal/domain/user"
	"github.com/madialex/accounthub/internal/http/middlewares"
	"github.com/madialex/accounthub/internal/security"
)

const usersListCacheKey = "users:list"

type UsersHandler struct {
	users UsersStore
	cache *cache.Cache
}

func NewUsersHandler(users UsersStore, listCache *cache.Cache) *UsersHandler {
	return &UsersHandler{users: users, cache: listCache}
}

// GetProfile returns the identity RequireAuth attached; no store hit,
// so two calls with the same token always agree.
func (h *UsersHandler) GetProfile(ctx *gin.Context) {
	id, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		Fail(ctx, apperr.Unauthenticated("You must be logged in!"))
		return
	}

	ctx.JSON(http.StatusOK, id)
}

type UpdateProfileRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=1"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Password       *string `json:"password" binding:"omitempty,min=8"`
	ProfilePicture *string `json:"profilePicture" binding:"omitempty,url"`
}

// UpdateProfile is the self-service path: name/email/password only. The
// admin flag is not bindable here, so a user can never promote itself.
func (h *UsersHandler) UpdateProfile(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		Fail(ctx, apperr.Unauthenticated("You must be logged in!"))
		return
	}

	var req UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	// the record can vanish between auth and load
	u, err := h.users.GetByID(cctx, identity.ID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			Fail(ctx, apperr.NotFound("User not found!"))
			return
		}

		Fail(ctx, err)
		return
	}

	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}

	if req.Email != nil {
		u.Email = *req.Email
	}

	if req.ProfilePicture != nil {
		u.ProfilePicture = *req.ProfilePicture
	}

	// re-hash only when a new plaintext arrived; saving unrelated field
	// changes must never touch the stored hash
	if req.Password != nil {
		hash, err := security.HashPassword(*req.Password)

		if err != nil {
			Fail(ctx, err)
			return
		}

		u.PasswordHash = hash
	}

	updated, err := h.users.Update(cctx, u)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			Fail(ctx, apperr.BadRequest("email_taken", "Email is already in use."))
			return
		}

		if errors.Is(err, user.ErrNotFound) {
			Fail(ctx, apperr.NotFound("User not found!"))
			return
		}

		Fail(ctx, err)
		return
	}

	h.invalidateListing()

	ctx.JSON(http.StatusOK, gin.H{
		"message": "profile updated!",
		"user":    updated.Public(),
	})
}

// ListUsers is admin-only; the projection never includes the hash.
func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	if h.cache != nil {
		if v, ok := h.cache.Get(usersListCacheKey); ok {
			if items, ok := v.([]user.Public); ok {
				ctx.JSON(http.StatusOK, items)
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	all, err := h.users.List(cctx)

	if err != nil {
		Fail(ctx, err)
		return
	}

	out := make([]user.Public, 0, len(all))

	for _, u := range all {
		out = append(out, u.Public())
	}

	if h.cache != nil {
		h.cache.Set(usersListCacheKey, out)
	}

	ctx.JSON(http.StatusOK, out)
}

type UpdateUserRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1"`
	Email   *string `json:"email" binding:"omitempty,email"`
	IsAdmin *bool   `json:"isAdmin"`
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	targetID := ctx.Param("id")

	var req UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, targetID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			Fail(ctx, apperr.NotFound("User not found!"))
			return
		}

		Fail(ctx, err)
		return
	}

	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}

	if req.Email != nil {
		u.Email = *req.Email
	}

	if req.IsAdmin != nil {
		u.IsAdmin = *req.IsAdmin
	}

	updated, err := h.users.Update(cctx, u)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			Fail(ctx, apperr.BadRequest("email_taken", "Email is already in use."))
			return
		}

		if errors.Is(err, user.ErrNotFound) {
			Fail(ctx, apperr.NotFound("User not found!"))
			return
		}

		Fail(ctx, err)
		return
	}

	h.invalidateListing()

	ctx.JSON(http.StatusOK, gin.H{
		"message": "user updated!",
		"user":    updated.Public(),
	})
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	targetID := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, targetID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			Fail(ctx, apperr.NotFound("User not found!"))
			return
		}

		Fail(ctx, err)
		return
	}

	if u.IsAdmin {
		Fail(ctx, apperr.BadRequest("admin_undeletable", "Admin user cannot be deleted!"))
		return
	}

	if err := h.users.Delete(cctx, u.ID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			Fail(ctx, apperr.NotFound("User not found!"))
			return
		}

		Fail(ctx, err)
		return
	}

	h.invalidateListing()

	ctx.JSON(http.StatusOK, gin.H{
		"message": "user deleted!",
	})
}

func (h *UsersHandler) invalidateListing() {
	if h.cache != nil {
		h.cache.Delete(usersListCacheKey)
	}
}
