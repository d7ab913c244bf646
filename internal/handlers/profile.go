package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"chattat-service/internal/cache"
	"chattat-service/internal/charms"
	"chattat-service/internal/middleware"
	"chattat-service/internal/repositories"
	"chattat-service/internal/storage"
	"chattat-service/internal/telemetry"
)

const maxAvatarSize = 5 << 20 // 5 MiB

// ProfileHandler manages profile endpoints.
type ProfileHandler struct {
	profiles repositories.ProfileRepository
	cache    *cache.ProfileCache
	avatars  *storage.AvatarStore
	audit    *telemetry.AuditEmitter
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(profiles repositories.ProfileRepository, profileCache *cache.ProfileCache, avatars *storage.AvatarStore, audit *telemetry.AuditEmitter) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		cache:    profileCache,
		avatars:  avatars,
		audit:    audit,
	}
}

// Bootstrap upserts the caller's profile from the token claims. Safe to call
// on every sign-in; repeat calls only refresh last_active_at.
func (h *ProfileHandler) Bootstrap(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	profile, err := h.profiles.Ensure(c.Request.Context(), userID, c.GetString("email"), c.GetString("username"))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to bootstrap profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Me returns the caller's profile. A missing profile means the client has
// not bootstrapped yet, which is a normal outcome.
func (h *ProfileHandler) Me(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	profile, err := h.profiles.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateMe applies the owner-editable fields.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		Username    *string `json:"username"`
		DisplayName *string `json:"display_name"`
		Bio         *string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Username != nil && *req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username cannot be empty"})
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), userID, repositories.ProfileUpdate{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	h.cache.Invalidate(c.Request.Context(), userID)
	emitAudit(h.audit, c, "INFO", "Profile updated")
	c.JSON(http.StatusOK, profile)
}

// Progress reports where the caller sits between levels.
func (h *ProfileHandler) Progress(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	profile, err := h.profiles.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, charms.ProgressFor(profile.Charms))
}

// UploadAvatar stores the multipart image and records its public URL.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}
	if file.Size > maxAvatarSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "avatar too large"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read avatar"})
		return
	}
	defer src.Close()

	url, err := h.avatars.Save(userID, file.Filename, src)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported image type"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store avatar"})
		return
	}

	if err := h.profiles.SetAvatarURL(c.Request.Context(), userID, url); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update avatar"})
		return
	}

	h.cache.Invalidate(c.Request.Context(), userID)
	emitAudit(h.audit, c, "INFO", "Avatar updated")
	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}

// Lookup resolves an exact username to a profile, zero-or-one.
func (h *ProfileHandler) Lookup(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	profile, err := h.profiles.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no user with that username"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Rankings returns the leaderboard ordered by lifetime charms.
func (h *ProfileHandler) Rankings(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	entries, err := h.profiles.TopByCharms(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rankings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rankings": entries})
}
