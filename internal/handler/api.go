package handler

import (
	stderrors "errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pngcrypt-go/internal/auth"
	"github.com/pngcrypt-go/internal/config"
	"github.com/pngcrypt-go/internal/dao"
	"github.com/pngcrypt-go/internal/encryption"
	"github.com/pngcrypt-go/internal/errors"
)

// minPasswordLength applies to account passwords, not encryption passwords
const minPasswordLength = 8

// ContextUserKey is where the auth middleware stores the caller's username
const ContextUserKey = "username"

// APIHandler handles account and metadata routes under /api
type APIHandler struct {
	cfg     *config.Config
	jwtAuth *auth.JWTAuth
	userDAO *dao.UserDAO
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(cfg *config.Config, jwtAuth *auth.JWTAuth, userDAO *dao.UserDAO) *APIHandler {
	return &APIHandler{
		cfg:     cfg,
		jwtAuth: jwtAuth,
		userDAO: userDAO,
	}
}

// NewJWTAuth builds the token issuer from configuration
func NewJWTAuth(cfg *config.Config) *auth.JWTAuth {
	expireHours := cfg.JWTExpire
	if expireHours <= 0 {
		expireHours = 24
	}
	return auth.NewJWTAuth(cfg.JWTSecret, time.Duration(expireHours)*time.Hour)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles user authentication and returns a JWT
func (h *APIHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, errors.NewBadRequestWithCause("Invalid request", err))
		return
	}

	if err := h.userDAO.Validate(req.Username, req.Password); err != nil {
		if stderrors.Is(err, dao.ErrUserNotFound) || stderrors.Is(err, dao.ErrInvalidPassword) {
			RespondError(c, errors.NewUnauthorized("invalid username or password"))
			return
		}
		RespondError(c, errors.NewInternalWithCause("login failed", err))
		return
	}

	token, err := h.jwtAuth.GenerateToken(req.Username)
	if err != nil {
		RespondError(c, errors.NewInternalWithCause("failed to issue token", err))
		return
	}

	RespondSuccess(c, gin.H{
		"username":   req.Username,
		"jwtToken":   token,
		"expires_in": int(h.jwtAuth.Expiration().Seconds()),
	})
}

// GetUserInfo returns current user info
func (h *APIHandler) GetUserInfo(c *gin.Context) {
	RespondSuccess(c, gin.H{
		"username": c.GetString(ContextUserKey),
		"version":  config.Version,
	})
}

type updatePasswordRequest struct {
	Password    string `json:"password" binding:"required"`
	NewPassword string `json:"newpassword" binding:"required"`
}

// UpdatePassword changes the caller's account password
func (h *APIHandler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, errors.NewBadRequestWithCause("Invalid request", err))
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		RespondError(c, errors.NewBadRequest("password too short, at least 8 characters"))
		return
	}

	username := c.GetString(ContextUserKey)
	if err := h.userDAO.Validate(username, req.Password); err != nil {
		RespondError(c, errors.NewUnauthorized("password error"))
		return
	}
	if err := h.userDAO.UpdatePassword(username, req.NewPassword); err != nil {
		RespondError(c, errors.NewInternalWithCause("failed to update password", err))
		return
	}
	RespondSuccessMsg(c, "password updated")
}

// AlgorithmInfo describes one registered cipher
type AlgorithmInfo struct {
	Name      string `json:"name"`
	BlockSize int    `json:"block_size"`
	KeySize   int    `json:"key_size"`
	Default   bool   `json:"default"`
}

// Algorithms lists the registered ciphers
func (h *APIHandler) Algorithms(c *gin.Context) {
	def := h.cfg.Algorithm()
	if def == "" {
		def = encryption.DefaultAlgorithm
	}

	algs := encryption.ListRegistered()
	infos := make([]AlgorithmInfo, 0, len(algs))
	for _, alg := range algs {
		ci, err := encryption.NewBlockCipher(alg)
		if err != nil {
			continue
		}
		infos = append(infos, AlgorithmInfo{
			Name:      string(alg),
			BlockSize: ci.BlockSize(),
			KeySize:   ci.KeySize(),
			Default:   alg == def,
		})
	}
	RespondSuccess(c, infos)
}
