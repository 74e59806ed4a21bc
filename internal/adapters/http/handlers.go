package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Share/internal/app/orch"
	"github.com/dkeye/Share/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var errTooLarge = errors.New("file too large")

type handlers struct {
	orch      *orch.Orchestrator
	maxUpload int64
}

type usernameRequest struct {
	Username string `json:"username" binding:"required"`
}

func (h *handlers) createRoom(c *gin.Context) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, domain.ErrInvalidUsername)
		return
	}
	inv, err := h.orch.CreateRoom(req.Username)
	if err != nil {
		fail(c, statusFor(err, http.StatusNotFound), err)
		return
	}
	remember(c, inv)
	c.JSON(http.StatusCreated, inv)
}

// roomExists answers whether a room id is live, without revealing members or
// files.
func (h *handlers) roomExists(c *gin.Context) {
	id, err := domain.ParseRoomID(c.Param("room"))
	if err != nil || !h.orch.RoomExists(id) {
		fail(c, http.StatusNotFound, domain.ErrRoomNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) joinRoom(c *gin.Context) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, domain.ErrInvalidUsername)
		return
	}
	id, err := domain.ParseRoomID(c.Param("room"))
	if err != nil {
		fail(c, http.StatusNotFound, err)
		return
	}
	inv, err := h.orch.JoinRequest(id, req.Username)
	if err != nil {
		fail(c, statusFor(err, http.StatusNotFound), err)
		return
	}
	remember(c, inv)
	c.JSON(http.StatusOK, inv)
}

// upload checks the token before the body is read, then stores the file.
func (h *handlers) upload(c *gin.Context) {
	token := c.Query("token")
	id, _ := domain.ParseRoomID(c.Param("room"))
	if _, err := h.orch.Authorize(id, token); err != nil {
		fail(c, statusFor(err, http.StatusBadRequest), err)
		return
	}

	if h.maxUpload > 0 {
		if c.Request.ContentLength > h.maxUpload {
			fail(c, http.StatusRequestEntityTooLarge, errTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(c, http.StatusRequestEntityTooLarge, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "message": "no file uploaded"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	defer f.Close()

	rec, err := h.orch.Upload(id, token, fh.Filename, f)
	if err != nil {
		fail(c, statusFor(err, http.StatusBadRequest), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "file": rec})
}

// statusFor maps core failures to HTTP codes. A missing room answers with
// roomMissing since uploads and lookups differ there.
func statusFor(err error, roomMissing int) int {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return roomMissing
	case errors.Is(err, domain.ErrMissingToken), errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidUsername), errors.Is(err, domain.ErrInvalidCode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"status": "failed", "message": err.Error()})
}

// remember stores the latest invitation so the socket can connect without
// passing the code around.
func remember(c *gin.Context, inv domain.Invitation) {
	s := sessions.Default(c)
	s.Set("room", string(inv.Room))
	s.Set("code", inv.Code)
	if err := s.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
	}
}
