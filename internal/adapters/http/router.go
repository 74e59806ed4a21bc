package http

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dkeye/Share/internal/adapters/signal"
	"github.com/dkeye/Share/internal/app/orch"
	"github.com/dkeye/Share/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const sessionName = "ShareSessions"

// FileServer exposes stored uploads.
type FileServer interface {
	Prefix() string
	HTTP() http.FileSystem
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, files FileServer) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))

	r.Static("/static", cfg.StaticPath)
	r.StaticFS(files.Prefix(), files.HTTP())
	index := filepath.Join(cfg.StaticPath, "index.html")
	r.GET("/", func(c *gin.Context) {
		if _, err := os.Stat(index); err == nil {
			c.File(index)
			return
		}
		c.String(http.StatusOK, "Hello")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Str("uploads", files.Prefix()).Msg("router setup")

	h := &handlers{orch: o, maxUpload: cfg.MaxUploadBytes}
	ctrl := signal.NewSignalWSController(o, cfg.ReadLimit, cfg.PingPeriod, cfg.SendBuffer)

	r.POST("/upload/:room", h.upload)

	api := r.Group("/api")
	api.POST("/rooms", h.createRoom)
	api.GET("/rooms/:room", h.roomExists)
	api.POST("/rooms/:room/join", h.joinRoom)

	api.GET("/ws", func(c *gin.Context) {
		p := signal.JoinParams{
			Room:     c.Query("room"),
			Code:     c.Query("code"),
			Username: c.Query("username"),
		}
		if p.Code == "" && p.Username == "" {
			// fall back to the invitation remembered by create/join
			s := sessions.Default(c)
			if room, ok := s.Get("room").(string); ok && (p.Room == "" || p.Room == room) {
				p.Room = room
				p.Code, _ = s.Get("code").(string)
			}
		}
		ctrl.HandleSignal(ctx, c, p)
	})

	return r
}
