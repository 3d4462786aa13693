package recordings

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rapidaai/voice-gateway/config"
	"github.com/rapidaai/voice-gateway/pkg/commons"
)

// API exposes finalized recordings over HTTP, separate from the device
// websocket port so management traffic never shares the ingest listener.
type API struct {
	cfg     *config.AppConfig
	logger  commons.Logger
	service *Service
}

func New(cfg *config.AppConfig, logger commons.Logger) *API {
	return &API{
		cfg:     cfg,
		logger:  logger,
		service: NewService(cfg.Recording, logger),
	}
}

// Routes registers the recordings endpoints on the engine.
func (a *API) Routes(engine *gin.Engine) {
	engine.GET("/healthz", a.Healthz)
	apiv1 := engine.Group("v1/device/recordings")
	{
		apiv1.GET("/:deviceId", a.List)
		apiv1.GET("/:deviceId/file/:fileName", a.File)
	}
}

// Run serves the API until the context is cancelled.
func (a *API) Run(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())
	a.Routes(engine)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.HTTPPort),
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Infof("recordings api: listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("recordings api server: %w", err)
	}
	return nil
}

// @Router /v1/device/recordings/:deviceId [get]
// @Summary List a device's finalized recordings, newest first
func (a *API) List(c *gin.Context) {
	c.JSON(http.StatusOK, a.service.List(c.Param("deviceId")))
}

// @Router /v1/device/recordings/:deviceId/file/:fileName [get]
// @Summary Stream or download one recording
func (a *API) File(c *gin.Context) {
	path, ok := a.service.Resolve(c.Param("deviceId"), c.Param("fileName"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "recording not found"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", "audio/mpeg")
	c.File(path)
}

func (a *API) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": a.cfg.Version})
}
