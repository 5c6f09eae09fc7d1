package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"adreel/internal/config"
	"adreel/internal/handler"
	renderHandler "adreel/internal/handler/render"
	"adreel/internal/server/middleware"
	"adreel/internal/service"
)

// shutdownTimeout 关闭时等待 HTTP 连接与渲染任务的最长时间
const shutdownTimeout = 30 * time.Second

// Server HTTP 服务器
type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	deps    *Deps
	janitor *service.Janitor
}

// New 创建服务器实例
func New(cfg *config.Config, deps *Deps) *Server {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &Server{
		cfg:     cfg,
		engine:  gin.New(),
		deps:    deps,
		janitor: service.NewJanitor(cfg.Render.TempDir, cfg.Render.TempRetention),
	}
	srv.setupRoutes()
	return srv
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler()
	if s.deps.Mongo != nil {
		healthHandler.AddCheck("mongo", s.deps.Mongo.Ping)
	}
	if s.deps.Redis != nil {
		healthHandler.AddCheck("redis", s.deps.Redis.Ping)
	}
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1
	renderHdl := renderHandler.NewHandler(s.deps.Jobs, s.deps.Resolver)
	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/renders", renderHdl.CreateRender)
		v1.GET("/renders", renderHdl.ListRenders)
		v1.GET("/renders/:job_id", renderHdl.GetRender)

		v1.GET("/layouts", renderHdl.ListLayouts)
		v1.GET("/layouts/:mode", renderHdl.GetLayout)
	}
}

// Run 启动服务器，ctx 取消后依次关闭 HTTP、清理任务、渲染任务和外部连接
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	if schedule := s.cfg.Render.JanitorSchedule; schedule != "" {
		if err := s.janitor.Start(schedule); err != nil {
			return err
		}
		defer s.janitor.Stop()
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if jobErr := s.deps.Jobs.Shutdown(shutdownCtx); jobErr != nil {
			log.Warn().Err(jobErr).Msg("render jobs cancelled before completion")
		}
		s.deps.Close(shutdownCtx)
		return err
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
