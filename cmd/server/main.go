package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "cims/docs" // swagger docs

	"github.com/labstack/echo/v4"

	"cims/internal/auth"
	"cims/internal/cache"
	"cims/internal/config"
	"cims/internal/db"
	"cims/internal/handler"
	"cims/internal/logger"
	"cims/internal/metrics"
	"cims/internal/repository"
	"cims/internal/router"
	"cims/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title CIMS Member Service API
// @version 1.0
// @description Member directory, group membership and sports project operations with JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat))

	provider, err := db.Open(cfg.CIMSDSN, cfg.ProjectDSN, db.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	if err != nil {
		slog.Error("database init", "error", err)
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		slog.Warn("redis unreachable, refresh tokens will not survive", "addr", cfg.RedisAddr, "error", err)
	}
	cancel()

	// Initialize repositories
	memberRepo := repository.NewMemberRepository(provider.CIMS)
	teamRepo := repository.NewTeamRepository(provider.Project)
	eventRepo := repository.NewEventRepository(provider.Project)
	equipmentRepo := repository.NewEquipmentRepository(provider.Project)
	matchRepo := repository.NewMatchRepository(provider.Project)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	checks := service.NewChecks(memberRepo, teamRepo, eventRepo, equipmentRepo, cfg.Location, time.Now)
	authService := service.NewAuthService(memberRepo, jwtService, tokenStore)
	memberService := service.NewMemberService(memberRepo, service.MemberSettings{
		DefaultPassword: cfg.DefaultPassword,
		HomeGroupID:     cfg.HomeGroupID,
		ListPolicy:      auth.PolicyFromRoles(cfg.GroupListRoles),
	})
	rosterService := service.NewRosterService(teamRepo, checks, cfg.TeamMaxPlayers)
	equipmentService := service.NewEquipmentService(equipmentRepo, checks, time.Now)
	matchService := service.NewMatchService(matchRepo, checks)

	e := echo.New()
	e.HideBanner = true

	router.Register(e, cfg, jwtService, metrics.NewHTTP(), router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Member:  handler.NewMemberHandler(memberService),
		Project: handler.NewProjectHandler(rosterService, equipmentService, matchService),
		Health:  handler.NewHealthHandler(provider),
	})

	slog.Info("swagger documentation available", "url", swaggerURL(cfg.SwaggerHost, cfg.ServerPort))

	go func() {
		addr := ":" + cfg.ServerPort
		slog.Info("server starting", "addr", addr, "home_group", cfg.HomeGroupID, "timezone", cfg.Location.String())
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := e.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := provider.Close(); err != nil {
		slog.Error("close databases", "error", err)
	}
	if err := cacheClient.Close(); err != nil {
		slog.Error("close redis", "error", err)
	}
	slog.Info("server exited")
}

// swaggerURL accepts a host with or without a scheme.
func swaggerURL(host, port string) string {
	if host == "" {
		return "http://localhost:" + port + "/swagger/index.html"
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return strings.TrimSuffix(host, "/") + "/swagger/index.html"
}
