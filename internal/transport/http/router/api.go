package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"remote-medic/internal/core/auth"
	"remote-medic/internal/core/cache"
	"remote-medic/internal/transport/http/handler"
	mdw "remote-medic/internal/transport/http/middleware"
)

// PublicRoutes bypass the auth gate entirely.
var PublicRoutes = []string{
	"/api/auth/login",
	"/api/auth/register",
	"/api/auth/refresh",
}

func NewAPIEngine(l *zap.Logger, db *gorm.DB, jwter *auth.JWTer, cch *cache.Cache) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(l, true),
		mdw.Metrics(),
		mdw.AccessLog(l),
		cors.Default(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(mdw.AuthJWT(jwter, PublicRoutes))

	var reg Registry
	reg.Register(
		handler.NewAuthModule(db, l, jwter),
		handler.NewUsersModule(db, l),
		handler.NewPatientsModule(db, l),
		handler.NewMedicinesModule(db, l, cch),
		handler.NewCarersModule(db, l),
	)
	reg.MountAll(api)

	return r
}
