package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	workforcehttp "github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/http"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/service"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	Ledger         *service.LedgerService
	Store          workforcehttp.Pinger
	AllowedOrigins []string
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware(dep.AllowedOrigins))

	healthHandler := workforcehttp.NewHealthHandler(dep.ServiceName, dep.Version, dep.Store)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")

	workforceGroup := api.Group("/workforce")
	workforceGroup.Use(workforcehttp.RequestIDMiddleware())
	workforcehttp.New(dep.Ledger).Register(workforceGroup)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
