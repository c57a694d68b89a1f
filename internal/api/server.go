// Package api serves the read-only HTTP facade over the indexed state.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"launchpad-indexer/internal/observability"
	"launchpad-indexer/internal/storage"
)

// Stores bundles the read-side store dependencies of the facade.
type Stores struct {
	Deploys      storage.TokenDeployStore
	Launches     storage.TokenLaunchStore
	Metadata     storage.TokenMetadataStore
	Transactions storage.TokenTransactionStore
	Shareholders storage.ShareholderStore
	Candles      storage.CandlestickStore
}

// NewRouter builds the gin engine with every read route registered.
func NewRouter(stores Stores, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	tokens := &TokenHandler{Stores: stores, Logger: logger.Named("api")}
	tokens.Register(engine)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(observability.Handler()))

	return engine
}
