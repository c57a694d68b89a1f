package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// TokenHandler serves the token read routes.
type TokenHandler struct {
	Stores Stores
	Logger *zap.Logger
}

func (h *TokenHandler) Register(r *gin.Engine) {
	r.GET("/tokens", h.listTokens)
	r.GET("/tokens/:address", h.getToken)
	r.GET("/tokens/:address/holders", h.listHolders)
	r.GET("/tokens/:address/transactions", h.listTransactions)
	r.GET("/tokens/:address/candles", h.listCandles)
}

type tokenSummary struct {
	MemecoinAddress  string          `json:"memecoin_address"`
	OwnerAddress     string          `json:"owner_address"`
	Network          string          `json:"network"`
	BlockTimestamp   int64           `json:"block_timestamp"`
	TotalSupply      decimal.Decimal `json:"total_supply"`
	CurrentSupply    decimal.Decimal `json:"current_supply"`
	LiquidityRaised  decimal.Decimal `json:"liquidity_raised"`
	TotalTokenHolded decimal.Decimal `json:"total_token_holded"`
	Price            decimal.Decimal `json:"price"`
	MarketCap        decimal.Decimal `json:"market_cap"`
	IsLiquidityAdded bool            `json:"is_liquidity_added"`
}

type tokenDetail struct {
	MemecoinAddress string        `json:"memecoin_address"`
	Name            string        `json:"name,omitempty"`
	Symbol          string        `json:"symbol,omitempty"`
	Deploy          *deployInfo   `json:"deploy,omitempty"`
	Launch          *tokenSummary `json:"launch,omitempty"`
	URL             *string       `json:"url,omitempty"`
	Twitter         *string       `json:"twitter,omitempty"`
	Telegram        *string       `json:"telegram,omitempty"`
	Github          *string       `json:"github,omitempty"`
	Website         *string       `json:"website,omitempty"`
}

type deployInfo struct {
	TransactionHash string          `json:"transaction_hash"`
	OwnerAddress    string          `json:"owner_address"`
	BlockTimestamp  int64           `json:"block_timestamp"`
	InitialSupply   decimal.Decimal `json:"initial_supply"`
	TotalSupply     decimal.Decimal `json:"total_supply"`
}

type holderEntry struct {
	OwnerAddress string          `json:"owner_address"`
	AmountOwned  decimal.Decimal `json:"amount_owned"`
	AmountBuy    decimal.Decimal `json:"amount_buy"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	IsClaimable  bool            `json:"is_claimable"`
}

type transactionEntry struct {
	TransferID      string           `json:"transfer_id"`
	TransactionHash string           `json:"transaction_hash"`
	OwnerAddress    string           `json:"owner_address,omitempty"`
	Amount          decimal.Decimal  `json:"amount"`
	QuoteAmount     decimal.Decimal  `json:"quote_amount"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	TransactionType string           `json:"transaction_type"`
	Timestamp       int64            `json:"timestamp"`
}

type candleEntry struct {
	IntervalMinutes int             `json:"interval_minutes"`
	Timestamp       int64           `json:"timestamp"`
	Open            decimal.Decimal `json:"open"`
	High            decimal.Decimal `json:"high"`
	Low             decimal.Decimal `json:"low"`
	Close           decimal.Decimal `json:"close"`
}

func (h *TokenHandler) listTokens(c *gin.Context) {
	limit, offset := pageParams(c)

	order := storage.OrderByCreatedDesc
	switch c.Query("sort") {
	case "", "created":
	case "liquidity":
		order = storage.OrderByLiquidityDesc
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be liquidity or created"})
		return
	}

	launches, err := h.Stores.Launches.List(c.Request.Context(), limit, offset, order)
	if err != nil {
		h.fail(c, "list launches", err)
		return
	}

	out := make([]tokenSummary, 0, len(launches))
	for _, l := range launches {
		out = append(out, summarize(l))
	}
	c.JSON(http.StatusOK, gin.H{"tokens": out, "limit": limit, "offset": offset})
}

func (h *TokenHandler) getToken(c *gin.Context) {
	ctx := c.Request.Context()
	address := c.Param("address")

	deploy, err := h.Stores.Deploys.GetByMemecoinAddress(ctx, address)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.fail(c, "get deploy", err)
		return
	}
	launch, err := h.Stores.Launches.GetByMemecoinAddress(ctx, address)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.fail(c, "get launch", err)
		return
	}
	if deploy == nil && launch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found"})
		return
	}

	detail := tokenDetail{MemecoinAddress: address}
	if deploy != nil {
		detail.Name = deploy.Name
		detail.Symbol = deploy.Symbol
		detail.URL = deploy.URL
		detail.Twitter = deploy.Twitter
		detail.Telegram = deploy.Telegram
		detail.Github = deploy.Github
		detail.Website = deploy.Website
		detail.Deploy = &deployInfo{
			TransactionHash: deploy.TransactionHash,
			OwnerAddress:    deploy.OwnerAddress,
			BlockTimestamp:  deploy.BlockTimestamp,
			InitialSupply:   deploy.InitialSupply,
			TotalSupply:     deploy.TotalSupply,
		}
	}
	if launch != nil {
		s := summarize(launch)
		detail.Launch = &s
	}

	// Metadata is authoritative for the social fields; the denormalized
	// copies on deploy/launch only cover rows written before the backfill.
	meta, err := h.Stores.Metadata.GetByMemecoinAddress(ctx, address)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.fail(c, "get metadata", err)
		return
	}
	if meta != nil {
		detail.URL = meta.URL
		detail.Twitter = meta.Twitter
		detail.Telegram = meta.Telegram
		detail.Github = meta.Github
		detail.Website = meta.Website
	}
	c.JSON(http.StatusOK, detail)
}

func (h *TokenHandler) listHolders(c *gin.Context) {
	limit, offset := pageParams(c)

	positions, err := h.Stores.Shareholders.ListByToken(c.Request.Context(), c.Param("address"), limit, offset)
	if err != nil {
		h.fail(c, "list holders", err)
		return
	}

	out := make([]holderEntry, 0, len(positions))
	for _, p := range positions {
		out = append(out, holderEntry{
			OwnerAddress: p.OwnerAddress,
			AmountOwned:  p.AmountOwned,
			AmountBuy:    p.AmountBuy,
			TotalPaid:    p.TotalPaid,
			IsClaimable:  p.IsClaimable,
		})
	}
	c.JSON(http.StatusOK, gin.H{"holders": out})
}

func (h *TokenHandler) listTransactions(c *gin.Context) {
	txs, err := h.Stores.Transactions.GetByMemecoinAddress(c.Request.Context(), c.Param("address"))
	if err != nil {
		h.fail(c, "list transactions", err)
		return
	}

	out := make([]transactionEntry, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionEntry{
			TransferID:      tx.TransferID,
			TransactionHash: tx.TransactionHash,
			OwnerAddress:    tx.OwnerAddress,
			Amount:          tx.Amount,
			QuoteAmount:     tx.QuoteAmount,
			Price:           tx.Price,
			TransactionType: tx.TransactionType,
			Timestamp:       tx.Timestamp,
		})
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}

func (h *TokenHandler) listCandles(c *gin.Context) {
	interval := 0
	if raw := c.Query("interval"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || !validInterval(v) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "interval must be 5, 10 or 60"})
			return
		}
		interval = v
	}

	candles, err := h.Stores.Candles.GetByToken(c.Request.Context(), c.Param("address"), interval)
	if err != nil {
		h.fail(c, "list candles", err)
		return
	}

	out := make([]candleEntry, 0, len(candles))
	for _, cd := range candles {
		out = append(out, candleEntry{
			IntervalMinutes: cd.IntervalMinutes,
			Timestamp:       cd.Timestamp,
			Open:            cd.Open,
			High:            cd.High,
			Low:             cd.Low,
			Close:           cd.Close,
		})
	}
	c.JSON(http.StatusOK, gin.H{"candles": out})
}

func (h *TokenHandler) fail(c *gin.Context, op string, err error) {
	h.Logger.Error("read failed", zap.String("op", op), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func summarize(l *domain.TokenLaunch) tokenSummary {
	return tokenSummary{
		MemecoinAddress:  l.MemecoinAddress,
		OwnerAddress:     l.OwnerAddress,
		Network:          l.Network,
		BlockTimestamp:   l.BlockTimestamp,
		TotalSupply:      l.TotalSupply,
		CurrentSupply:    l.CurrentSupply,
		LiquidityRaised:  l.LiquidityRaised,
		TotalTokenHolded: l.TotalTokenHolded,
		Price:            l.Price,
		MarketCap:        l.MarketCap,
		IsLiquidityAdded: l.IsLiquidityAdded,
	}
}

func validInterval(v int) bool {
	for _, iv := range domain.CandleIntervals {
		if v == iv {
			return true
		}
	}
	return false
}

func pageParams(c *gin.Context) (limit, offset int) {
	limit = intQuery(c, "limit", defaultPageLimit)
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	offset = intQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
