// Package economics applies token lifecycle events to the launch economics
// model: deploys, launches, metadata back-fills and bonding-curve trades.
package economics

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// Updater consumes token events and maintains deploys, launches, metadata,
// transactions and shareholder positions. Events for the same memecoin
// address must be applied serially; the consumer's partitioning guarantees
// that.
type Updater struct {
	deploys      storage.TokenDeployStore
	launches     storage.TokenLaunchStore
	metadata     storage.TokenMetadataStore
	transactions storage.TokenTransactionStore
	shareholders storage.ShareholderStore
	logger       *zap.Logger
}

// NewUpdater creates an Updater over the given stores.
func NewUpdater(
	deploys storage.TokenDeployStore,
	launches storage.TokenLaunchStore,
	metadata storage.TokenMetadataStore,
	transactions storage.TokenTransactionStore,
	shareholders storage.ShareholderStore,
	logger *zap.Logger,
) *Updater {
	return &Updater{
		deploys:      deploys,
		launches:     launches,
		metadata:     metadata,
		transactions: transactions,
		shareholders: shareholders,
		logger:       logger.Named("economics"),
	}
}

// ApplyDeploy upserts the identity record for a deployed token.
func (u *Updater) ApplyDeploy(ctx context.Context, e *domain.DeployEvent) error {
	if e.TransactionHash == "" || e.MemecoinAddress == "" {
		return fmt.Errorf("deploy %s: %w", e.TransactionHash, domain.ErrMalformedEvent)
	}

	deploy := &domain.TokenDeploy{
		TransactionHash: e.TransactionHash,
		Network:         e.Network,
		BlockTimestamp:  e.BlockTimestamp,
		MemecoinAddress: e.MemecoinAddress,
		OwnerAddress:    e.OwnerAddress,
		Name:            e.Name,
		Symbol:          e.Symbol,
		InitialSupply:   e.InitialSupply,
		TotalSupply:     e.TotalSupply,
	}
	if err := u.deploys.Upsert(ctx, deploy); err != nil {
		return fmt.Errorf("apply deploy %s: %w", e.TransactionHash, err)
	}
	return nil
}

// ApplyLaunch seeds the economic state of a token's bonding-curve sale.
// Liquidity and holder totals start at zero; current supply starts at the
// launched supply.
func (u *Updater) ApplyLaunch(ctx context.Context, e *domain.LaunchEvent) error {
	if e.TransactionHash == "" || e.MemecoinAddress == "" {
		return fmt.Errorf("launch %s: %w", e.TransactionHash, domain.ErrMalformedEvent)
	}

	currentSupply := e.CurrentSupply
	if currentSupply.IsZero() {
		currentSupply = e.TotalSupply
	}

	launch := &domain.TokenLaunch{
		TransactionHash:      e.TransactionHash,
		Network:              e.Network,
		BlockTimestamp:       e.BlockTimestamp,
		MemecoinAddress:      e.MemecoinAddress,
		OwnerAddress:         e.OwnerAddress,
		TotalSupply:          e.TotalSupply,
		CurrentSupply:        currentSupply,
		InitialPoolSupplyDEX: e.InitialPoolSupplyDEX,
	}
	if err := u.launches.Upsert(ctx, launch); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			u.logger.Debug("launch already recorded",
				zap.String("memecoin_address", e.MemecoinAddress),
				zap.String("tx_hash", e.TransactionHash))
			return nil
		}
		return fmt.Errorf("apply launch %s: %w", e.TransactionHash, err)
	}
	return nil
}

// ApplyMetadata upserts the social fields and back-propagates them onto the
// deploy and launch records through the metadata store's single write path.
func (u *Updater) ApplyMetadata(ctx context.Context, e *domain.MetadataEvent) error {
	if e.TransactionHash == "" || e.MemecoinAddress == "" {
		return fmt.Errorf("metadata %s: %w", e.TransactionHash, domain.ErrMalformedEvent)
	}

	meta := &domain.TokenMetadata{
		TransactionHash: e.TransactionHash,
		Network:         e.Network,
		MemecoinAddress: e.MemecoinAddress,
		URL:             e.URL,
		Twitter:         e.Twitter,
		Telegram:        e.Telegram,
		Github:          e.Github,
		Website:         e.Website,
	}
	if err := u.metadata.Upsert(ctx, meta); err != nil {
		return fmt.Errorf("apply metadata %s: %w", e.TransactionHash, err)
	}
	return nil
}

// ApplyTransaction records one trade: the immutable transaction row, the
// recomputed launch economics and the trader's position, all in one
// transactional unit. A trade for a token with no launch row is still
// recorded; only the economics step is skipped.
func (u *Updater) ApplyTransaction(ctx context.Context, e *domain.TradeEvent) error {
	if e.TransferID == "" || e.MemecoinAddress == "" {
		return fmt.Errorf("trade %s: %w", e.TransferID, domain.ErrMalformedEvent)
	}
	if e.TransactionType != domain.TransactionTypeBuy && e.TransactionType != domain.TransactionTypeSell {
		return fmt.Errorf("trade %s: type %q: %w", e.TransferID, e.TransactionType, domain.ErrMalformedEvent)
	}

	var econ *domain.LaunchEconomics
	launch, err := u.launches.GetByMemecoinAddress(ctx, e.MemecoinAddress)
	switch {
	case err == nil:
		econ = ComputeEconomics(launch, e.Amount, e.QuoteAmount, e.TransactionType)
	case errors.Is(err, storage.ErrNotFound):
		// The trade raced ahead of its launch event. Keep the row; the
		// launch seeds economics when it lands.
		u.logger.Warn("trade before launch, economics skipped",
			zap.String("transfer_id", e.TransferID),
			zap.String("memecoin_address", e.MemecoinAddress))
	default:
		return fmt.Errorf("trade %s: load launch: %w", e.TransferID, err)
	}

	tx := &domain.TokenTransaction{
		TransferID:      e.TransferID,
		Network:         e.Network,
		TransactionHash: e.TransactionHash,
		MemecoinAddress: e.MemecoinAddress,
		OwnerAddress:    e.OwnerAddress,
		Amount:          e.Amount,
		QuoteAmount:     e.QuoteAmount,
		Price:           e.Price,
		LastPrice:       e.LastPrice,
		TransactionType: e.TransactionType,
		Timestamp:       e.Timestamp,
	}

	var pos *domain.ShareholderPosition
	if e.OwnerAddress != "" {
		pos, err = u.buildPosition(ctx, e)
		if err != nil {
			return err
		}
	}

	if err := u.transactions.InsertWithEconomics(ctx, tx, econ, pos); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			u.logger.Debug("trade already recorded", zap.String("transfer_id", e.TransferID))
			return nil
		}
		return fmt.Errorf("apply trade %s: %w", e.TransferID, err)
	}
	return nil
}

// buildPosition computes the trader's next position from the current one.
// Buys grow balance, cumulative bought amount and cost basis; sells only
// shrink the balance.
func (u *Updater) buildPosition(ctx context.Context, e *domain.TradeEvent) (*domain.ShareholderPosition, error) {
	pos, err := u.shareholders.GetByOwnerToken(ctx, e.OwnerAddress, e.MemecoinAddress)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("trade %s: load position: %w", e.TransferID, err)
		}
		pos = &domain.ShareholderPosition{
			OwnerTokenID:    domain.OwnerTokenID(e.OwnerAddress, e.MemecoinAddress),
			OwnerAddress:    e.OwnerAddress,
			MemecoinAddress: e.MemecoinAddress,
		}
	}

	if e.TransactionType == domain.TransactionTypeBuy {
		pos.AmountOwned = pos.AmountOwned.Add(e.Amount)
		pos.AmountBuy = pos.AmountBuy.Add(e.Amount)
		pos.TotalPaid = pos.TotalPaid.Add(e.QuoteAmount)
	} else {
		pos.AmountOwned = pos.AmountOwned.Sub(e.Amount)
	}
	pos.IsClaimable = pos.AmountOwned.IsPositive()
	return pos, nil
}

// ComputeEconomics derives the five recomputed launch fields from one trade.
// A buy moves amount out of the curve supply and quote into liquidity; a sell
// is the exact mirror. Price is liquidity over the initial DEX pool supply,
// zero when the pool supply is zero.
func ComputeEconomics(launch *domain.TokenLaunch, amount, quoteAmount decimal.Decimal, txType string) *domain.LaunchEconomics {
	econ := &domain.LaunchEconomics{MemecoinAddress: launch.MemecoinAddress}

	if txType == domain.TransactionTypeSell {
		econ.CurrentSupply = launch.CurrentSupply.Add(amount)
		econ.LiquidityRaised = launch.LiquidityRaised.Sub(quoteAmount)
		econ.TotalTokenHolded = launch.TotalTokenHolded.Sub(amount)
	} else {
		econ.CurrentSupply = launch.CurrentSupply.Sub(amount)
		econ.LiquidityRaised = launch.LiquidityRaised.Add(quoteAmount)
		econ.TotalTokenHolded = launch.TotalTokenHolded.Add(amount)
	}

	if launch.InitialPoolSupplyDEX.IsPositive() {
		// Integer division truncated toward zero.
		econ.Price = econ.LiquidityRaised.Div(launch.InitialPoolSupplyDEX).Truncate(0)
	} else {
		econ.Price = decimal.Zero
	}
	econ.MarketCap = launch.TotalSupply.Mul(econ.Price)
	return econ
}
