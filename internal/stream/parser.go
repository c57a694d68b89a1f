// Package stream reads decoded on-chain events from the upstream delivery
// service over WebSocket and turns JSON envelopes into typed domain events.
package stream

import (
	"encoding/json"
	"fmt"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/numeric"
)

// Envelope is the wire frame around every decoded event. Amounts travel as
// decimal strings; they can exceed float64 range and are never parsed as
// floats.
type Envelope struct {
	Kind           string          `json:"kind"`
	Network        string          `json:"network"`
	TxHash         string          `json:"transaction_hash"`
	EventIndex     int             `json:"event_index"`
	BlockNumber    uint64          `json:"block_number"`
	BlockTimestamp int64           `json:"block_timestamp"`
	Data           json.RawMessage `json:"data"`
}

type deployPayload struct {
	MemecoinAddress string `json:"memecoin_address"`
	OwnerAddress    string `json:"owner_address"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	InitialSupply   string `json:"initial_supply"`
	TotalSupply     string `json:"total_supply"`
}

type launchPayload struct {
	MemecoinAddress      string `json:"memecoin_address"`
	OwnerAddress         string `json:"owner_address"`
	TotalSupply          string `json:"total_supply"`
	CurrentSupply        string `json:"current_supply"`
	InitialPoolSupplyDEX string `json:"initial_pool_supply_dex"`
}

type metadataPayload struct {
	MemecoinAddress string  `json:"memecoin_address"`
	URL             *string `json:"url"`
	Twitter         *string `json:"twitter"`
	Telegram        *string `json:"telegram"`
	Github          *string `json:"github"`
	Website         *string `json:"website"`
}

type tradePayload struct {
	TransferID      string `json:"transfer_id"`
	MemecoinAddress string `json:"memecoin_address"`
	OwnerAddress    string `json:"owner_address"`
	Amount          string `json:"amount"`
	QuoteAmount     string `json:"quote_amount"`
	Price           string `json:"price"`
	LastPrice       string `json:"last_price"`
	TransactionType string `json:"transaction_type"`
	Timestamp       int64  `json:"timestamp"`
}

type linkIdentityPayload struct {
	NostrID         string `json:"nostr_id"`
	StarknetAddress string `json:"starknet_address"`
	IsAdmin         bool   `json:"is_add_by_admin"`
}

type tipPayload struct {
	ContractAddress string  `json:"contract_address"`
	NostrID         string  `json:"nostr_id"`
	EpochIndex      *uint64 `json:"epoch_index"`
	Amount          string  `json:"amount"`
	VoteScore       string  `json:"vote_score"`
}

type depositPayload struct {
	ContractAddress string  `json:"contract_address"`
	NostrID         string  `json:"nostr_id"`
	EpochIndex      *uint64 `json:"epoch_index"`
	Amount          string  `json:"amount"`
}

type distributionPayload struct {
	ContractAddress string  `json:"contract_address"`
	NostrID         string  `json:"nostr_id"`
	EpochIndex      *uint64 `json:"epoch_index"`
	AmountClaimed   string  `json:"amount_claimed"`
	AmountAlgo      string  `json:"amount_algo"`
	AmountVote      string  `json:"amount_vote"`
}

type newEpochPayload struct {
	ContractAddress string `json:"contract_address"`
	EpochIndex      uint64 `json:"epoch_index"`
	StartTime       int64  `json:"start_time"`
	EndTime         int64  `json:"end_time"`
	EpochDuration   int64  `json:"epoch_duration"`
}

// ParseEnvelope decodes one wire frame into a typed domain event. Undecodable
// frames and unknown kinds are malformed.
func ParseEnvelope(raw []byte) (domain.Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %v: %w", err, domain.ErrMalformedEvent)
	}
	return parseEvent(&env)
}

func parseEvent(env *Envelope) (domain.Event, error) {
	meta := domain.EventMeta{
		Network:         env.Network,
		TransactionHash: env.TxHash,
		EventIndex:      env.EventIndex,
		BlockNumber:     env.BlockNumber,
		BlockTimestamp:  env.BlockTimestamp,
	}

	switch domain.EventKind(env.Kind) {
	case domain.EventTokenDeploy:
		var p deployPayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		initialSupply, err := numeric.ParseAmount(p.InitialSupply)
		if err != nil {
			return nil, malformed(env, err)
		}
		totalSupply, err := numeric.ParseAmount(p.TotalSupply)
		if err != nil {
			return nil, malformed(env, err)
		}
		return &domain.DeployEvent{
			EventMeta:       meta,
			MemecoinAddress: p.MemecoinAddress,
			OwnerAddress:    p.OwnerAddress,
			Name:            p.Name,
			Symbol:          p.Symbol,
			InitialSupply:   initialSupply,
			TotalSupply:     totalSupply,
		}, nil

	case domain.EventTokenLaunch:
		var p launchPayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		totalSupply, err := numeric.ParseAmount(p.TotalSupply)
		if err != nil {
			return nil, malformed(env, err)
		}
		currentSupply, err := numeric.ParseAmount(p.CurrentSupply)
		if err != nil {
			return nil, malformed(env, err)
		}
		poolSupply, err := numeric.ParseAmount(p.InitialPoolSupplyDEX)
		if err != nil {
			return nil, malformed(env, err)
		}
		return &domain.LaunchEvent{
			EventMeta:            meta,
			MemecoinAddress:      p.MemecoinAddress,
			OwnerAddress:         p.OwnerAddress,
			TotalSupply:          totalSupply,
			CurrentSupply:        currentSupply,
			InitialPoolSupplyDEX: poolSupply,
		}, nil

	case domain.EventTokenMetadata:
		var p metadataPayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		return &domain.MetadataEvent{
			EventMeta:       meta,
			MemecoinAddress: p.MemecoinAddress,
			URL:             p.URL,
			Twitter:         p.Twitter,
			Telegram:        p.Telegram,
			Github:          p.Github,
			Website:         p.Website,
		}, nil

	case domain.EventTrade:
		var p tradePayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		amount, err := numeric.ParseAmount(p.Amount)
		if err != nil {
			return nil, malformed(env, err)
		}
		quoteAmount, err := numeric.ParseAmount(p.QuoteAmount)
		if err != nil {
			return nil, malformed(env, err)
		}
		price, err := numeric.ParseOptionalAmount(p.Price)
		if err != nil {
			return nil, malformed(env, err)
		}
		lastPrice, err := numeric.ParseOptionalAmount(p.LastPrice)
		if err != nil {
			return nil, malformed(env, err)
		}
		timestamp := p.Timestamp
		if timestamp == 0 {
			timestamp = env.BlockTimestamp
		}
		return &domain.TradeEvent{
			EventMeta:       meta,
			TransferID:      p.TransferID,
			MemecoinAddress: p.MemecoinAddress,
			OwnerAddress:    p.OwnerAddress,
			Amount:          amount,
			QuoteAmount:     quoteAmount,
			Price:           price,
			LastPrice:       lastPrice,
			TransactionType: p.TransactionType,
			Timestamp:       timestamp,
		}, nil

	case domain.EventLinkIdentity:
		var p linkIdentityPayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		return &domain.LinkIdentityEvent{
			EventMeta:       meta,
			NostrID:         p.NostrID,
			StarknetAddress: p.StarknetAddress,
			IsAdmin:         p.IsAdmin,
		}, nil

	case domain.EventTip:
		var p tipPayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		amount, err := numeric.ParseAmount(p.Amount)
		if err != nil {
			return nil, malformed(env, err)
		}
		voteScore, err := numeric.ParseAmount(p.VoteScore)
		if err != nil {
			return nil, malformed(env, err)
		}
		return &domain.TipEvent{
			EventMeta:       meta,
			ContractAddress: p.ContractAddress,
			NostrID:         p.NostrID,
			EpochIndex:      p.EpochIndex,
			Amount:          amount,
			VoteScore:       voteScore,
		}, nil

	case domain.EventDeposit:
		var p depositPayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		amount, err := numeric.ParseAmount(p.Amount)
		if err != nil {
			return nil, malformed(env, err)
		}
		return &domain.DepositEvent{
			EventMeta:       meta,
			ContractAddress: p.ContractAddress,
			NostrID:         p.NostrID,
			EpochIndex:      p.EpochIndex,
			Amount:          amount,
		}, nil

	case domain.EventDistribution:
		var p distributionPayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		claimed, err := numeric.ParseAmount(p.AmountClaimed)
		if err != nil {
			return nil, malformed(env, err)
		}
		algo, err := numeric.ParseAmount(p.AmountAlgo)
		if err != nil {
			return nil, malformed(env, err)
		}
		vote, err := numeric.ParseAmount(p.AmountVote)
		if err != nil {
			return nil, malformed(env, err)
		}
		return &domain.DistributionEvent{
			EventMeta:       meta,
			ContractAddress: p.ContractAddress,
			NostrID:         p.NostrID,
			EpochIndex:      p.EpochIndex,
			AmountClaimed:   claimed,
			AmountAlgo:      algo,
			AmountVote:      vote,
		}, nil

	case domain.EventNewEpoch:
		var p newEpochPayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		return &domain.NewEpochEvent{
			EventMeta:       meta,
			ContractAddress: p.ContractAddress,
			EpochIndex:      p.EpochIndex,
			StartTime:       p.StartTime,
			EndTime:         p.EndTime,
			EpochDuration:   p.EpochDuration,
		}, nil

	default:
		return nil, fmt.Errorf("unknown event kind %q: %w", env.Kind, domain.ErrMalformedEvent)
	}
}

func decodePayload(env *Envelope, v any) error {
	if err := json.Unmarshal(env.Data, v); err != nil {
		return malformed(env, err)
	}
	return nil
}

func malformed(env *Envelope, err error) error {
	return fmt.Errorf("%s event in %s: %v: %w", env.Kind, env.TxHash, err, domain.ErrMalformedEvent)
}
