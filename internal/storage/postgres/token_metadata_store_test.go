package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

func TestTokenMetadataStore_UpsertBackfillsSocials(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	deploys := NewTokenDeployStore(pool)
	launches := NewTokenLaunchStore(pool)
	store := NewTokenMetadataStore(pool)
	ctx := context.Background()

	require.NoError(t, deploys.Upsert(ctx, &domain.TokenDeploy{
		TransactionHash: "0xdeploy1",
		Network:         "starknet",
		MemecoinAddress: "token1",
		Name:            "Meme",
		Symbol:          "MEME",
		InitialSupply:   decimal.New(1_000_000, 0),
		TotalSupply:     decimal.New(1_000_000, 0),
	}))
	require.NoError(t, launches.Upsert(ctx, testLaunch("token1", "0xlaunch1", 0)))

	require.NoError(t, store.Upsert(ctx, &domain.TokenMetadata{
		TransactionHash: "0xmeta1",
		Network:         "starknet",
		MemecoinAddress: "token1",
		Twitter:         ptr("@meme"),
		Website:         ptr("https://meme.example"),
	}))

	meta, err := store.GetByMemecoinAddress(ctx, "token1")
	require.NoError(t, err)
	require.NotNil(t, meta.Twitter)
	assert.Equal(t, "@meme", *meta.Twitter)

	// Socials propagate onto the deploy and launch rows in the same write.
	deploy, err := deploys.GetByMemecoinAddress(ctx, "token1")
	require.NoError(t, err)
	require.NotNil(t, deploy.Twitter)
	assert.Equal(t, "@meme", *deploy.Twitter)

	launch, err := launches.GetByMemecoinAddress(ctx, "token1")
	require.NoError(t, err)
	require.NotNil(t, launch.Website)
	assert.Equal(t, "https://meme.example", *launch.Website)
}

func TestTokenMetadataStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetadataStore(pool)

	_, err := store.GetByMemecoinAddress(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
