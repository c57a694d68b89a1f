package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"launchpad-indexer/internal/domain"
)

func TestContractStateStore_ApplyDeltaAccumulates(t *testing.T) {
	store := NewContractStateStore()
	ctx := context.Background()

	delta := &domain.LedgerDelta{TotalTip: decimal.New(10, 0)}
	if err := store.ApplyDelta(ctx, "contract1", "starknet", delta); err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	if err := store.ApplyDelta(ctx, "contract1", "starknet", delta); err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}

	cs, err := store.Get(ctx, "contract1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !cs.TotalTip.Equal(decimal.New(20, 0)) {
		t.Errorf("TotalTip = %s, want 20", cs.TotalTip)
	}
}

func TestContractStateStore_SetCurrentEpochIsMonotonic(t *testing.T) {
	store := NewContractStateStore()
	ctx := context.Background()

	if err := store.SetCurrentEpoch(ctx, "contract1", "starknet", 2, 100, 200, 100); err != nil {
		t.Fatalf("SetCurrentEpoch failed: %v", err)
	}
	// Stale pointer must not rewind.
	if err := store.SetCurrentEpoch(ctx, "contract1", "starknet", 1, 0, 100, 100); err != nil {
		t.Fatalf("SetCurrentEpoch failed: %v", err)
	}

	cs, err := store.Get(ctx, "contract1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if cs.CurrentEpochIndex != 2 {
		t.Errorf("CurrentEpochIndex = %d, want 2", cs.CurrentEpochIndex)
	}
	if cs.CurrentEpochStart != 100 {
		t.Errorf("CurrentEpochStart = %d, want 100", cs.CurrentEpochStart)
	}
}

func TestUserProfileStore_AdminLinkNotOverwritten(t *testing.T) {
	store := NewUserProfileStore()
	ctx := context.Background()

	if err := store.LinkIdentity(ctx, "npub1", "0xadmin", true); err != nil {
		t.Fatalf("LinkIdentity failed: %v", err)
	}
	if err := store.LinkIdentity(ctx, "npub1", "0xuser", false); err != nil {
		t.Fatalf("LinkIdentity failed: %v", err)
	}

	p, err := store.Get(ctx, "npub1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.StarknetAddress != "0xadmin" {
		t.Errorf("StarknetAddress = %s, want 0xadmin", p.StarknetAddress)
	}
	if !p.IsAddByAdmin {
		t.Error("IsAddByAdmin = false, want true")
	}

	// An admin re-link may update the address.
	if err := store.LinkIdentity(ctx, "npub1", "0xadmin2", true); err != nil {
		t.Fatalf("LinkIdentity failed: %v", err)
	}
	p, err = store.Get(ctx, "npub1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.StarknetAddress != "0xadmin2" {
		t.Errorf("StarknetAddress = %s, want 0xadmin2", p.StarknetAddress)
	}
}

func TestUserEpochStateStore_ApplyDeltaCreatesOnDemand(t *testing.T) {
	store := NewUserEpochStateStore()
	ctx := context.Background()

	delta := &domain.LedgerDelta{TotalVoteScore: decimal.New(3, 0)}
	if err := store.ApplyDelta(ctx, "npub1", "contract1", 4, "starknet", delta); err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}

	ues, err := store.Get(ctx, "npub1", "contract1", 4)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ues.TotalVoteScore.Equal(decimal.New(3, 0)) {
		t.Errorf("TotalVoteScore = %s, want 3", ues.TotalVoteScore)
	}
	if ues.EpochIndex != 4 {
		t.Errorf("EpochIndex = %d, want 4", ues.EpochIndex)
	}
}

func TestProcessedEventStore_MarkOncePerID(t *testing.T) {
	store := NewProcessedEventStore()
	ctx := context.Background()

	first, err := store.Mark(ctx, "evt1")
	if err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if !first {
		t.Error("first Mark = false, want true")
	}

	second, err := store.Mark(ctx, "evt1")
	if err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if second {
		t.Error("second Mark = true, want false")
	}
}
