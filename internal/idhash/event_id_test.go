package idhash

import (
	"testing"

	"launchpad-indexer/internal/domain"
)

func TestComputeEventID_Deterministic(t *testing.T) {
	meta := domain.EventMeta{
		Network:         "sepolia",
		TransactionHash: "0xabc",
		EventIndex:      3,
	}

	id1 := ComputeEventID(meta, domain.EventDeposit)
	id2 := ComputeEventID(meta, domain.EventDeposit)

	if id1 != id2 {
		t.Errorf("ids differ for identical input: %s vs %s", id1, id2)
	}
	if len(id1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(id1))
	}
}

func TestComputeEventID_DistinguishesKind(t *testing.T) {
	meta := domain.EventMeta{
		Network:         "sepolia",
		TransactionHash: "0xabc",
		EventIndex:      3,
	}

	if ComputeEventID(meta, domain.EventDeposit) == ComputeEventID(meta, domain.EventTip) {
		t.Error("different kinds must produce different ids")
	}
}

func TestComputeEventID_DistinguishesEventIndex(t *testing.T) {
	a := domain.EventMeta{Network: "sepolia", TransactionHash: "0xabc", EventIndex: 0}
	b := domain.EventMeta{Network: "sepolia", TransactionHash: "0xabc", EventIndex: 1}

	if ComputeEventID(a, domain.EventTrade) == ComputeEventID(b, domain.EventTrade) {
		t.Error("different event indexes must produce different ids")
	}
}
