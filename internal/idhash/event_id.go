package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"launchpad-indexer/internal/domain"
)

// ComputeEventID computes the deterministic processed-event id used for
// deduplication under at-least-once delivery.
// Formula: SHA256(network|tx_hash|event_index|kind)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(meta domain.EventMeta, kind domain.EventKind) string {
	data := fmt.Sprintf("%s|%s|%d|%s",
		meta.Network,
		meta.TransactionHash,
		meta.EventIndex,
		kind,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
