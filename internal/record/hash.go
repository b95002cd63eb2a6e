package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration without colliding with old IDs.
const (
	DomainAction      = "crvs/action/v1"
	DomainTransaction = "crvs/transaction/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ActionID computes the content-addressed ID for an action. The ID is
// stable across restarts and replays given the same inputs, which is what
// makes replay verification possible: re-folding a history must reproduce
// the exact IDs already stored.
//
// The actor context is intentionally EXCLUDED. The ID represents "what
// happened", not "who did it"; actor details are stored on the action
// record for audit but do not participate in identity.
func ActionID(eventID string, actionType ActionType, seq int64, decl Declaration) (string, error) {
	obj := map[string]any{
		"event_id":    eventID,
		"action_type": string(actionType),
		"seq":         seq,
		"declaration": decl,
	}
	if decl == nil {
		obj["declaration"] = Declaration{}
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ActionID: marshal: %w", err)
	}
	return hashWithDomain(DomainAction, canonical), nil
}

// TransactionKey computes the idempotence key for a submitted action.
// Two submissions carrying the same (eventID, transactionID, actionType)
// are the same logical request: the second one must be a no-op.
func TransactionKey(eventID, transactionID string, actionType ActionType) (string, error) {
	obj := map[string]any{
		"event_id":       eventID,
		"transaction_id": transactionID,
		"action_type":    string(actionType),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("TransactionKey: marshal: %w", err)
	}
	return hashWithDomain(DomainTransaction, canonical), nil
}

// MustActionID is like ActionID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustActionID(eventID string, actionType ActionType, seq int64, decl Declaration) string {
	id, err := ActionID(eventID, actionType, seq, decl)
	if err != nil {
		panic(err)
	}
	return id
}

// MustTransactionKey is like TransactionKey but panics on error.
func MustTransactionKey(eventID, transactionID string, actionType ActionType) string {
	key, err := TransactionKey(eventID, transactionID, actionType)
	if err != nil {
		panic(err)
	}
	return key
}
