package domain

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber returns ORD-<utc timestamp>-<12 random hex chars>.
// Uniqueness is additionally enforced by the orders.number constraint.
func NewOrderNumber(now time.Time) string {
	id := uuid.New()
	return "ORD-" + now.UTC().Format("20060102150405") + "-" + strings.ToUpper(hex.EncodeToString(id[:6]))
}

// NewTransactionID returns TXN-<16 random hex chars>.
func NewTransactionID() string {
	id := uuid.New()
	return "TXN-" + strings.ToUpper(hex.EncodeToString(id[:8]))
}
