package processor

import (
	"context"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// SimulatedGateway stands in for a real payment provider. Verification
// succeeds roughly nine times out of ten.
type SimulatedGateway struct{}

func (SimulatedGateway) VerifyPayment(_ context.Context, _ string) (bool, error) {
	return rand.Intn(10) < 9, nil
}

func newTransactionID() string {
	return "txn_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
