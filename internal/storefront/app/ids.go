package app

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// OrderIDPrefix marks every id minted by IDGenerator.
const OrderIDPrefix = "ORD-"

// IDGenerator mints time-ordered order ids. Two ids minted in the same
// millisecond still differ and sort in minting order.
type IDGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *IDGenerator) NewID(now time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(now), g.entropy)
	if err != nil {
		return "", err
	}
	return OrderIDPrefix + id.String(), nil
}
