package issuance

import (
	cryptorand "crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"
)

// hashEntropyBytes is the secure-random portion of a hash: 256 bits.
const hashEntropyBytes = 32

// Generator mints order hashes: hex-encoded secure random bytes followed by a
// nanosecond timestamp in hex, so hashes stay practically unique even on a
// platform with a weak random source. Generation is total: an unreadable
// entropy source is a process-level failure, not a recoverable error.
type Generator struct {
	rand io.Reader
	now  func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{rand: cryptorand.Reader, now: time.Now}
}

func (g *Generator) Generate() string {
	buf := make([]byte, hashEntropyBytes)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		panic(fmt.Sprintf("secure random source unavailable: %v", err))
	}
	return hex.EncodeToString(buf) + strconv.FormatInt(g.now().UnixNano(), 16)
}
