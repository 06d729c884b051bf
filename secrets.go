package accounts

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	goerrors "github.com/goliatone/go-errors"
)

// SecretSize is the number of random bytes behind verification codes
// and reset tokens. Hex encoding doubles the length.
const SecretSize = 20

// HexSecretGenerator reads random bytes and hex encodes them
type HexSecretGenerator struct {
	Reader io.Reader
}

var _ SecretGenerator = HexSecretGenerator{}

// Generate returns size random bytes as a hex string
func (g HexSecretGenerator) Generate(size int) (string, error) {
	if size <= 0 {
		size = SecretSize
	}

	reader := g.Reader
	if reader == nil {
		reader = rand.Reader
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read random bytes").
			WithTextCode(TextCodeTransientFailure)
	}

	return hex.EncodeToString(buf), nil
}
