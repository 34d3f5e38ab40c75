package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
)

// RandomTokenGenerator issues opaque bearer tokens.
type RandomTokenGenerator struct {
	Size int
}

func (g RandomTokenGenerator) NewToken() (string, error) {
	size := g.Size
	if size <= 0 {
		size = 32
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: entropy read failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CodeGenerator issues six digit one-time codes uniformly distributed in [100000, 999999].
type CodeGenerator struct{}

var codeSpan = big.NewInt(900000)

func (CodeGenerator) NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", fmt.Errorf("otp: entropy read failed: %w", err)
	}
	return strconv.FormatInt(100000+n.Int64(), 10), nil
}
