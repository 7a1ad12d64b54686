package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeDigits is the width of a verification code.
const CodeDigits = 6

type CodeGenerator interface {
	NewCode() (string, error)
}

type randomCodes struct {
	digits int
	max    *big.Int
}

// NewRandomCodes draws codes uniformly from [0, 10^digits), zero-padded.
func NewRandomCodes(digits int) CodeGenerator {
	if digits <= 0 {
		digits = CodeDigits
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	return &randomCodes{digits: digits, max: max}
}

func (g *randomCodes) NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, g.max)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", g.digits, n.Int64()), nil
}
