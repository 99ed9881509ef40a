package resolver

import (
	"crypto/rand"
	"math/big"

	"browser-agent/internal/domain/entity"
)

const defaultVariableLength = 10

const (
	lowerLetters  = "abcdefghijklmnopqrstuvwxyz"
	digits        = "0123456789"
	alphaNumerics = lowerLetters + digits
)

// Variable resolves a VariableDescriptor to a concrete string: one of the
// built-in generators, or the descriptor's literal fallback value.
type Variable struct{}

// NewVariable constructs a Variable Resolver. It holds no state; the zero
// value is ready to use.
func NewVariable() *Variable { return &Variable{} }

// Resolve generates a value for d's named generator, or returns d.Value
// when Name doesn't match a known generator.
func (r *Variable) Resolve(d *entity.VariableDescriptor) string {
	if d == nil {
		return ""
	}
	length := d.Length
	if length <= 0 {
		length = defaultVariableLength
	}

	switch d.Name {
	case "randomName":
		return randomString(lowerLetters, length)
	case "randomNumber":
		return randomString(digits, length)
	case "randomAlphaNumeric":
		return randomString(alphaNumerics, length)
	case "randomEmail":
		localLen := length
		if localLen < 4 {
			localLen = 4
		}
		return randomString(alphaNumerics, localLen) + "@example.com"
	default:
		return d.Value
	}
}

func randomString(alphabet string, length int) string {
	if length <= 0 {
		return ""
	}
	out := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failure is effectively unrecoverable; fall back
			// to the first alphabet character rather than panicking mid
			// test run.
			out[i] = alphabet[0]
			continue
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out)
}
