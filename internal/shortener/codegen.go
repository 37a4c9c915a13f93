package shortener

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

// DefaultCodeLength is the length of generated codes when none is configured.
const DefaultCodeLength = 6

// CodeAlphabet is URL-safe and leaves out look-alike characters (0/O, 1/l/I).
const CodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// CodeGenerator generates unique short codes.
type CodeGenerator func() string

// NewCodeGenerator returns a nanoid-backed generator producing codes of the given length.
func NewCodeGenerator(length int) (CodeGenerator, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}

	gen, err := nanoid.CustomASCII(CodeAlphabet, length)
	if err != nil {
		return nil, fmt.Errorf("create code generator: %w", err)
	}

	return CodeGenerator(gen), nil
}
