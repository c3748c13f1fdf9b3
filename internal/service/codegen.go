package service

import (
	"crypto/rand"
	"io"

	"github.com/cockroachdb/errors"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxUnbiasedByte is the largest multiple of len(codeAlphabet) not above
// 256; random bytes at or past it are discarded to avoid modulo bias.
const maxUnbiasedByte = 256 - 256%len(codeAlphabet)

// maxCodeTries bounds Generate when the exclude set covers nearly the whole
// code space.
const maxCodeTries = 100000

// CodeGenerator produces short random ticket codes.
type CodeGenerator struct {
	length int
	rand   io.Reader
}

// NewCodeGenerator returns a generator of codes of the given length drawn
// from crypto/rand.
func NewCodeGenerator(length int) *CodeGenerator {
	return NewCodeGeneratorFrom(length, rand.Reader)
}

// NewCodeGeneratorFrom reads randomness from r instead of crypto/rand.
func NewCodeGeneratorFrom(length int, r io.Reader) *CodeGenerator {
	if length < 1 {
		length = 8
	}
	return &CodeGenerator{length: length, rand: r}
}

// Generate returns a code that is not in exclude.  Collisions are unlikely
// but possible, so it draws again until the code is unused.
func (g *CodeGenerator) Generate(exclude map[string]struct{}) (string, error) {
	for i := 0; i < maxCodeTries; i++ {
		code, err := g.random()
		if err != nil {
			return "", err
		}
		if _, taken := exclude[code]; !taken {
			return code, nil
		}
	}
	return "", errors.Newf("no unused %d-character code after %d tries", g.length, maxCodeTries)
}

func (g *CodeGenerator) random() (string, error) {
	out := make([]byte, 0, g.length)
	buf := make([]byte, g.length+g.length/2)
	for len(out) < g.length {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", errors.Wrap(err, "reading random bytes")
		}
		for _, b := range buf {
			if int(b) >= maxUnbiasedByte {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == g.length {
				break
			}
		}
	}
	return string(out), nil
}
