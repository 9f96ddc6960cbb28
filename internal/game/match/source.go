// Package match provides the randomness used when two players are paired:
// the shared piece-sequence seed and the garbage lines synthesized for
// SEND attacks.
package match

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
)

// Source produces the random values the matchmaking layer needs.
// Abstracted so tests can substitute a deterministic sequence.
type Source interface {
	// Intn returns a random int in [0, n).
	Intn(n int) int
	// Int63 returns a random non-negative int64.
	Int63() int64
}

// cryptoSource implements Source using crypto/rand.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n); every value
// returned by Int63 is non-negative.
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "match: Intn called with n <= 0" if n <= 0.
// Panics with "match: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("match: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("match: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// Int63 returns a cryptographically secure random non-negative int64.
func (c *cryptoSource) Int63() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("match: crypto/rand failure: " + err.Error())
	}
	return int64(binary.BigEndian.Uint64(buf[:]) >> 1)
}

// NewSeed draws the shared match seed. Both paired clients feed it to their
// piece generators so the two boards draw identical sequences without the
// server transmitting each piece.
func NewSeed(src Source) int64 {
	return src.Int63()
}
