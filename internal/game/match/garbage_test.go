package match

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// scriptedSource replays a fixed sequence of Intn results.
type scriptedSource struct {
	values []int
	pos    int
}

func (s *scriptedSource) Intn(n int) int {
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v % n
}

func (s *scriptedSource) Int63() int64 { return 0 }

func TestGarbageLine_OneHole(t *testing.T) {
	// roll 0 → 1 hole at column 4
	src := &scriptedSource{values: []int{0, 4}}
	line := GarbageLine(src)
	assert.Equal(t, "XXXX.XXXXX", line)
}

func TestGarbageLine_TwoHoles(t *testing.T) {
	// roll 3 → 2 holes at columns 0 and 9
	src := &scriptedSource{values: []int{3, 0, 9}}
	line := GarbageLine(src)
	assert.Equal(t, ".XXXXXXXX.", line)
}

func TestGarbageLine_ThreeHoles(t *testing.T) {
	// roll 9 → 3 holes
	src := &scriptedSource{values: []int{9, 1, 2, 3}}
	line := GarbageLine(src)
	assert.Equal(t, "X...XXXXXX", line)
}

func TestGarbageLine_CollidingHolePicksRetry(t *testing.T) {
	// roll 5 → 2 holes; column 7 drawn twice, second pick rejected
	src := &scriptedSource{values: []int{5, 7, 7, 2}}
	line := GarbageLine(src)
	assert.Equal(t, "XX.XXXX.XX", line)
	assert.Equal(t, 2, CountHoles(line))
}

func TestGarbageLine_CryptoSourceShape(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 200; i++ {
		line := GarbageLine(src)
		assert.Len(t, line, GarbageWidth)
		holes := CountHoles(line)
		assert.GreaterOrEqual(t, holes, 1)
		assert.LessOrEqual(t, holes, 3)
		assert.Equal(t, GarbageWidth-holes, strings.Count(line, "X"))
	}
}

// All three hole counts show up over enough independent draws. With
// P(1)=0.3, P(2)=0.4, P(3)=0.3, a thousand draws missing a bucket would
// indicate a broken distribution, not bad luck.
func TestGarbageLine_AllHoleCountsOccur(t *testing.T) {
	src := NewCryptoSource()
	counts := map[int]int{}
	for i := 0; i < 1000; i++ {
		counts[CountHoles(GarbageLine(src))]++
	}
	assert.Positive(t, counts[1])
	assert.Positive(t, counts[2])
	assert.Positive(t, counts[3])
	assert.Len(t, counts, 3)
}

// Property: for any Intn behavior, the line is well-formed: exactly
// GarbageWidth cells, only fill and hole characters, 1-3 holes.
func TestPropertyGarbageLineWellFormed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOfN(rapid.IntRange(0, 1<<30), 1, 32).Draw(t, "values")
		line := GarbageLine(&scriptedSource{values: values})

		if len(line) != GarbageWidth {
			t.Fatalf("line %q has length %d", line, len(line))
		}
		holes := 0
		for _, ch := range line {
			switch ch {
			case GarbageHole:
				holes++
			case GarbageFill:
			default:
				t.Fatalf("unexpected character %q in %q", ch, line)
			}
		}
		if holes < 1 || holes > 3 {
			t.Fatalf("line %q has %d holes", line, holes)
		}
	})
}

func TestNewSeedNonNegative(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 100; i++ {
		assert.GreaterOrEqual(t, NewSeed(src), int64(0))
	}
}

func TestCryptoSourceIntnBounds(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(10)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 10)
	}
}

func TestCryptoSourceIntnPanicsOnZero(t *testing.T) {
	src := NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}
