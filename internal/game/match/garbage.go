package match

import "strings"

// Garbage-line constants. A garbage line is one board row sent to the
// opponent as an attack: filled cells with a few holes to slot pieces into.
const (
	// GarbageWidth is the number of columns in a garbage line.
	GarbageWidth = 10
	// GarbageFill marks a filled cell.
	GarbageFill = 'X'
	// GarbageHole marks a hole.
	GarbageHole = '.'
)

// GarbageLine synthesizes one garbage line: GarbageWidth cells, all filled,
// with 1-3 holes punched at distinct random columns. The hole count is
// 1 with probability 0.3, 2 with probability 0.4, and 3 with probability
// 0.3; each call draws independently.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a string of length GarbageWidth containing only
// GarbageFill and GarbageHole, with 1-3 holes.
func GarbageLine(src Source) string {
	line := []byte(strings.Repeat(string(rune(GarbageFill)), GarbageWidth))

	holes := 1
	switch roll := src.Intn(10); {
	case roll < 3:
		holes = 1
	case roll < 7:
		holes = 2
	default:
		holes = 3
	}

	// Re-pick on collision until each hole lands in a fresh column.
	for holes > 0 {
		i := src.Intn(GarbageWidth)
		if line[i] == GarbageFill {
			line[i] = GarbageHole
			holes--
		}
	}

	return string(line)
}

// CountHoles returns the number of holes in a garbage line.
func CountHoles(line string) int {
	return strings.Count(line, string(rune(GarbageHole)))
}
