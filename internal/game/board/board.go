// Package board defines the wire form of a Tetris board: a fixed-length
// string, one character per cell, row-major. Both clients serialize their
// own board with this codec and parse the opponent's; the server relays
// the string and only validates its shape.
package board

import "fmt"

// Board dimensions in cells.
const (
	Width  = 10
	Height = 22
	// Cells is the total cell count and the exact length of a
	// serialized board.
	Cells = Width * Height
)

// Cell is the content of one board cell.
type Cell byte

// The cell codes. Empty and the seven tetromino shapes serialize as
// digits '0'-'7'; Filler marks the cells of a received garbage line and
// serializes as '8'.
const (
	Empty Cell = iota
	ZShape
	SShape
	LineShape
	TShape
	SquareShape
	LShape
	JShape
	Filler
)

// Board is a full board state, row-major: index y*Width + x.
type Board [Cells]Cell

// At returns the cell at column x, row y.
//
// Precondition: 0 <= x < Width and 0 <= y < Height.
func (b *Board) At(x, y int) Cell {
	return b[y*Width+x]
}

// Set assigns the cell at column x, row y.
//
// Precondition: 0 <= x < Width and 0 <= y < Height.
func (b *Board) Set(x, y int, c Cell) {
	b[y*Width+x] = c
}

// Serialize renders the board as its wire string.
//
// Postcondition: Returns a string of exactly Cells characters in '0'-'8'.
func (b *Board) Serialize() string {
	out := make([]byte, Cells)
	for i, c := range b {
		if c > Filler {
			c = Filler
		}
		out[i] = byte('0') + byte(c)
	}
	return string(out)
}

// Parse decodes a wire string into a Board. Characters outside '0'-'7'
// decode as Filler, matching what clients do with garbage-line cells.
//
// Postcondition: Returns an error only when the length is not Cells.
func Parse(s string) (Board, error) {
	var b Board
	if len(s) != Cells {
		return b, fmt.Errorf("board string has %d characters, want %d", len(s), Cells)
	}
	for i := 0; i < Cells; i++ {
		ch := s[i]
		if ch >= '0' && ch <= '7' {
			b[i] = Cell(ch - '0')
		} else {
			b[i] = Filler
		}
	}
	return b, nil
}

// Valid reports whether s is a plausible serialized board: exact length,
// every character one of the cell codes.
func Valid(s string) bool {
	if len(s) != Cells {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '8' {
			return false
		}
	}
	return true
}
