package board

import "fmt"

// BugType is the kind of a Hive piece. Metric weights are indexed by it.
type BugType int8

const (
	QueenBee BugType = iota
	Spider
	Beetle
	Grasshopper
	SoldierAnt
	Mosquito
	Ladybug
	Pillbug
)

// NumBugTypes is the number of piece categories known to the evaluator.
const NumBugTypes = 8

// NoBug marks the piece of a pass move.
const NoBug BugType = -1

var bugTypeNames = [NumBugTypes]string{
	"QueenBee", "Spider", "Beetle", "Grasshopper",
	"SoldierAnt", "Mosquito", "Ladybug", "Pillbug",
}

var bugTypeShort = [NumBugTypes]string{"Q", "S", "B", "G", "A", "M", "L", "P"}

func (b BugType) String() string {
	if b < 0 || int(b) >= NumBugTypes {
		return "NoBug"
	}
	return bugTypeNames[b]
}

// ParseBugType is the inverse of BugType.String.
func ParseBugType(s string) (BugType, error) {
	for i, n := range bugTypeNames {
		if n == s {
			return BugType(i), nil
		}
	}
	return NoBug, fmt.Errorf("unknown bug type %q", s)
}

// PieceName identifies one physical piece, for example the second white spider.
type PieceName struct {
	Color  Color
	Bug    BugType
	Number uint8
}

// NoPiece is the piece of the pass move.
var NoPiece = PieceName{Bug: NoBug}

func (p PieceName) String() string {
	if p.Bug == NoBug {
		return "-"
	}
	c := "w"
	if p.Color == Black {
		c = "b"
	}
	if p.Number == 0 {
		return c + bugTypeShort[p.Bug]
	}
	return fmt.Sprintf("%s%s%d", c, bugTypeShort[p.Bug], p.Number)
}

// Position is a cell in axial hex coordinates plus a stack height.
type Position struct {
	Q     int
	R     int
	Stack int
}

func (p Position) String() string {
	return fmt.Sprintf("%d,%d,%d", p.Q, p.R, p.Stack)
}
