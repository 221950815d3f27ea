package levels

import (
	"github.com/shopspring/decimal"

	"github.com/big-striped-cat/zvezdin/market"
)

// Location of a price point relative to a level.
type Location int

const (
	LocationDown Location = iota - 1
	LocationInside
	LocationUp
)

func CalcLocation(point decimal.Decimal, level market.Level) Location {
	if point.LessThan(level.Low) {
		return LocationDown
	}
	if point.GreaterThan(level.High) {
		return LocationUp
	}
	return LocationInside
}

// Interaction is one crossing of a level boundary.
type Interaction int

const (
	// EntryDownUp: price entered the level from below.
	EntryDownUp Interaction = iota + 1
	// EntryUpDown: price entered the level from above.
	EntryUpDown
	// ExitDownUp: price left the level upward.
	ExitDownUp
	// ExitUpDown: price left the level downward.
	ExitUpDown
)

// CalcLevelInteractions walks the window and records every boundary
// crossing in order. A jump across the whole level produces an entry
// followed by an exit.
func CalcLevelInteractions(window []decimal.Decimal, level market.Level) []Interaction {
	var res []Interaction

	var prev Location
	for i, point := range window {
		next := CalcLocation(point, level)
		if i == 0 || next == prev {
			prev = next
			continue
		}

		switch {
		case prev == LocationDown && next == LocationInside:
			res = append(res, EntryDownUp)
		case prev == LocationUp && next == LocationInside:
			res = append(res, EntryUpDown)
		case prev == LocationInside && next == LocationDown:
			res = append(res, ExitUpDown)
		case prev == LocationInside && next == LocationUp:
			res = append(res, ExitDownUp)
		case prev == LocationDown && next == LocationUp:
			res = append(res, EntryDownUp, ExitDownUp)
		case prev == LocationUp && next == LocationDown:
			res = append(res, EntryUpDown, ExitUpDown)
		}
		prev = next
	}

	return res
}

// CalcTouchUps counts touches of the level from above: an entry from above
// followed immediately by an exit upward.
func CalcTouchUps(interactions []Interaction) int {
	res := 0
	for i := 0; i+1 < len(interactions); i++ {
		if interactions[i] == EntryUpDown && interactions[i+1] == ExitDownUp {
			res++
		}
	}
	return res
}

// CalcTouchDowns counts touches of the level from below: an entry from
// below followed immediately by an exit downward.
func CalcTouchDowns(interactions []Interaction) int {
	res := 0
	for i := 0; i+1 < len(interactions); i++ {
		if interactions[i] == EntryDownUp && interactions[i+1] == ExitUpDown {
			res++
		}
	}
	return res
}
