package roulette

import (
	"fmt"

	"github.com/Flynicolas/premio-caixa-magica-sub006/catalog"
	"github.com/Flynicolas/premio-caixa-magica-sub006/draw"
)

// Resample budget per slot before a repeat is accepted. Bounds the fill loop
// for catalogs with fewer than 3 distinct items.
const maxResampleAttempts = 50

// CenterIndex is the fixed slot that holds the winning item.
func CenterIndex(slotCount int) int {
	return slotCount / 2
}

// Compose builds the ordered slot sequence shown while the reel spins.
// The winner sits at CenterIndex(slotCount); every other slot is sampled
// uniformly from the display catalog (zero-weight items included, since this
// ordering only drives animation, never odds). A slot may not repeat either
// of the two slots before it; after maxResampleAttempts the repeat is
// accepted so tiny catalogs still terminate.
func Compose(display []catalog.PrizeItem, winner catalog.PrizeItem, slotCount int, src draw.Source) ([]catalog.PrizeItem, error) {
	if slotCount <= 0 {
		return nil, fmt.Errorf("roulette: slot count must be positive, got %d", slotCount)
	}
	if len(display) == 0 {
		return nil, &catalog.ConfigurationError{Reason: "no display items for slot sequence"}
	}
	if src == nil {
		src = draw.Secure()
	}
	center := CenterIndex(slotCount)
	slots := make([]catalog.PrizeItem, slotCount)
	slots[center] = winner
	for i := 0; i < slotCount; i++ {
		if i == center {
			continue
		}
		pick := display[src.Int64N(int64(len(display)))]
		for attempt := 0; attempt < maxResampleAttempts && repeats(slots, i, center, pick); attempt++ {
			pick = display[src.Int64N(int64(len(display)))]
		}
		slots[i] = pick
	}
	return slots, nil
}

// repeats reports whether item matches either of the two slots before i, or
// the pre-placed winner when i sits just before the center. Slots fill left
// to right, so prior slots are always set.
func repeats(slots []catalog.PrizeItem, i, center int, item catalog.PrizeItem) bool {
	if i >= 1 && slots[i-1].ID == item.ID {
		return true
	}
	if i >= 2 && slots[i-2].ID == item.ID {
		return true
	}
	if (i == center-1 || i == center-2) && slots[center].ID == item.ID {
		return true
	}
	return false
}
