package scratch

import (
	"github.com/Flynicolas/premio-caixa-magica-sub006/catalog"
	"github.com/Flynicolas/premio-caixa-magica-sub006/draw"
)

// GridSize is the number of cells on a scratch card (3x3).
const GridSize = 9

// WinCount is the occurrences of one symbol that form a winning card.
const WinCount = 3

// fillerCap limits non-winning symbols to 2 occurrences so a grid never
// contains an accidental second 3-of-a-kind.
const fillerCap = WinCount - 1

// ComposeGrid renders an already-decided outcome as 9 symbols.
//
// hasWin true: the winning symbol lands in at least WinCount random cells and
// no other symbol reaches WinCount. hasWin false: no symbol reaches WinCount
// anywhere. The grid is display only; the authoritative outcome is the draw
// that produced it.
func ComposeGrid(hasWin bool, winning catalog.PrizeItem, pool []catalog.PrizeItem, src draw.Source) ([GridSize]catalog.PrizeItem, error) {
	if src == nil {
		src = draw.Secure()
	}
	if hasWin {
		return composeWin(winning, pool, src)
	}
	return composeLose(pool, src)
}

func composeWin(winning catalog.PrizeItem, pool []catalog.PrizeItem, src draw.Source) ([GridSize]catalog.PrizeItem, error) {
	var grid [GridSize]catalog.PrizeItem
	if winning.ID == "" {
		return grid, &catalog.ConfigurationError{Reason: "winning symbol required for win grid"}
	}
	// Winning symbol in 3 random distinct cells.
	placed := 0
	for placed < WinCount {
		i := int(src.Int64N(GridSize))
		if grid[i].ID == winning.ID {
			continue
		}
		grid[i] = winning
		placed++
	}
	// Fillers capped at 2 occurrences each; when every filler is exhausted
	// the winning symbol takes the cell (extra winner occurrences are fine).
	counts := map[string]int{}
	fillers := make([]catalog.PrizeItem, 0, len(pool))
	for _, p := range pool {
		if p.ID != winning.ID {
			fillers = append(fillers, p)
		}
	}
	for i := range grid {
		if grid[i].ID != "" {
			continue
		}
		open := candidates(fillers, counts)
		if len(open) == 0 {
			grid[i] = winning
			continue
		}
		pick := open[src.Int64N(int64(len(open)))]
		grid[i] = pick
		counts[pick.ID]++
	}
	return grid, nil
}

func composeLose(pool []catalog.PrizeItem, src draw.Source) ([GridSize]catalog.PrizeItem, error) {
	var grid [GridSize]catalog.PrizeItem
	// 9 cells at 2 occurrences each needs at least 5 distinct symbols.
	if distinct(pool)*fillerCap < GridSize {
		return grid, &catalog.ConfigurationError{Reason: "lose grid needs at least 5 distinct symbols"}
	}
	counts := map[string]int{}
	for i := range grid {
		open := candidates(pool, counts)
		pick := open[src.Int64N(int64(len(open)))]
		grid[i] = pick
		counts[pick.ID]++
	}
	return grid, nil
}

// candidates returns pool symbols still under the filler cap, deduplicated.
func candidates(pool []catalog.PrizeItem, counts map[string]int) []catalog.PrizeItem {
	seen := map[string]bool{}
	out := make([]catalog.PrizeItem, 0, len(pool))
	for _, p := range pool {
		if p.ID == "" || seen[p.ID] || counts[p.ID] >= fillerCap {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

func distinct(pool []catalog.PrizeItem) int {
	seen := map[string]bool{}
	for _, p := range pool {
		if p.ID != "" {
			seen[p.ID] = true
		}
	}
	return len(seen)
}

// FindTriple returns the symbol occurring at least WinCount times among the
// given cells, if any. Used for cosmetic reveal feedback; the server's draw
// result stays authoritative for win/lose and payout.
func FindTriple(cells []catalog.PrizeItem) (catalog.PrizeItem, bool) {
	counts := map[string]int{}
	for _, c := range cells {
		if c.ID == "" {
			continue
		}
		counts[c.ID]++
		if counts[c.ID] >= WinCount {
			return c, true
		}
	}
	return catalog.PrizeItem{}, false
}
