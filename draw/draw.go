package draw

import (
	"github.com/Flynicolas/premio-caixa-magica-sub006/catalog"
)

// InvalidForcedItemError is returned when a forced outcome references an item
// that is not in the active catalog for the game type.
type InvalidForcedItemError struct {
	GameType string
	ItemID   string
}

func (e *InvalidForcedItemError) Error() string {
	return "forced item " + e.ItemID + " not in active catalog " + e.GameType
}

// Resolve picks the winning item for one draw.
//
// With forcedItemID set, the item must exist in the active catalog (any
// weight, including 0) and is returned without sampling; this path backs
// admin testing and guaranteed-win promotions. Otherwise the winner is drawn
// from the cumulative weight distribution over entries with weight > 0, so
// P(item) = weight/totalWeight. The catalog snapshot is read once; Resolve
// has no side effects and is reproducible given a seeded source.
func Resolve(cat *catalog.Catalog, forcedItemID string, src Source) (catalog.PrizeItem, error) {
	if src == nil {
		src = Secure()
	}
	if forcedItemID != "" {
		e, ok := cat.FindActive(forcedItemID)
		if !ok {
			return catalog.PrizeItem{}, &InvalidForcedItemError{GameType: cat.GameType, ItemID: forcedItemID}
		}
		return e.Item, nil
	}
	drawable := cat.Drawable()
	var total int64
	for _, e := range drawable {
		total += e.Weight
	}
	if total <= 0 {
		return catalog.PrizeItem{}, &catalog.ConfigurationError{GameType: cat.GameType, Reason: "total weight is zero"}
	}
	pick := src.Int64N(total)
	var cum int64
	for _, e := range drawable {
		cum += e.Weight
		if pick < cum {
			return e.Item, nil
		}
	}
	// Unreachable when weights sum to total; kept as a safe fallback.
	return drawable[len(drawable)-1].Item, nil
}
