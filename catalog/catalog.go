package catalog

// Rarity tier of a prize item. Ordered for display sorting; the Special flag
// on PrizeItem is orthogonal to this ordering.
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

var rarityRank = map[string]int{
	RarityCommon:    0,
	RarityRare:      1,
	RarityEpic:      2,
	RarityLegendary: 3,
}

// RarityRank returns the order of a rarity tier (common < rare < epic < legendary),
// or -1 for unknown tiers.
func RarityRank(rarity string) int {
	if r, ok := rarityRank[rarity]; ok {
		return r
	}
	return -1
}

// PrizeItem is one catalog entry: a prize that can appear in a draw.
// Immutable during a single draw; mutated only by catalog edits.
type PrizeItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Image     string  `json:"image,omitempty"`
	Rarity    string  `json:"rarity"`
	Special   bool    `json:"special,omitempty"`
	BaseValue float64 `json:"baseValue"`
	Active    bool    `json:"active"`
}

// Entry associates a prize item with its draw weight for one game type.
// Weight 0 keeps the item visible for display but undrawable.
type Entry struct {
	Item   PrizeItem `json:"item"`
	Weight int64     `json:"weight"`
	Active bool      `json:"active"`
}

// Catalog is the probability catalog for one game type, loaded fresh per draw.
type Catalog struct {
	GameType string  `json:"gameType"`
	Entries  []Entry `json:"entries"`
}

// ConfigurationError marks a catalog that cannot produce a draw (missing game
// type, no active entries, or zero total weight). Not retryable without an
// operator fixing the catalog.
type ConfigurationError struct {
	GameType string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return "catalog " + e.GameType + ": " + e.Reason
}

// Active returns entries active on both the probability row and the item.
func (c *Catalog) Active() []Entry {
	out := make([]Entry, 0, len(c.Entries))
	for _, e := range c.Entries {
		if e.Active && e.Item.Active {
			out = append(out, e)
		}
	}
	return out
}

// Drawable returns active entries with weight > 0.
func (c *Catalog) Drawable() []Entry {
	out := make([]Entry, 0, len(c.Entries))
	for _, e := range c.Active() {
		if e.Weight > 0 {
			out = append(out, e)
		}
	}
	return out
}

// TotalWeight sums the weights of drawable entries.
func (c *Catalog) TotalWeight() int64 {
	var total int64
	for _, e := range c.Drawable() {
		total += e.Weight
	}
	return total
}

// DisplayItems returns the items of all active entries, zero-weight included.
// Used for slot sequences and scratch grids, which never influence odds.
func (c *Catalog) DisplayItems() []PrizeItem {
	active := c.Active()
	out := make([]PrizeItem, 0, len(active))
	for _, e := range active {
		out = append(out, e.Item)
	}
	return out
}

// FindActive returns the active entry for the given item id, weight unrestricted.
func (c *Catalog) FindActive(itemID string) (Entry, bool) {
	for _, e := range c.Active() {
		if e.Item.ID == itemID {
			return e, true
		}
	}
	return Entry{}, false
}

// Validate checks that the catalog can back a weighted draw.
func (c *Catalog) Validate() error {
	if len(c.Active()) == 0 {
		return &ConfigurationError{GameType: c.GameType, Reason: "no active entries"}
	}
	for _, e := range c.Entries {
		if e.Weight < 0 {
			return &ConfigurationError{GameType: c.GameType, Reason: "negative weight for item " + e.Item.ID}
		}
	}
	if c.TotalWeight() <= 0 {
		return &ConfigurationError{GameType: c.GameType, Reason: "total weight is zero"}
	}
	return nil
}
