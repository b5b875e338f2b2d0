package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CoinItemID is the template ID of the currency item. Coin quantities get
// ±25% randomization during drop resolution; everything else drops at the
// configured quantity.
const CoinItemID int32 = 995

// ItemCategory is a closed set. Conversions are matched exhaustively so a new
// category added here must be handled at every switch, instead of silently
// falling through to a default string.
type ItemCategory int

const (
	CategoryCoin ItemCategory = iota
	CategoryEquipment
	CategoryConsumable
	CategoryMaterial
	CategoryQuest
)

func (c ItemCategory) String() string {
	switch c {
	case CategoryCoin:
		return "coin"
	case CategoryEquipment:
		return "equipment"
	case CategoryConsumable:
		return "consumable"
	case CategoryMaterial:
		return "material"
	case CategoryQuest:
		return "quest"
	}
	panic(fmt.Sprintf("data: unhandled ItemCategory %d", int(c)))
}

// ParseItemCategory converts a YAML category string. Unknown strings are a
// load error, not a silent default.
func ParseItemCategory(s string) (ItemCategory, error) {
	switch s {
	case "coin":
		return CategoryCoin, nil
	case "equipment":
		return CategoryEquipment, nil
	case "consumable":
		return CategoryConsumable, nil
	case "material":
		return CategoryMaterial, nil
	case "quest":
		return CategoryQuest, nil
	}
	return 0, fmt.Errorf("unknown item category %q", s)
}

// ItemDef holds the item template data the loot core needs.
type ItemDef struct {
	ItemID    int32
	Name      string
	Category  ItemCategory
	Stackable bool
	Value     int32 // base value, used by audit rows and future shop pricing
	GrdGfx    int32 // ground sprite ID for the visual entity
}

type itemEntry struct {
	ItemID    int32  `yaml:"item_id"`
	Name      string `yaml:"name"`
	Category  string `yaml:"category"`
	Stackable bool   `yaml:"stackable"`
	Value     int32  `yaml:"value"`
	GrdGfx    int32  `yaml:"grd_gfx"`
}

type itemListFile struct {
	Items []itemEntry `yaml:"items"`
}

// ItemTable is the immutable item catalog, indexed by item ID.
// Loaded once at boot; read-only afterwards.
type ItemTable struct {
	items map[int32]*ItemDef
}

// LoadItemTable loads the item catalog from a YAML file.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item_list: %w", err)
	}
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item_list: %w", err)
	}
	t := &ItemTable{items: make(map[int32]*ItemDef, len(f.Items))}
	for i := range f.Items {
		e := &f.Items[i]
		cat, err := ParseItemCategory(e.Category)
		if err != nil {
			return nil, fmt.Errorf("item %d (%s): %w", e.ItemID, e.Name, err)
		}
		t.items[e.ItemID] = &ItemDef{
			ItemID:    e.ItemID,
			Name:      e.Name,
			Category:  cat,
			Stackable: e.Stackable || cat == CategoryCoin, // coins always stack
			Value:     e.Value,
			GrdGfx:    e.GrdGfx,
		}
	}
	return t, nil
}

// Get returns an item by ID, or nil if not found.
func (t *ItemTable) Get(itemID int32) *ItemDef {
	return t.items[itemID]
}

// Count returns total loaded items.
func (t *ItemTable) Count() int {
	return len(t.items)
}
