package catalog

import (
	"time"

	"github.com/stocklite/stocklite/internal/model"
)

// Category names used by the presets.
const (
	CategoryKitchen  = "キッチン"
	CategoryBathroom = "洗面・トイレ"
)

// DefaultCategories returns the built-in category list in display order.
func DefaultCategories() []string {
	return []string{CategoryKitchen, CategoryBathroom}
}

// PresetID is the stable id of a built-in item.
func PresetID(category, name string) string {
	return "preset-" + category + "-" + name
}

// Presets returns the starter catalog stamped with now.
func Presets(now time.Time) *Catalog {
	mk := func(name, category string, qty int64) Entry {
		return Entry{Item: model.Item{
			ID:        PresetID(category, name),
			Name:      name,
			Category:  category,
			Qty:       qty,
			Threshold: 1,
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		}}
	}

	return &Catalog{Entries: []Entry{
		mk("キッチンペーパー", CategoryKitchen, 1),
		mk("スポンジ", CategoryKitchen, 0),
		mk("トイレットペーパー", CategoryKitchen, 0),
		mk("ラップ", CategoryKitchen, 0),
		mk("食器洗剤", CategoryKitchen, 0),
		mk("シャンプー", CategoryBathroom, 0),
		mk("トイレ用洗剤", CategoryBathroom, 0),
		mk("ボディソープ", CategoryBathroom, 0),
		mk("歯磨き粉", CategoryBathroom, 0),
	}}
}
