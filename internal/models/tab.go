package models

// Tab identifies a dashboard section.
type Tab string

const (
	TabMaterials  Tab = "building-materials"
	TabCategories Tab = "categories"
	TabSeries     Tab = "series"
	TabMessages   Tab = "messages"

	DefaultTab = TabMaterials
)

// Tabs lists the sections in navigation order.
var Tabs = []Tab{TabMaterials, TabCategories, TabSeries, TabMessages}

// Valid reports whether t names a known section.
func (t Tab) Valid() bool {
	for _, known := range Tabs {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTab returns the tab named by s, falling back to DefaultTab for
// anything unrecognized.
func ParseTab(s string) Tab {
	if t := Tab(s); t.Valid() {
		return t
	}
	return DefaultTab
}
