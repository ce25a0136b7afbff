package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

// Entry is one catalog product plus the keyword list used by the
// classification gateway to match vision annotations against it.
type Entry struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Price    float64  `yaml:"price"`
	Keywords []string `yaml:"keywords"`
}

func (e Entry) Item() types.Item {
	return types.Item{ID: e.ID, Name: e.Name, Price: e.Price}
}

// Catalog is the immutable id -> product mapping. Order is significant:
// Items() and Entries() return products in load order.
type Catalog struct {
	entries []Entry
	byID    map[string]int
}

func New(entries []Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog requires at least one entry")
	}
	byID := make(map[string]int, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.ID) == "" {
			return nil, fmt.Errorf("catalog entry %d has empty id", i)
		}
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("catalog entry %q has empty name", e.ID)
		}
		if e.Price < 0 {
			return nil, fmt.Errorf("catalog entry %q has negative price", e.ID)
		}
		if _, dup := byID[e.ID]; dup {
			return nil, fmt.Errorf("catalog entry %q duplicated", e.ID)
		}
		byID[e.ID] = i
	}
	return &Catalog{entries: entries, byID: byID}, nil
}

// Load reads a YAML catalog file. An empty path yields the compiled-in
// demo catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var doc struct {
		Items []Entry `yaml:"items"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	return New(doc.Items)
}

func Default() (*Catalog, error) {
	return New(defaultEntries())
}

func (c *Catalog) Get(id string) (types.Item, bool) {
	i, ok := c.byID[id]
	if !ok {
		return types.Item{}, false
	}
	return c.entries[i].Item(), true
}

// GetByName matches a product by display name, case-insensitively. Kept
// for the legacy add-by-name endpoint.
func (c *Catalog) GetByName(name string) (types.Item, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, e := range c.entries {
		if strings.ToLower(e.Name) == name || strings.ToLower(e.ID) == name {
			return e.Item(), true
		}
	}
	return types.Item{}, false
}

func (c *Catalog) Items() []types.Item {
	out := make([]types.Item, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Item())
	}
	return out
}

func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Size() int {
	return len(c.entries)
}

// defaultEntries is the demo catalog: the four original scan targets plus
// the Red Bull can used on the display mock.
func defaultEntries() []Entry {
	return []Entry{
		{
			ID:    "pepsi-max",
			Name:  "Pepsi Max",
			Price: 1.99,
			Keywords: []string{
				"pepsi", "pepsi max", "cola", "soda",
				"soft drink", "carbonated soft drinks", "soft drinks",
				"can", "aluminum can", "steel and tin cans", "tin", "cans",
				"beverage", "drink", "non-alcoholic drink", "liquid",
				"carbonated", "cylinder", "aluminum",
				"logo", "label", "black", "thirsty",
				"steel", "gadget", "plastic",
			},
		},
		{
			ID:    "sunmaid-sour-raisins",
			Name:  "Sunmaid Sour Raisins",
			Price: 1.50,
			Keywords: []string{
				"sun-maid", "sunmaid", "sun maid",
				"raisin", "raisins", "sour", "sour raisin",
				"golden raisins", "dried fruit",
				"snack", "snacks", "box", "fruit",
				"packaging and labeling", "label", "logo",
				"watermelon", "flavored", "natural flavors",
			},
		},
		{
			ID:    "vitamin-well-refresh",
			Name:  "Vitamin Well Refresh",
			Price: 3.29,
			Keywords: []string{
				"vitamin well", "vitamin", "well", "refresh",
				"bottle", "plastic bottle", "water bottle", "glass",
				"drink", "beverage", "water", "vitamin water", "soft drink",
				"functional drink", "fluid", "liquid",
				"drinkware", "label", "bottle cap", "personal care",
				"chemical compound", "plastic",
				"b12", "c-vitamiini", "sinkki", "lemonaden", "kiivin",
				"calorie", "juoma",
			},
		},
		{
			ID:    "estrella-chips",
			Name:  "Estrella Maapähkinä Rinkula",
			Price: 2.99,
			Keywords: []string{
				"estrella",
				"maapähkinä", "rinkula", "maapähkinävoita",
				"chips", "crisps", "snack", "snack-renkait", "peanut",
				"bag", "potato chips", "salty snack",
				"ingredient", "food", "breakfast cereal", "cereal",
				"finger food", "packaging and labeling", "produce",
				"junk food", "breakfast box", "convenience food",
				"fast food", "staple food", "recipe",
				"label", "logo", "graphic design", "advertising",
				"natural foods",
				"vegan", "makean suolainen", "rouskuva", "maku",
			},
		},
		{
			ID:    "red-bull",
			Name:  "Red Bull",
			Price: 2.95,
			Keywords: []string{
				"red bull", "redbull", "energy drink", "energy",
				"can", "aluminum can", "tin", "cans",
				"beverage", "drink", "carbonated", "caffeine",
				"blue", "silver", "bull", "logo", "label",
			},
		},
	}
}
