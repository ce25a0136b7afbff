package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalogLookup(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	item, ok := cat.Get("pepsi-max")
	if !ok {
		t.Fatalf("Get(pepsi-max): not found")
	}
	if item.Name != "Pepsi Max" || item.Price != 1.99 {
		t.Fatalf("Get(pepsi-max): got=%+v", item)
	}
	if _, ok := cat.Get("no-such-item"); ok {
		t.Fatalf("Get(no-such-item): expected miss")
	}
}

func TestDefaultCatalogOrderStable(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	items := cat.Items()
	if len(items) != cat.Size() {
		t.Fatalf("Items length: want=%d got=%d", cat.Size(), len(items))
	}
	if items[0].ID != "pepsi-max" {
		t.Fatalf("first item: want=pepsi-max got=%s", items[0].ID)
	}
}

func TestGetByNameCaseInsensitive(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	item, ok := cat.GetByName("red bull")
	if !ok {
		t.Fatalf("GetByName(red bull): not found")
	}
	if item.ID != "red-bull" {
		t.Fatalf("GetByName(red bull): got=%s", item.ID)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	doc := `items:
  - id: red-bull
    name: Red Bull
    price: 2.95
    keywords: [red bull, can, energy drink]
  - id: chips-bag
    name: Chips Bag
    price: 1.99
    keywords: [chips, bag]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Size() != 2 {
		t.Fatalf("size: want=2 got=%d", cat.Size())
	}
	item, ok := cat.Get("chips-bag")
	if !ok || item.Price != 1.99 {
		t.Fatalf("Get(chips-bag): ok=%v item=%+v", ok, item)
	}
}

func TestNewRejectsBadEntries(t *testing.T) {
	cases := [][]Entry{
		nil,
		{{ID: "", Name: "x", Price: 1}},
		{{ID: "a", Name: "", Price: 1}},
		{{ID: "a", Name: "x", Price: -1}},
		{{ID: "a", Name: "x", Price: 1}, {ID: "a", Name: "y", Price: 2}},
	}
	for i, entries := range cases {
		if _, err := New(entries); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
