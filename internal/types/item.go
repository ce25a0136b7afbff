package types

// Item is a catalog product. Immutable once loaded.
type Item struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// CatalogItem is the persisted form of a catalog entry, seeded at startup.
type CatalogItem struct {
	ID    string  `gorm:"primaryKey;column:id" json:"id"`
	Name  string  `gorm:"not null;column:name" json:"name"`
	Price float64 `gorm:"not null;column:price" json:"price"`
}

func (CatalogItem) TableName() string {
	return "items"
}
