package types

// ClassificationResult is the outcome of matching an image against the
// catalog. Matched is false when nothing scored above the gateway
// threshold, or when the vision backend was unavailable.
type ClassificationResult struct {
	ItemID     string  `json:"itemId,omitempty"`
	ItemName   string  `json:"itemName,omitempty"`
	Price      float64 `json:"price,omitempty"`
	Confidence float64 `json:"confidence"`
	Matched    bool    `json:"matched"`
}
