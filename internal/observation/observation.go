package observation

// Observation is one immutable price/volume sample for a product. Rows are
// only ever appended; nothing updates or deletes them.
type Observation struct {
	ID         int64   `json:"id"`
	ProductID  string  `json:"productId"`
	BuyPrice   float64 `json:"buyPrice"`
	SellPrice  float64 `json:"sellPrice"`
	BuyVolume  int64   `json:"buyVolume"`
	SellVolume int64   `json:"sellVolume"`
	Timestamp  int64   `json:"timestamp"` // milliseconds since epoch
}
