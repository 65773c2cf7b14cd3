// Package feed models snapshots returned by the upstream price feed.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// QuickStatus is the per-product quote summary published by the feed.
type QuickStatus struct {
	BuyPrice   float64 `json:"buyPrice"`
	SellPrice  float64 `json:"sellPrice"`
	BuyVolume  int64   `json:"buyVolume"`
	SellVolume int64   `json:"sellVolume"`
}

type Product struct {
	ID    string
	Quote QuickStatus
}

// Snapshot is one feed response. Raw is the body exactly as received.
type Snapshot struct {
	Raw      json.RawMessage
	Success  bool
	Products []Product // document order
	Skipped  []string  // products without a usable quick_status
}

// Source fetches the current snapshot from an upstream feed.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Snapshot, error)
}

// Parse decodes a feed body. Products are returned in the order they appear
// in the document. Entries whose quick_status is missing or has a field that
// is not a non-negative number are listed in Skipped instead.
func Parse(body []byte) (*Snapshot, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON body")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("expected JSON object, got %s", root.Type)
	}

	snap := &Snapshot{
		Raw:     json.RawMessage(body),
		Success: root.Get("success").Bool(),
	}
	if !snap.Success {
		return snap, nil
	}

	products := root.Get("products")
	if !products.IsObject() {
		return nil, fmt.Errorf("products is not an object")
	}

	products.ForEach(func(key, value gjson.Result) bool {
		quote, ok := parseQuote(value.Get("quick_status"))
		if !ok {
			snap.Skipped = append(snap.Skipped, key.String())
			return true
		}
		snap.Products = append(snap.Products, Product{ID: key.String(), Quote: quote})
		return true
	})

	return snap, nil
}

func parseQuote(qs gjson.Result) (QuickStatus, bool) {
	if !qs.IsObject() {
		return QuickStatus{}, false
	}
	fields := []gjson.Result{
		qs.Get("buyPrice"), qs.Get("sellPrice"), qs.Get("buyVolume"), qs.Get("sellVolume"),
	}
	for _, f := range fields {
		if f.Type != gjson.Number || f.Num < 0 {
			return QuickStatus{}, false
		}
	}
	return QuickStatus{
		BuyPrice:   fields[0].Float(),
		SellPrice:  fields[1].Float(),
		BuyVolume:  fields[2].Int(),
		SellVolume: fields[3].Int(),
	}, true
}
