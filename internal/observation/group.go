package observation

import (
	"bytes"
	"encoding/json"
)

// Grouped maps product ids to their observations while remembering the order
// in which products were first seen.
type Grouped struct {
	order     []string
	byProduct map[string][]Observation
}

// GroupByProduct folds a flat sequence into per-product sequences. Product
// order is first-seen order and each product keeps the relative order of its
// rows, so an input sorted by (product, time) stays chronological per product.
func GroupByProduct(rows []Observation) *Grouped {
	g := &Grouped{byProduct: make(map[string][]Observation)}
	for _, o := range rows {
		if _, ok := g.byProduct[o.ProductID]; !ok {
			g.order = append(g.order, o.ProductID)
		}
		g.byProduct[o.ProductID] = append(g.byProduct[o.ProductID], o)
	}
	return g
}

// Products returns product ids in first-seen order.
func (g *Grouped) Products() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

func (g *Grouped) Get(productID string) []Observation {
	return g.byProduct[productID]
}

func (g *Grouped) Len() int { return len(g.order) }

// MarshalJSON writes a JSON object whose keys follow first-seen order.
func (g *Grouped) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range g.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		rows, err := json.Marshal(g.byProduct[id])
		if err != nil {
			return nil, err
		}
		buf.Write(rows)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
