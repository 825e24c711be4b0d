package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// BaseRegion is the price table key that mirrors one of the regional prices.
const BaseRegion = "base_cost"

// EntryID identifies a catalog entry. The feed may send it as a JSON string or number.
type EntryID string

// UnmarshalJSON accepts both string and numeric identifiers.
func (id *EntryID) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	switch res.Type {
	case gjson.String:
		*id = EntryID(res.Str)
	case gjson.Number:
		*id = EntryID(res.Raw)
	case gjson.Null:
		*id = ""
	default:
		return fmt.Errorf("entry id: unsupported JSON value %s", res.Raw)
	}

	return nil
}

// RegionPrice is a single region's cost.
type RegionPrice struct {
	Region string
	Cost   float64
}

// PriceTable maps region codes to costs, preserving the key order of the feed.
// A nil table means the feed sent no prices at all.
type PriceTable []RegionPrice

// UnmarshalJSON decodes a JSON object keeping its key order. Anything other than an
// object decodes as an absent table, and regions whose cost is null or not a number are dropped.
func (t *PriceTable) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		*t = nil
		return nil
	}

	table := PriceTable{}
	res.ForEach(func(key, value gjson.Result) bool {
		if cost, ok := parseCost(value); ok {
			table = append(table, RegionPrice{Region: key.Str, Cost: cost})
		}
		return true
	})

	*t = table
	return nil
}

func parseCost(value gjson.Result) (float64, bool) {
	switch value.Type {
	case gjson.Number:
		return value.Num, true
	case gjson.String:
		cost, err := strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
		if err != nil || math.IsNaN(cost) || math.IsInf(cost, 0) {
			return 0, false
		}
		return cost, true
	default:
		return 0, false
	}
}

// MarshalJSON encodes the table as a JSON object in its stored order.
func (t PriceTable) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Region)
		if err != nil {
			return nil, fmt.Errorf("price table: %w", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(p.Cost, 'f', -1, 64))
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Cost returns the cost for a region.
func (t PriceTable) Cost(region string) (float64, bool) {
	for _, p := range t {
		if p.Region == region {
			return p.Cost, true
		}
	}
	return 0, false
}

// Equal reports structural equality: the same regions with the same costs, in any order.
// An absent table only equals another absent table.
func (t PriceTable) Equal(other PriceTable) bool {
	if (t == nil) != (other == nil) || len(t) != len(other) {
		return false
	}
	for _, p := range t {
		cost, ok := other.Cost(p.Region)
		if !ok || cost != p.Cost {
			return false
		}
	}
	return true
}

// CatalogEntry is one purchasable item from the store feed.
type CatalogEntry struct {
	ID              EntryID    `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	LongDescription string     `json:"long_description,omitempty"`
	Prices          PriceTable `json:"ticket_cost"`
	Stock           *int       `json:"stock"`
	ImageURL        string     `json:"image_url,omitempty"`
}

// UnmarshalJSON decodes an entry, reading stock leniently: whole numbers in any JSON
// spelling become a level, while null, "unlimited" and anything unparseable mean unlimited.
func (e *CatalogEntry) UnmarshalJSON(data []byte) error {
	type plain CatalogEntry
	aux := struct {
		*plain
		Stock json.RawMessage `json:"stock"`
	}{plain: (*plain)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Stock = parseStock(gjson.ParseBytes(aux.Stock))

	return nil
}

func parseStock(value gjson.Result) *int {
	var level float64
	switch value.Type {
	case gjson.Number:
		level = value.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
		if err != nil {
			return nil
		}
		level = parsed
	default:
		return nil
	}

	if math.IsNaN(level) || math.IsInf(level, 0) || level != math.Trunc(level) {
		return nil
	}
	stock := int(level)
	return &stock
}

// StockEqual compares stock levels, where nil means unlimited.
func StockEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Equal reports whether every modelled field of both entries is identical.
// Unlike PriceTable.Equal, the region order matters here.
func (e CatalogEntry) Equal(other CatalogEntry) bool {
	if e.ID != other.ID ||
		e.Name != other.Name ||
		e.Description != other.Description ||
		e.LongDescription != other.LongDescription ||
		e.ImageURL != other.ImageURL ||
		!StockEqual(e.Stock, other.Stock) {
		return false
	}
	if (e.Prices == nil) != (other.Prices == nil) || len(e.Prices) != len(other.Prices) {
		return false
	}
	for i := range e.Prices {
		if e.Prices[i] != other.Prices[i] {
			return false
		}
	}
	return true
}

// Snapshot is the complete set of entries as of the last processed poll cycle.
type Snapshot struct {
	Entries []CatalogEntry
	TakenAt time.Time
}
