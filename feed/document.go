package feed

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-covid-forecaster/timedataset"
	"github.com/tidwall/gjson"
)

var (
	ErrInvalidDocument = errors.New("invalid feed document")
	ErrMissingSeries   = errors.New("series not found in feed document")
)

// Series keys of the national dashboard document
const (
	KeyAdministered        = "vaccine_administered_total"
	KeyAdministeredPlanned = "vaccine_administered_planned"
	KeyDelivery            = "vaccine_delivery"
	KeyDeliveryEstimate    = "vaccine_delivery_estimate"
	KeyDeliveryPerSupplier = "vaccine_delivery_per_supplier"
	KeySupport             = "vaccine_vaccinated_or_support"
	KeyTested              = "tested_overall"
	KeyIntensiveCare       = "intensive_care_lcps"
	KeyVariants            = "variants"
)

// Document is a parsed dashboard feed. Every series is an object holding a values array and a
// last_value object.
type Document struct {
	raw []byte
}

// Parse validates the raw feed bytes
func Parse(raw []byte) (*Document, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidDocument
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return nil, fmt.Errorf("top level is not an object, %w", ErrInvalidDocument)
	}
	return &Document{raw: raw}, nil
}

// Raw returns the unparsed feed
func (d *Document) Raw() []byte {
	return d.raw
}

// Keys lists the top level series names
func (d *Document) Keys() []string {
	var keys []string
	gjson.ParseBytes(d.raw).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// Values returns every entry of the series values array
func (d *Document) Values(key string) ([]timedataset.Record, error) {
	res := gjson.GetBytes(d.raw, key+".values")
	if !res.Exists() {
		return nil, fmt.Errorf("%s values, %w", key, ErrMissingSeries)
	}
	if !res.IsArray() {
		return nil, fmt.Errorf("%s values is not an array, %w", key, ErrInvalidDocument)
	}

	var records []timedataset.Record
	for i, entry := range res.Array() {
		rec, err := toRecord(entry)
		if err != nil {
			return nil, fmt.Errorf("%s value %d, %w", key, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// LastValue returns the series last_value object
func (d *Document) LastValue(key string) (timedataset.Record, error) {
	res := gjson.GetBytes(d.raw, key+".last_value")
	if !res.Exists() {
		return nil, fmt.Errorf("%s last value, %w", key, ErrMissingSeries)
	}
	rec, err := toRecord(res)
	if err != nil {
		return nil, fmt.Errorf("%s last value, %w", key, err)
	}
	return rec, nil
}

// Field returns a single numeric field of the series last_value
func (d *Document) Field(key, field string) (float64, error) {
	rec, err := d.LastValue(key)
	if err != nil {
		return 0, err
	}
	val, exists := rec[field]
	if !exists {
		return 0, fmt.Errorf("%s.%s, %w", key, field, ErrMissingSeries)
	}
	return val, nil
}

// SupplierTotals sums the delivered doses per supplier over every entry of the per supplier
// deliveries series. Suppliers absent from an entry count as zero.
func (d *Document) SupplierTotals(suppliers []string) (map[string]float64, error) {
	records, err := d.Values(KeyDeliveryPerSupplier)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64, len(suppliers))
	for _, s := range suppliers {
		totals[s] = 0
	}
	for _, rec := range records {
		for _, s := range suppliers {
			if v, exists := rec[s]; exists && !math.IsNaN(v) {
				totals[s] += v
			}
		}
	}
	return totals, nil
}

// toRecord keeps the numeric fields of an object, nulls become NaN
func toRecord(obj gjson.Result) (timedataset.Record, error) {
	if !obj.IsObject() {
		return nil, timedataset.ErrMalformedRecord
	}
	rec := make(timedataset.Record)
	obj.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.Number:
			rec[key.String()] = value.Num
		case gjson.Null:
			rec[key.String()] = math.NaN()
		}
		return true
	})
	return rec, nil
}
