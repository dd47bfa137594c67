package source

import (
	"fmt"
	"strings"

	"github.com/obenchekro/namkin-data-migration/internal/config"
	"github.com/obenchekro/namkin-data-migration/internal/star"
	"github.com/obenchekro/namkin-data-migration/pkg/records"
)

// Sheet column names, folded with records.Key. The part sheet spells its
// material list "meterials".
const (
	colID            = "id"
	colName          = "name"
	colPrices        = "prices"
	colMaterials     = "meterials"
	colMachines      = "machine"
	colTimeToProduce = "timetoproduce"
	colDefaultPrice  = "defaultprice"
)

// requireColumns checks the header of recs (every record carries every
// header key) against keys.
func requireColumns(recs []records.Record, keys ...string) error {
	if len(recs) == 0 {
		return nil
	}
	var missing []string
	for _, k := range keys {
		if !recs[0].Has(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", star.ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// DecodeEvents maps machine-file records onto events. Rows whose integer
// fields do not parse are skipped and counted in bad. Columns outside cols
// land in Extra.
func DecodeEvents(recs []records.Record, cols config.EventColumns) (events []star.SupplyChainEvent, bad int, err error) {
	order := records.Key(cols.Order)
	part := records.Key(cols.PartID)
	machine := records.Key(cols.MachineID)
	ts := records.Key(cols.TimeOfProduction)
	damaged := records.Key(cols.Damaged)

	required := []string{order, part, machine, ts}
	if damaged != "" {
		required = append(required, damaged)
	}
	if err := requireColumns(recs, required...); err != nil {
		return nil, 0, err
	}
	known := map[string]struct{}{order: {}, part: {}, machine: {}, ts: {}, damaged: {}}

	events = make([]star.SupplyChainEvent, 0, len(recs))
	for _, rec := range recs {
		var ev star.SupplyChainEvent
		var errs [4]error
		ev.Order, errs[0] = rec.Int64(order)
		ev.PartID, errs[1] = rec.Int64(part)
		ev.MachineID, errs[2] = rec.Int64(machine)
		ev.TimeOfProduction, errs[3] = rec.Int64(ts)
		if errs[0] != nil || errs[1] != nil || errs[2] != nil || errs[3] != nil {
			bad++
			continue
		}
		if damaged != "" {
			ev.Damaged, _ = rec.String(damaged)
		}
		for k := range rec {
			if _, ok := known[k]; ok {
				continue
			}
			if v, ok := rec.String(k); ok {
				if ev.Extra == nil {
					ev.Extra = make(map[string]string)
				}
				ev.Extra[k] = v
			}
		}
		events = append(events, ev)
	}
	return events, bad, nil
}

// DecodeParts maps part sheet records onto raw parts. A row without a
// numeric id, or with a non-numeric price or duration, is skipped. Empty
// numeric cells decode as zero.
func DecodeParts(recs []records.Record) (parts []star.RawPart, bad int, err error) {
	if err := requireColumns(recs, colID, colMaterials, colMachines, colTimeToProduce, colDefaultPrice); err != nil {
		return nil, 0, err
	}
	parts = make([]star.RawPart, 0, len(recs))
	for _, rec := range recs {
		id, err := rec.Int64(colID)
		if err != nil {
			bad++
			continue
		}
		ttp, err1 := optionalFloat(rec, colTimeToProduce)
		price, err2 := optionalFloat(rec, colDefaultPrice)
		if err1 != nil || err2 != nil {
			bad++
			continue
		}
		mats, _ := rec.String(colMaterials)
		machines, _ := rec.String(colMachines)
		parts = append(parts, star.RawPart{
			ID:            id,
			Materials:     mats,
			Machines:      machines,
			TimeToProduce: ttp,
			DefaultPrice:  price,
		})
	}
	return parts, bad, nil
}

// DecodeMaterials maps material sheet records onto raw materials. Prices
// stay serialized; the material builder decodes them.
func DecodeMaterials(recs []records.Record) (mats []star.RawMaterial, bad int, err error) {
	if err := requireColumns(recs, colID, colName, colPrices); err != nil {
		return nil, 0, err
	}
	mats = make([]star.RawMaterial, 0, len(recs))
	for _, rec := range recs {
		id, err := rec.Int64(colID)
		if err != nil {
			bad++
			continue
		}
		name, _ := rec.String(colName)
		prices, _ := rec.String(colPrices)
		mats = append(mats, star.RawMaterial{ID: id, Name: name, Prices: prices})
	}
	return mats, bad, nil
}

func optionalFloat(rec records.Record, key string) (float64, error) {
	if _, ok := rec.String(key); !ok {
		return 0, nil
	}
	return rec.Float64(key)
}
