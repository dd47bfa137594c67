package star

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/obenchekro/namkin-data-migration/internal/decode"
)

type produced struct {
	ev      SupplyChainEvent
	date    time.Time
	timeID  int
	damaged *bool
}

type producedPart struct {
	produced
	part PartInfo
}

type producedPrice struct {
	producedPart
	price MaterialPrice
}

type partMachineKey struct{ part, machine int64 }

type materialYearKey struct {
	material int64
	year     int
}

// BuildSupplyChain joins production events to the part, price and machine
// dimensions:
//
//  1. the event timestamp becomes a UTC production date and its timeId;
//  2. parts match on (partId, machineId);
//  3. prices match on materialId and the production year;
//  4. machines match on machineId.
//
// Every join is inner; unmatched rows are dropped and counted. An empty
// dimension, or one without a dated price, fails with ErrEmptyDimension.
func (b *Builder) BuildSupplyChain(
	events []SupplyChainEvent,
	parts []PartInfo,
	prices []MaterialPrice,
	machines []Machine,
) ([]SupplyChainFact, error) {
	candidates := b.priceCandidates(prices)
	switch {
	case len(parts) == 0:
		return nil, fmt.Errorf("supply chain: part information: %w", ErrEmptyDimension)
	case len(candidates) == 0:
		return nil, fmt.Errorf("supply chain: no dated material price among %d: %w", len(prices), ErrEmptyDimension)
	case len(machines) == 0:
		return nil, fmt.Errorf("supply chain: machine: %w", ErrEmptyDimension)
	}
	lastUpdate := b.stamp()

	stage := make([]produced, 0, len(events))
	badDamage := 0
	for _, ev := range events {
		d := decode.DateOf(decode.TimestampToDate(ev.TimeOfProduction))
		damaged, ok := parseDamaged(ev.Damaged)
		if !ok {
			badDamage++
		}
		stage = append(stage, produced{ev: ev, date: d, timeID: decode.TimeID(d), damaged: damaged})
	}

	withPart, noPart := InnerJoin(stage, parts,
		func(p produced) partMachineKey { return partMachineKey{p.ev.PartID, p.ev.MachineID} },
		func(pi PartInfo) partMachineKey { return partMachineKey{pi.PartID, pi.MachineID} },
		func(p produced, pi PartInfo) producedPart { return producedPart{produced: p, part: pi} },
	)

	withPrice, noPrice := InnerJoin(withPart, candidates,
		func(p producedPart) materialYearKey { return materialYearKey{p.part.MaterialID, p.date.Year()} },
		func(mp MaterialPrice) materialYearKey { return materialYearKey{mp.MaterialID, mp.Date.Year()} },
		func(p producedPart, mp MaterialPrice) producedPrice { return producedPrice{producedPart: p, price: mp} },
	)

	uniqueMachines := Distinct(machines, func(m Machine) int64 { return m.MachineID })
	facts, noMachine := InnerJoin(withPrice, uniqueMachines,
		func(p producedPrice) int64 { return p.ev.MachineID },
		func(m Machine) int64 { return m.MachineID },
		func(p producedPrice, m Machine) SupplyChainFact {
			return SupplyChainFact{
				MachineID:         m.MachineID,
				PartID:            p.ev.PartID,
				MaterialID:        p.part.MaterialID,
				TimeOfProduction:  p.date,
				MaterialPrice:     p.price.Price,
				TimeID:            p.timeID,
				MaterialPriceDate: p.price.Date,
				PartDefaultPrice:  p.part.DefaultPrice,
				IsDamaged:         p.damaged,
				LastUpdate:        lastUpdate,
			}
		},
	)

	b.drop("fact_supply_chain", "join_dropped", noPart+noPrice+noMachine)
	b.drop("fact_supply_chain", "decode_error", badDamage)
	b.log.Infof("fact_supply_chain: events=%d rows=%d no_part=%d no_price=%d no_machine=%d policy=%s",
		len(events), len(facts), noPart, noPrice, noMachine, b.opt.PricePolicy)
	return facts, nil
}

// priceCandidates returns the dated price points eligible for the year join.
// Under PriceLatest only the latest point per (material, year) survives; ties
// go to the highest id.
func (b *Builder) priceCandidates(prices []MaterialPrice) []MaterialPrice {
	dated := make([]MaterialPrice, 0, len(prices))
	for _, p := range prices {
		if p.HasDate {
			dated = append(dated, p)
		}
	}
	if b.opt.PricePolicy != PriceLatest {
		return dated
	}

	keys, groups := GroupBy(dated, func(p MaterialPrice) materialYearKey {
		return materialYearKey{p.MaterialID, p.Date.Year()}
	})
	out := make([]MaterialPrice, 0, len(keys))
	for _, k := range keys {
		best := groups[k][0]
		for _, p := range groups[k][1:] {
			if p.Date.After(best.Date) || (p.Date.Equal(best.Date) && p.ID > best.ID) {
				best = p
			}
		}
		out = append(out, best)
	}
	return out
}

// parseDamaged reads the damage flag of a machine file. An empty cell is
// NULL; an unrecognized value is NULL with ok false.
func parseDamaged(s string) (v *bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return &b, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		b := f != 0
		return &b, true
	}
	return nil, false
}
