package star

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/obenchekro/namkin-data-migration/internal/decode"
)

type orderPart struct{ order, part int64 }

type quantity struct {
	orderPart
	n int64
}

// BuildSales aggregates production events into fact_sales:
//
//   - quantity counts events per (order, part);
//   - cash is the order total of defaultPrice * quantity;
//   - the sale date is drawn uniformly from the latest production year of
//     the (order, part) pair.
//
// Each (order, part) row carries the whole order's cash. Orders with no
// priced part are dropped. Empty part information fails with
// ErrEmptyDimension.
func (b *Builder) BuildSales(events []SupplyChainEvent, parts []PartInfo) ([]Sale, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("sales: part information: %w", ErrEmptyDimension)
	}
	lastUpdate := b.stamp()

	keys, groups := GroupBy(events, func(e SupplyChainEvent) orderPart {
		return orderPart{e.Order, e.PartID}
	})
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].order != keys[j].order {
			return keys[i].order < keys[j].order
		}
		return keys[i].part < keys[j].part
	})

	quantities := make([]quantity, 0, len(keys))
	maxYear := make(map[orderPart]int, len(keys))
	for _, k := range keys {
		evs := groups[k]
		quantities = append(quantities, quantity{orderPart: k, n: int64(len(evs))})
		year := 0
		for _, e := range evs {
			if y := decode.TimestampToDate(e.TimeOfProduction).Year(); y > year {
				year = y
			}
		}
		maxYear[k] = year
	}

	type costLine struct {
		order  int64
		amount decimal.Decimal
	}
	lines, unpriced := InnerJoin(quantities, distinctPartPrices(parts),
		func(q quantity) int64 { return q.part },
		func(p partPrice) int64 { return p.PartID },
		func(q quantity, p partPrice) costLine {
			return costLine{
				order:  q.order,
				amount: decimal.NewFromFloat(p.DefaultPrice).Mul(decimal.NewFromInt(q.n)),
			}
		},
	)
	cash := make(map[int64]decimal.Decimal)
	for _, l := range lines {
		cash[l.order] = cash[l.order].Add(l.amount)
	}

	sales := make([]Sale, 0, len(keys))
	uncosted := 0
	for _, k := range keys {
		total, ok := cash[k.order]
		if !ok {
			uncosted++
			continue
		}
		sales = append(sales, Sale{
			ContractID: k.order,
			PartID:     k.part,
			ClientName: clientName(k.order),
			Cash:       total.Round(4).InexactFloat64(),
			Date:       decode.RandomDate(maxYear[k], b.opt.Rand),
			LastUpdate: lastUpdate,
		})
	}

	b.drop("fact_sales", "join_dropped", unpriced)
	b.drop("fact_sales", "sales_uncosted", uncosted)
	b.log.Infof("fact_sales: events=%d orders=%d rows=%d", len(events), len(cash), len(sales))
	return sales, nil
}

func clientName(order int64) string { return fmt.Sprintf("CLIENT NO_%d", order) }
