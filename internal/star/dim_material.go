package star

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/obenchekro/namkin-data-migration/internal/decode"
)

// pricePoint is one element of a material's serialized price history.
type pricePoint struct {
	Price *float64 `json:"price"`
	D     *string  `json:"d"`
}

// BuildMaterialPrices explodes every material's price history into one row
// per price point. Ids are assigned from a run-local counter; the source id
// is kept as MaterialID. A material whose history does not decode
// contributes no rows; if no material decodes, the build fails with
// ErrEmptyDimension.
func (b *Builder) BuildMaterialPrices(raws []RawMaterial) ([]MaterialPrice, error) {
	if len(raws) == 0 {
		return nil, fmt.Errorf("material prices: %w", ErrEmptyInput)
	}
	lastUpdate := b.stamp()

	var (
		out       []MaterialPrice
		nextID    int64
		badJSON   int
		badPoint  int
		badDate   int
		noHistory int
	)
	for _, m := range raws {
		var points []pricePoint
		if err := json.Unmarshal([]byte(m.Prices), &points); err != nil {
			badJSON++
			continue
		}
		if len(points) == 0 {
			noHistory++
			continue
		}
		for _, p := range points {
			if p.Price == nil {
				badPoint++
				continue
			}
			row := MaterialPrice{
				ID:         nextID,
				MaterialID: m.ID,
				Name:       m.Name,
				Price:      *p.Price,
				LastUpdate: lastUpdate,
			}
			nextID++
			if p.D != nil {
				row.Date, row.HasDate = decode.ParseDate(*p.D, b.opt.PriceDateLayout)
			}
			if !row.HasDate {
				badDate++
			}
			out = append(out, row)
		}
	}

	b.drop("dim_material_price", "price_decode_error", badJSON+badPoint)
	b.drop("dim_material_price", "price_history_empty", noHistory)
	if badDate > 0 {
		b.log.Warnf("dim_material_price: undated_price_points=%d", badDate)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("material prices: %w: none of %d materials has a decodable price history",
			ErrEmptyDimension, len(raws))
	}
	b.log.Infof("dim_material_price: materials=%d price_points=%d", len(raws), len(out))
	return out, nil
}

// BuildMaterials projects dim_material: one row per material with its id
// narrowed to 16 bits.
func (b *Builder) BuildMaterials(raws []RawMaterial) []MaterialRow {
	lastUpdate := b.stamp()
	out := make([]MaterialRow, 0, len(raws))
	overflow := 0
	for _, m := range raws {
		if !fitsInt16(m.ID) {
			overflow++
			continue
		}
		out = append(out, MaterialRow{MaterialID: m.ID, Name: m.Name, LastUpdate: lastUpdate})
	}
	b.drop("dim_material", "narrow_overflow", overflow)
	return out
}

func fitsInt16(v int64) bool { return v >= math.MinInt16 && v <= math.MaxInt16 }
