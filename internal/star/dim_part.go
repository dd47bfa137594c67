package star

import (
	"fmt"
	"strings"

	"github.com/obenchekro/namkin-data-migration/internal/decode"
)

// BuildPartInformation decodes the material and machine lists of every part
// and explodes them into their full cartesian product. A part with either
// list empty or malformed contributes no rows; a part id outside the 16-bit
// range is dropped. A build that explodes to no rows fails with
// ErrEmptyDimension.
func (b *Builder) BuildPartInformation(raws []RawPart) ([]PartInfo, error) {
	if len(raws) == 0 {
		return nil, fmt.Errorf("part information: %w", ErrEmptyInput)
	}
	lastUpdate := b.stamp()

	var (
		out      []PartInfo
		empty    int
		overflow int
	)
	for _, p := range raws {
		if !fitsInt16(p.ID) {
			overflow++
			continue
		}
		materials := decode.StringToIntList(strings.ReplaceAll(p.Materials, "'", ""))
		machines := decode.StringToIntList(p.Machines)
		rows := CrossUnnest(materials, machines, func(material, machine int) PartInfo {
			return PartInfo{
				PartID:        p.ID,
				MaterialID:    int64(material),
				MachineID:     int64(machine),
				TimeToProduce: p.TimeToProduce,
				DefaultPrice:  p.DefaultPrice,
				LastUpdate:    lastUpdate,
			}
		})
		if len(rows) == 0 {
			empty++
			continue
		}
		out = append(out, rows...)
	}

	b.drop("dim_part_information", "explode_empty", empty)
	b.drop("dim_part_information", "narrow_overflow", overflow)
	if len(out) == 0 {
		return nil, fmt.Errorf("part information: %w: none of %d parts has both a material and a machine list",
			ErrEmptyDimension, len(raws))
	}
	b.log.Infof("dim_part_information: parts=%d exploded=%d", len(raws), len(out))
	return out, nil
}

// BuildParts projects dim_part_information as written: one row per raw part.
func (b *Builder) BuildParts(raws []RawPart) []PartRow {
	lastUpdate := b.stamp()
	out := make([]PartRow, 0, len(raws))
	overflow := 0
	for _, p := range raws {
		if !fitsInt16(p.ID) {
			overflow++
			continue
		}
		out = append(out, PartRow{PartID: p.ID, TimeToProduce: p.TimeToProduce, LastUpdate: lastUpdate})
	}
	b.drop("dim_part_information", "narrow_overflow", overflow)
	return out
}

// partPrice is the distinct (part, default price) projection used for
// costing. Joining the exploded dimension directly would count every
// material and machine combination of a part.
type partPrice struct {
	PartID       int64
	DefaultPrice float64
}

func distinctPartPrices(parts []PartInfo) []partPrice {
	pp := make([]partPrice, 0, len(parts))
	for _, p := range parts {
		pp = append(pp, partPrice{PartID: p.PartID, DefaultPrice: p.DefaultPrice})
	}
	return Distinct(pp, func(p partPrice) partPrice { return p })
}
