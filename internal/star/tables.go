package star

import (
	"fmt"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/obenchekro/namkin-data-migration/internal/ddl"
)

// Output table names, in write order.
const (
	TableMaterial        = "dim_material"
	TablePartInformation = "dim_part_information"
	TableMachine         = "dim_machine"
	TableContract        = "dim_contract"
	TableTime            = "dim_time"
	TableSales           = "fact_sales"
	TableSupplyChain     = "fact_supply_chain"
)

// TableNames lists every output table in write order.
var TableNames = []string{
	TableMaterial,
	TablePartInformation,
	TableMachine,
	TableContract,
	TableTime,
	TableSales,
	TableSupplyChain,
}

// Schemas holds the logical columns of every output table. dim_machine,
// dim_contract and dim_time are keyed by their id.
var Schemas = map[string][]ddl.Column{
	TableMaterial: {
		{Name: "materialId", Kind: ddl.KindSmallInt},
		{Name: "name", Kind: ddl.KindString, Nullable: true},
		{Name: "lastUpdate", Kind: ddl.KindString},
	},
	TablePartInformation: {
		{Name: "partId", Kind: ddl.KindSmallInt},
		{Name: "timeToProduce", Kind: ddl.KindFloat, Nullable: true},
		{Name: "lastUpdate", Kind: ddl.KindString},
	},
	TableMachine: {
		{Name: "machineId", Kind: ddl.KindInt, PrimaryKey: true},
		{Name: "lastUpdate", Kind: ddl.KindString},
	},
	TableContract: {
		{Name: "contractId", Kind: ddl.KindInt, PrimaryKey: true},
		{Name: "clientName", Kind: ddl.KindString},
		{Name: "lastUpdate", Kind: ddl.KindString},
	},
	TableTime: {
		{Name: "timeId", Kind: ddl.KindInt, PrimaryKey: true},
		{Name: "date", Kind: ddl.KindDate},
		{Name: "year", Kind: ddl.KindInt},
		{Name: "month", Kind: ddl.KindInt},
		{Name: "day", Kind: ddl.KindInt},
		{Name: "semester", Kind: ddl.KindInt},
		{Name: "quarter", Kind: ddl.KindInt},
	},
	TableSales: {
		{Name: "partId", Kind: ddl.KindInt},
		{Name: "contractId", Kind: ddl.KindInt},
		{Name: "cash", Kind: ddl.KindFloat},
		{Name: "date", Kind: ddl.KindDate},
		{Name: "lastUpdate", Kind: ddl.KindString},
	},
	TableSupplyChain: {
		{Name: "machineId", Kind: ddl.KindInt},
		{Name: "partId", Kind: ddl.KindInt},
		{Name: "materialId", Kind: ddl.KindInt},
		{Name: "timeOfProduction", Kind: ddl.KindDate},
		{Name: "materialPrice", Kind: ddl.KindFloat},
		{Name: "timeId", Kind: ddl.KindInt},
		{Name: "materialPriceDate", Kind: ddl.KindDate},
		{Name: "partDefaultPrice", Kind: ddl.KindFloat},
		{Name: "isDamaged", Kind: ddl.KindBool, Nullable: true},
		{Name: "lastUpdate", Kind: ddl.KindString},
	},
}

// Table is a named relation ready for a sink: rows are aligned to Columns.
type Table struct {
	Name    string
	Columns []ddl.Column
	Rows    [][]any
}

func newTable(name string, n int) Table {
	return Table{Name: name, Columns: Schemas[name], Rows: make([][]any, 0, n)}
}

// Fingerprint hashes the table's rows in order. Two builds over the same
// inputs produce the same value.
func (t Table) Fingerprint() uint64 {
	h := xxh3.New()
	var buf []byte
	for _, row := range t.Rows {
		for _, v := range row {
			buf = appendCell(buf[:0], v)
			buf = append(buf, 0x1f)
			_, _ = h.Write(buf)
		}
		_, _ = h.Write([]byte{0x1e})
	}
	return h.Sum64()
}

func appendCell(b []byte, v any) []byte {
	switch t := v.(type) {
	case nil:
		return append(b, 0x00)
	case string:
		return append(b, t...)
	case int:
		return strconv.AppendInt(b, int64(t), 10)
	case int16:
		return strconv.AppendInt(b, int64(t), 10)
	case int64:
		return strconv.AppendInt(b, t, 10)
	case float64:
		return strconv.AppendFloat(b, t, 'g', -1, 64)
	case bool:
		return strconv.AppendBool(b, t)
	case time.Time:
		return t.AppendFormat(b, time.RFC3339Nano)
	default:
		return fmt.Append(b, t)
	}
}

// MaterialTable projects dim_material.
func MaterialTable(rows []MaterialRow) Table {
	t := newTable(TableMaterial, len(rows))
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{int16(r.MaterialID), nullString(r.Name), r.LastUpdate})
	}
	return t
}

// PartTable projects dim_part_information.
func PartTable(rows []PartRow) Table {
	t := newTable(TablePartInformation, len(rows))
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{int16(r.PartID), r.TimeToProduce, r.LastUpdate})
	}
	return t
}

// MachineTable projects dim_machine.
func MachineTable(rows []Machine) Table {
	t := newTable(TableMachine, len(rows))
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.MachineID, r.LastUpdate})
	}
	return t
}

// ContractTable projects dim_contract.
func ContractTable(rows []Contract) Table {
	t := newTable(TableContract, len(rows))
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.ContractID, r.ClientName, r.LastUpdate})
	}
	return t
}

// TimeTable projects dim_time.
func TimeTable(rows []TimeRow) Table {
	t := newTable(TableTime, len(rows))
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			int64(r.TimeID), r.Date, int64(r.Year), int64(r.Month), int64(r.Day), int64(r.Semester), int64(r.Quarter),
		})
	}
	return t
}

// SalesTable projects fact_sales.
func SalesTable(rows []Sale) Table {
	t := newTable(TableSales, len(rows))
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.PartID, r.ContractID, r.Cash, r.Date, r.LastUpdate})
	}
	return t
}

// SupplyChainTable projects fact_supply_chain.
func SupplyChainTable(rows []SupplyChainFact) Table {
	t := newTable(TableSupplyChain, len(rows))
	for _, r := range rows {
		var damaged any
		if r.IsDamaged != nil {
			damaged = *r.IsDamaged
		}
		t.Rows = append(t.Rows, []any{
			r.MachineID,
			r.PartID,
			r.MaterialID,
			r.TimeOfProduction,
			r.MaterialPrice,
			int64(r.TimeID),
			r.MaterialPriceDate,
			r.PartDefaultPrice,
			damaged,
			r.LastUpdate,
		})
	}
	return t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
