// Package star builds the Namkin production warehouse: dimension and fact
// relations derived from raw part, material and machine-event inputs.
//
// Builders are pure functions of their inputs plus an injected clock and
// random source. They never read the environment or touch storage; the
// pipeline package sequences them and hands the projected tables to a sink.
package star

import "time"

// RawPart is one row of the "Part Information" sheet. Materials and Machines
// hold serialized integer lists such as "['1','2']".
type RawPart struct {
	ID            int64
	Materials     string
	Machines      string
	TimeToProduce float64
	DefaultPrice  float64
}

// RawMaterial is one row of the "Material" sheet. Prices is a JSON array of
// {"price": <number>, "d": "MM-DD-YYYY"} objects.
type RawMaterial struct {
	ID     int64
	Name   string
	Prices string
}

// SupplyChainEvent is one production event read from the machine files.
type SupplyChainEvent struct {
	Order            int64
	PartID           int64
	MachineID        int64
	TimeOfProduction int64 // epoch millis
	Damaged          string
	Extra            map[string]string
}

// PartInfo is the exploded part dimension: one row per
// (part, material, machine) combination.
type PartInfo struct {
	PartID        int64
	MaterialID    int64
	MachineID     int64
	TimeToProduce float64
	DefaultPrice  float64
	LastUpdate    string
}

// MaterialPrice is one price point of one material.
type MaterialPrice struct {
	ID         int64
	MaterialID int64
	Name       string
	Price      float64
	Date       time.Time
	HasDate    bool
	LastUpdate string
}

// Machine is a row of dim_machine.
type Machine struct {
	MachineID  int64
	LastUpdate string
}

// TimeRow is a row of dim_time.
type TimeRow struct {
	TimeID   int
	Date     time.Time
	Year     int
	Month    int
	Day      int
	Semester int
	Quarter  int
}

// Contract is a row of dim_contract.
type Contract struct {
	ContractID int64
	ClientName string
	LastUpdate string
}

// Sale is one (order, part) row of fact_sales before projection.
type Sale struct {
	ContractID int64
	PartID     int64
	ClientName string
	Cash       float64
	Date       time.Time
	LastUpdate string
}

// SupplyChainFact is a row of fact_supply_chain.
type SupplyChainFact struct {
	MachineID         int64
	PartID            int64
	MaterialID        int64
	TimeOfProduction  time.Time
	MaterialPrice     float64
	TimeID            int
	MaterialPriceDate time.Time
	PartDefaultPrice  float64
	IsDamaged         *bool
	LastUpdate        string
}

// MaterialRow is the written projection of dim_material.
type MaterialRow struct {
	MaterialID int64
	Name       string
	LastUpdate string
}

// PartRow is the written projection of dim_part_information.
type PartRow struct {
	PartID        int64
	TimeToProduce float64
	LastUpdate    string
}
