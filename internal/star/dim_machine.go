package star

import "sort"

// BuildMachines derives dim_machine from the exploded part dimension: the
// distinct (machine, lastUpdate) pairs ordered by machine id. Every machine
// referenced by a part therefore has a dimension row.
func (b *Builder) BuildMachines(parts []PartInfo) []Machine {
	ms := make([]Machine, 0, len(parts))
	for _, p := range parts {
		ms = append(ms, Machine{MachineID: p.MachineID, LastUpdate: p.LastUpdate})
	}
	ms = Distinct(ms, func(m Machine) Machine { return m })
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].MachineID != ms[j].MachineID {
			return ms[i].MachineID < ms[j].MachineID
		}
		return ms[i].LastUpdate < ms[j].LastUpdate
	})
	b.log.Infof("dim_machine: machines=%d", len(ms))
	return ms
}
