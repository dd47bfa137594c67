package star

// BuildContracts derives dim_contract as the distinct
// (contract, client, lastUpdate) triples of the sales fact.
func (b *Builder) BuildContracts(sales []Sale) []Contract {
	cs := make([]Contract, 0, len(sales))
	for _, s := range sales {
		cs = append(cs, Contract{ContractID: s.ContractID, ClientName: s.ClientName, LastUpdate: s.LastUpdate})
	}
	cs = Distinct(cs, func(c Contract) Contract { return c })
	b.log.Infof("dim_contract: contracts=%d", len(cs))
	return cs
}
