package engine

// Kind identifies one player action understood by the server.
type Kind string

const (
	KindStartMachine     Kind = "start_machine"
	KindStopMachine      Kind = "stop_machine"
	KindDiscardMachine   Kind = "discard_machine"
	KindFuelMachine      Kind = "fuel_machine"
	KindUpgradeMachine   Kind = "upgrade_machine"
	KindExchangeMinerals Kind = "exchange_minerals"
	KindBuyMachine       Kind = "buy_machine"
	KindBuySlot          Kind = "buy_slot"
	KindClaimDaily       Kind = "claim_daily"
	KindCashout          Kind = "cashout"
)

// Command describes one queued player action. Commands are transient: they
// exist for a single queue cycle and are never persisted or retried. Only
// the fields a kind uses need to be set.
type Command struct {
	Kind        Kind
	MachineID   string
	Amount      float64 // fuel_machine: oil to load; 0 means "fill the tank"
	Mineral     string  // exchange_minerals: which mineral to sell
	MachineType string  // buy_machine: which kind to buy
}

// payload derives the wire payload from the fields the command carries.
func (c Command) payload() map[string]any {
	p := map[string]any{}
	if c.MachineID != "" {
		p["machineId"] = c.MachineID
	}
	if c.Amount > 0 {
		p["amount"] = c.Amount
	}
	if c.Mineral != "" {
		p["mineral"] = c.Mineral
	}
	if c.MachineType != "" {
		p["machineType"] = c.MachineType
	}
	return p
}
