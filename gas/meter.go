package gas

import "suireplay/replayerr"

// ComputationMeter tracks instruction-level and native-call gas
// consumption against a budget, with an unmetered mode for system
// transactions (spec.md §4.5 "Computation meter").
type ComputationMeter struct {
	budget    uint64
	consumed  uint64
	unmetered bool
}

func NewComputationMeter(budget uint64) *ComputationMeter {
	return &ComputationMeter{budget: budget}
}

// NewUnmeteredComputationMeter creates a meter with charging disabled,
// for system transactions exempt from gas accounting.
func NewUnmeteredComputationMeter() *ComputationMeter {
	return &ComputationMeter{unmetered: true}
}

func (m *ComputationMeter) IsMetered() bool { return !m.unmetered }

// Charge adds units to the consumed total, returning an out-of-gas error
// if the budget would be exceeded. Unmetered meters never error.
func (m *ComputationMeter) Charge(units uint64) error {
	if m.unmetered {
		return nil
	}
	if m.consumed+units > m.budget {
		return &replayerr.InternalError{
			Ctx:   replayerr.Context{Component: "gas", Operation: "charge"},
			Cause: errOutOfGas{budget: m.budget, requested: m.consumed + units},
		}
	}
	m.consumed += units
	return nil
}

func (m *ComputationMeter) Consumed() uint64 { return m.consumed }
func (m *ComputationMeter) Remaining() uint64 {
	if m.unmetered || m.consumed >= m.budget {
		if m.unmetered {
			return m.budget
		}
		return 0
	}
	return m.budget - m.consumed
}

type errOutOfGas struct {
	budget    uint64
	requested uint64
}

func (e errOutOfGas) Error() string {
	return "gas: out of gas"
}
