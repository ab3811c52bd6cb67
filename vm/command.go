package vm

import (
	"fmt"

	"suireplay/types"
)

// CommandResult holds the raw BCS-encoded return values one executed
// command produced, addressed by Result{i}/NestedResult{i,j} arguments
// from later commands.
type CommandResult struct {
	ReturnValues [][]byte
}

// ValidateCommandGraph checks every argument reference in commands
// against inputs and the commands executed so far, per spec.md §4.5 step
// 1: Input indices in bounds, Result indices strictly earlier, and
// NestedResult indices within the referenced command's return count.
//
// Because a command's return-value count isn't known until it would run
// (it depends on the Move function signature or native being invoked),
// this validates Input/Result bounds structurally up front and defers
// NestedResult's count check to execution time via validateNestedResultCount.
func ValidateCommandGraph(inputs []types.TransactionInput, commands []types.PtbCommand) error {
	for ci, cmd := range commands {
		for _, arg := range commandArguments(cmd) {
			if err := validateArgumentBounds(arg, len(inputs), ci); err != nil {
				return fmt.Errorf("command %d: %w", ci, err)
			}
		}
	}
	return nil
}

func validateArgumentBounds(arg types.PtbArgument, numInputs, commandIndex int) error {
	switch arg.Kind {
	case types.ArgInput:
		if int(arg.InputIndex) >= numInputs {
			return fmt.Errorf("input index %d out of bounds (have %d inputs)", arg.InputIndex, numInputs)
		}
	case types.ArgResult, types.ArgNestedResult:
		if int(arg.ResultIndex) >= commandIndex {
			return fmt.Errorf("result index %d does not reference a strictly earlier command (%d)", arg.ResultIndex, commandIndex)
		}
	}
	return nil
}

// validateNestedResultCount checks a NestedResult argument's index j
// against the actual return count of the command it references, known
// only once that command has executed (spec.md §4.5 step 1's
// "NestedResult{i, j} must reference a command returning ≥ j+1 values").
func validateNestedResultCount(arg types.PtbArgument, results []CommandResult) error {
	if arg.Kind != types.ArgNestedResult {
		return nil
	}
	ref := results[arg.ResultIndex]
	if int(arg.NestedIndex)+1 > len(ref.ReturnValues) {
		return fmt.Errorf("nested result {%d,%d} exceeds command %d's %d return values",
			arg.ResultIndex, arg.NestedIndex, arg.ResultIndex, len(ref.ReturnValues))
	}
	return nil
}

func commandArguments(cmd types.PtbCommand) []types.PtbArgument {
	switch cmd.Kind {
	case types.CmdMoveCall:
		return cmd.Arguments
	case types.CmdTransferObjects:
		args := append([]types.PtbArgument{}, cmd.Objects...)
		return append(args, cmd.Address)
	case types.CmdSplitCoins:
		args := []types.PtbArgument{cmd.Coin}
		return append(args, cmd.Amounts...)
	case types.CmdMergeCoins:
		args := []types.PtbArgument{cmd.Destination}
		return append(args, cmd.Sources...)
	case types.CmdMakeMoveVec:
		return cmd.Elements
	case types.CmdUpgrade:
		return []types.PtbArgument{cmd.Ticket}
	default:
		return nil
	}
}

// ResolveArgument resolves one PTB argument to raw BCS bytes, given the
// already-decoded inputs, the hydrated object store, the gas coin's
// current bytes, and the results of prior commands (spec.md §4.5 step 2:
// "object inputs are loaded by id+version from the harness store").
func ResolveArgument(arg types.PtbArgument, inputs []types.TransactionInput, objects map[types.ObjectID]types.VersionedObject, gasCoin []byte, results []CommandResult) ([]byte, error) {
	switch arg.Kind {
	case types.ArgGasCoin:
		return gasCoin, nil
	case types.ArgInput:
		in := inputs[arg.InputIndex]
		if in.Kind == types.InputPure {
			return in.PureBytes, nil
		}
		id, ok := in.ReferencedObjectID()
		if !ok {
			return nil, fmt.Errorf("input %d has kind %v but no referenced object id", arg.InputIndex, in.Kind)
		}
		obj, ok := objects[id]
		if !ok {
			return nil, fmt.Errorf("input %d references object %s not present in the harness store", arg.InputIndex, id.Hex())
		}
		return obj.BcsBytes, nil
	case types.ArgResult:
		ref := results[arg.ResultIndex]
		if len(ref.ReturnValues) == 0 {
			return nil, fmt.Errorf("result {%d} has no return values", arg.ResultIndex)
		}
		return ref.ReturnValues[0], nil
	case types.ArgNestedResult:
		if err := validateNestedResultCount(arg, results); err != nil {
			return nil, err
		}
		return results[arg.ResultIndex].ReturnValues[arg.NestedIndex], nil
	default:
		return nil, fmt.Errorf("unknown argument kind %v", arg.Kind)
	}
}
