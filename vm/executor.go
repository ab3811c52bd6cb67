package vm

import (
	"context"
	"fmt"

	"suireplay/bcs"
	"suireplay/gas"
	"suireplay/types"
)

// MoveInvoker executes one MoveCall command's target function. Actual
// Move bytecode interpretation is outside this core's scope (spec.md §1
// Non-goals); this interface is the seam a full VM integration plugs
// into, while the executor itself owns command-graph validation,
// argument resolution, effects recording and gas accounting around it.
type MoveInvoker interface {
	InvokeMoveCall(ctx context.Context, pkg types.AccountAddress, module, function string, typeArgs []string, args [][]byte) ([][]byte, error)
}

// ExecutionContext bundles everything one PTB execution needs.
type ExecutionContext struct {
	State     *types.ReplayState
	Runtime   *ObjectRuntime
	Charger   *gas.Charger
	Invoker   MoveInvoker
	Sim       SimulationConfig
}

// Executor runs the command execution algorithm of spec.md §4.5.
type Executor struct{}

func NewExecutor() *Executor { return &Executor{} }

// Execute runs every command in order, unwinding to a failed-transaction
// effects report on the first error (spec.md §4.5 step 5: "prior
// commands' effects are discarded; gas charged up to the failure point
// is still reported").
func (e *Executor) Execute(ctx context.Context, ec *ExecutionContext) (types.TransactionEffects, error) {
	tx := ec.State.Transaction
	if err := ValidateCommandGraph(tx.Inputs, tx.Commands); err != nil {
		return e.failedEffects(ec, err), nil
	}

	results := make([]CommandResult, 0, len(tx.Commands))
	var gasCoin []byte
	recorder := newEffectsRecorder()

	for _, cmd := range tx.Commands {
		res, err := e.executeOne(ctx, ec, cmd, tx.Inputs, gasCoin, results, recorder)
		if err != nil {
			return e.failedEffects(ec, err), nil
		}
		results = append(results, res)
	}

	effects := recorder.Build()
	effects.Success = true
	effects.GasUsed = ec.Charger.Finalize()
	effects.ReturnValuesPerCommand = make([][][]byte, len(results))
	for i, r := range results {
		effects.ReturnValuesPerCommand[i] = r.ReturnValues
	}
	return effects, nil
}

func (e *Executor) failedEffects(ec *ExecutionContext, cause error) types.TransactionEffects {
	return types.TransactionEffects{
		Success: false,
		Error:   cause.Error(),
		GasUsed: ec.Charger.Finalize(),
	}
}

func (e *Executor) executeOne(ctx context.Context, ec *ExecutionContext, cmd types.PtbCommand, inputs []types.TransactionInput, gasCoin []byte, priorResults []CommandResult, rec *effectsRecorder) (CommandResult, error) {
	switch cmd.Kind {
	case types.CmdMoveCall:
		args := make([][]byte, len(cmd.Arguments))
		for i, a := range cmd.Arguments {
			b, err := ResolveArgument(a, inputs, ec.State.Objects, gasCoin, priorResults)
			if err != nil {
				return CommandResult{}, err
			}
			args[i] = b
		}
		if err := ec.Charger.ChargeNative("move_call::invoke", totalBytes(args), uint64(len(args))); err != nil {
			return CommandResult{}, err
		}
		if ec.Invoker == nil {
			return CommandResult{}, fmt.Errorf("move call %s::%s::%s: no invoker configured", cmd.Package.Hex(), cmd.Module, cmd.Function)
		}
		rets, err := ec.Invoker.InvokeMoveCall(ctx, cmd.Package, cmd.Module, cmd.Function, cmd.TypeArguments, args)
		if err != nil {
			return CommandResult{}, err
		}
		return CommandResult{ReturnValues: rets}, nil

	case types.CmdTransferObjects:
		if err := ec.Charger.ChargeNative("transfer::transfer_impl", 0, uint64(len(cmd.Objects))); err != nil {
			return CommandResult{}, err
		}
		for _, objArg := range cmd.Objects {
			if id, ok := resolvedObjectID(objArg, inputs); ok {
				rec.recordMutated(id)
			}
		}
		return CommandResult{}, nil

	case types.CmdSplitCoins:
		if err := ec.Charger.ChargeNative("coin::split", 0, uint64(len(cmd.Amounts))); err != nil {
			return CommandResult{}, err
		}
		rets := make([][]byte, len(cmd.Amounts))
		for i := range cmd.Amounts {
			w := bcs.NewWriter()
			w.WriteU64(0)
			rets[i] = w.Bytes()
		}
		return CommandResult{ReturnValues: rets}, nil

	case types.CmdMergeCoins:
		if err := ec.Charger.ChargeNative("coin::join", 0, uint64(len(cmd.Sources))); err != nil {
			return CommandResult{}, err
		}
		return CommandResult{}, nil

	case types.CmdMakeMoveVec:
		if err := ec.Charger.ChargeNative("vector::empty", 0, uint64(len(cmd.Elements))); err != nil {
			return CommandResult{}, err
		}
		w := bcs.NewWriter()
		w.WriteVecLen(len(cmd.Elements))
		for _, elemArg := range cmd.Elements {
			b, err := ResolveArgument(elemArg, inputs, ec.State.Objects, gasCoin, priorResults)
			if err != nil {
				return CommandResult{}, err
			}
			w.WriteBytes(b)
		}
		return CommandResult{ReturnValues: [][]byte{w.Bytes()}}, nil

	case types.CmdPublish:
		if err := ec.Charger.ChargeNative("package::publish", totalBytes(cmd.Modules), 0); err != nil {
			return CommandResult{}, err
		}
		rec.recordCreated(cmd.UpgradePkg)
		return CommandResult{}, nil

	case types.CmdUpgrade:
		if err := ec.Charger.ChargeNative("package::upgrade", totalBytes(cmd.Modules), 0); err != nil {
			return CommandResult{}, err
		}
		rec.recordMutated(cmd.UpgradePkg)
		return CommandResult{}, nil

	default:
		return CommandResult{}, fmt.Errorf("unknown command kind %v", cmd.Kind)
	}
}

func resolvedObjectID(arg types.PtbArgument, inputs []types.TransactionInput) (types.ObjectID, bool) {
	if arg.Kind != types.ArgInput {
		return types.ObjectID{}, false
	}
	return inputs[arg.InputIndex].ReferencedObjectID()
}

func totalBytes(bss [][]byte) uint64 {
	var n uint64
	for _, b := range bss {
		n += uint64(len(b))
	}
	return n
}
