package types

// TransactionInputKind discriminates the TransactionInput tagged union.
type TransactionInputKind int

const (
	InputPure TransactionInputKind = iota
	InputObject
	InputSharedObject
	InputReceiving
)

// TransactionInput is one entry of a PTB's shared input pool. Exactly one
// of the kind-specific fields is meaningful, selected by Kind.
type TransactionInput struct {
	Kind TransactionInputKind

	// Pure
	PureBytes []byte

	// Object / Receiving
	ObjectID ObjectID
	Version  ObjectVersion
	Digest   ObjectDigest

	// SharedObject
	InitialSharedVersion ObjectVersion
	Mutable              bool
}

// ReferencedObjectID returns the object id this input refers to, if any.
func (in TransactionInput) ReferencedObjectID() (ObjectID, bool) {
	switch in.Kind {
	case InputObject, InputSharedObject, InputReceiving:
		return in.ObjectID, true
	default:
		return ObjectID{}, false
	}
}

// PtbArgumentKind discriminates the PtbArgument tagged union.
type PtbArgumentKind int

const (
	ArgGasCoin PtbArgumentKind = iota
	ArgInput
	ArgResult
	ArgNestedResult
)

// PtbArgument references a value available to a command: the gas coin,
// a transaction input, or a prior command's result.
type PtbArgument struct {
	Kind        PtbArgumentKind
	InputIndex  int // ArgInput
	ResultIndex int // ArgResult, ArgNestedResult
	NestedIndex int // ArgNestedResult
}

// PtbCommandKind discriminates the PtbCommand tagged union.
type PtbCommandKind int

const (
	CmdMoveCall PtbCommandKind = iota
	CmdTransferObjects
	CmdSplitCoins
	CmdMergeCoins
	CmdMakeMoveVec
	CmdPublish
	CmdUpgrade
)

// PtbCommand is one command of a Programmable Transaction Block. Exactly
// one group of kind-specific fields is meaningful, selected by Kind.
type PtbCommand struct {
	Kind PtbCommandKind

	// MoveCall
	Package       AccountAddress
	Module        string
	Function      string
	TypeArguments []string
	Arguments     []PtbArgument

	// TransferObjects
	Objects []PtbArgument
	Address PtbArgument

	// SplitCoins
	Coin    PtbArgument
	Amounts []PtbArgument

	// MergeCoins
	Destination PtbArgument
	Sources     []PtbArgument

	// MakeMoveVec
	TypeArg  *string
	Elements []PtbArgument

	// Publish / Upgrade
	Modules      [][]byte
	Dependencies []AccountAddress
	UpgradePkg   AccountAddress
	Ticket       PtbArgument
}

// FetchedTransaction is the transaction plus its PTB as fetched from an
// upstream source, before a ReplayState has been assembled around it.
type FetchedTransaction struct {
	Digest       TransactionDigest
	Sender       AccountAddress
	GasBudget    uint64
	GasPrice     uint64
	Commands     []PtbCommand
	Inputs       []TransactionInput
	Effects      *TransactionEffects
	TimestampMs  *uint64
	Checkpoint   *uint64
}
