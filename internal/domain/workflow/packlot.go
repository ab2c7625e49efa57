package workflow

import "sync"

// PackLotStatus is the lifecycle status of a finished pack lot
type PackLotStatus string

const (
	PackLotPlanned      PackLotStatus = "Planned"
	PackLotFilling      PackLotStatus = "Filling"
	PackLotFilled       PackLotStatus = "Filled"
	PackLotLyophilizing PackLotStatus = "Lyophilizing"
	PackLotPacked       PackLotStatus = "Packed"
	PackLotQCPending    PackLotStatus = "QC_Pending"
	PackLotQCCompleted  PackLotStatus = "QC_Completed"
	PackLotQAPending    PackLotStatus = "QA_Pending"
	PackLotReleased     PackLotStatus = "Released"
	PackLotShipped      PackLotStatus = "Shipped"
	PackLotRejected     PackLotStatus = "Rejected"
)

// MsgLyophilizationRequired is returned when a lot that must be freeze-dried skips lyophilization
const MsgLyophilizationRequired = "lyophilization required before packing"

var packLotStatuses = []PackLotStatus{
	PackLotPlanned,
	PackLotFilling,
	PackLotFilled,
	PackLotLyophilizing,
	PackLotPacked,
	PackLotQCPending,
	PackLotQCCompleted,
	PackLotQAPending,
	PackLotReleased,
	PackLotShipped,
	PackLotRejected,
}

// PackLotStatuses returns the full pack lot enumeration
func PackLotStatuses() []PackLotStatus {
	out := make([]PackLotStatus, len(packLotStatuses))
	copy(out, packLotStatuses)
	return out
}

// Valid returns true if the status is part of the pack lot enumeration
func (s PackLotStatus) Valid() bool {
	for _, known := range packLotStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the status
func (s PackLotStatus) String() string {
	return string(s)
}

var directPackingGuard = Guard{
	Evidence: EvidenceLyophilization,
	Message:  MsgLyophilizationRequired,
	Check: func(ev Evidence) bool {
		l, ok := ev.(Lyophilization)
		return !ok || !l.Required
	},
}

func buildPackLotTable() *Table[PackLotStatus] {
	b := NewTableBuilder[PackLotStatus]()

	b.Configure(PackLotPlanned).
		Permit(PackLotFilling)

	b.Configure(PackLotFilling).
		Permit(PackLotFilled)

	b.Configure(PackLotFilled).
		Permit(PackLotLyophilizing).
		PermitIf(PackLotPacked, directPackingGuard)

	b.Configure(PackLotLyophilizing).
		Permit(PackLotPacked)

	b.Configure(PackLotPacked).
		Permit(PackLotQCPending)

	b.Configure(PackLotQCPending).
		Permit(PackLotQCCompleted)

	b.Configure(PackLotQCCompleted).
		Permit(PackLotQAPending)

	b.Configure(PackLotQAPending).
		Permit(PackLotReleased).
		Permit(PackLotRejected)

	b.Configure(PackLotReleased).
		Permit(PackLotShipped)

	// Terminal
	b.Configure(PackLotShipped)
	b.Configure(PackLotRejected)

	return b.Build()
}

var packLotTable = sync.OnceValue(buildPackLotTable)

// PackLotTable returns the process-wide default pack lot transition table
func PackLotTable() *Table[PackLotStatus] {
	return packLotTable()
}

var packLotInfo = map[PackLotStatus]StatusInfo{
	PackLotPlanned:      {Label: "Planned", Color: "slate"},
	PackLotFilling:      {Label: "Filling", Color: "blue"},
	PackLotFilled:       {Label: "Filled", Color: "indigo"},
	PackLotLyophilizing: {Label: "Lyophilizing", Color: "purple"},
	PackLotPacked:       {Label: "Packed", Color: "teal"},
	PackLotQCPending:    {Label: "QC Pending", Color: "yellow"},
	PackLotQCCompleted:  {Label: "QC Completed", Color: "cyan"},
	PackLotQAPending:    {Label: "QA Pending", Color: "amber"},
	PackLotReleased:     {Label: "Released", Color: "green"},
	PackLotShipped:      {Label: "Shipped", Color: "emerald"},
	PackLotRejected:     {Label: "Rejected", Color: "red"},
}

// DefaultPackLotConfig returns the engine configuration for pack lots
func DefaultPackLotConfig() EngineConfig[PackLotStatus] {
	return EngineConfig[PackLotStatus]{
		Table: PackLotTable(),
		Info:  packLotInfo,
		Stages: []PackLotStatus{
			PackLotPlanned,
			PackLotFilling,
			PackLotFilled,
			PackLotLyophilizing,
			PackLotPacked,
			PackLotQCPending,
			PackLotQCCompleted,
			PackLotQAPending,
			PackLotReleased,
			PackLotShipped,
		},
		Completed: []PackLotStatus{PackLotReleased, PackLotShipped, PackLotRejected},
	}
}

// NewPackLotEngine creates an engine over the default pack lot configuration
func NewPackLotEngine() *Engine[PackLotStatus] {
	return mustEngine(DefaultPackLotConfig())
}
