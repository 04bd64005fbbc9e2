package gpi

// NativeHandle is an opaque reference owned by one backend. The object model
// only compares native handles for identity.
type NativeHandle any

// Token is a native callback registration.
type Token any

// Category selects which family of objects a by-name query searches.
type Category int

const (
	CategoryRegion Category = iota + 1
	CategorySignal
	CategoryVariable
)

func (c Category) String() string {
	switch c {
	case CategoryRegion:
		return "region"
	case CategorySignal:
		return "signal"
	case CategoryVariable:
		return "variable"
	}
	return "none"
}

// Relation names a one-to-many relation a scope may expose.
type Relation int

const (
	RelRegions Relation = iota + 1
	RelNets
	RelNetArrays
	RelRegs
	RelRegArrays
	RelMemories
	RelVariables
	RelSignals
	RelConstants
	RelParameters
	RelMembers
	RelSubElements
	RelPorts
	RelProcesses
	RelNamedEvents
	RelDrivers
	RelLoads
)

var relationNames = map[Relation]string{
	RelRegions:     "regions",
	RelNets:        "nets",
	RelNetArrays:   "net_arrays",
	RelRegs:        "regs",
	RelRegArrays:   "reg_arrays",
	RelMemories:    "memories",
	RelVariables:   "variables",
	RelSignals:     "signals",
	RelConstants:   "constants",
	RelParameters:  "parameters",
	RelMembers:     "members",
	RelSubElements: "sub_elements",
	RelPorts:       "ports",
	RelProcesses:   "processes",
	RelNamedEvents: "named_events",
	RelDrivers:     "drivers",
	RelLoads:       "loads",
}

func (r Relation) String() string {
	if n, ok := relationNames[r]; ok {
		return n
	}
	return "unknown"
}

// GenerateRole marks how an object takes part in a generate loop.
type GenerateRole int

const (
	GenNone GenerateRole = iota
	// GenLoop is the loop construct itself (an array of instances).
	GenLoop
	// GenInstance is one elaborated instance, named with a trailing index.
	GenInstance
)

// Range is one index dimension as declared.
type Range struct {
	Left  int
	Right int
}

// Len returns the number of elements, independent of direction.
func (r Range) Len() int {
	if r.Left > r.Right {
		return r.Left - r.Right + 1
	}
	return r.Right - r.Left + 1
}

// Ascending reports whether indices grow from left to right.
func (r Range) Ascending() bool {
	return r.Left <= r.Right
}

// Object is what a backend reports about one native handle.
type Object struct {
	Category Category
	Type     TypeDesc
	Const    bool

	// Ranges lists index dimensions, outermost first.
	Ranges []Range

	Generate GenerateRole

	// Tag is the backend's type tag name, used in logs.
	Tag string
}

// NameStyle describes how a backend spells hierarchical names.
type NameStyle struct {
	Separator       string
	StructSeparator string
	// Leading makes full names start with Separator.
	Leading       bool
	IndexOpen     string
	IndexClose    string
	GenIndexOpen  string
	GenIndexClose string
	// GroupPseudo collapses consecutive pseudo dimensions into one bracket
	// group separated by commas.
	GroupPseudo bool
	// FoldCase makes identifier comparisons case-insensitive.
	FoldCase bool
}

// Quirks are backend behaviours the callback registry must work around.
type Quirks struct {
	// UncancellableTimers means a scheduled after-delay callback cannot be
	// removed; deregistration is honoured when it next fires.
	UncancellableTimers bool
}

// Reason is the simulation event a callback waits for.
type Reason int

const (
	ReasonValueChange Reason = iota + 1
	ReasonReadOnly
	ReasonReadWrite
	ReasonNextTime
	ReasonAfterDelay
	ReasonStartOfSim
	ReasonEndOfSim
)

var reasonNames = [...]string{
	ReasonValueChange: "value_change",
	ReasonReadOnly:    "read_only",
	ReasonReadWrite:   "read_write",
	ReasonNextTime:    "next_time",
	ReasonAfterDelay:  "after_delay",
	ReasonStartOfSim:  "start_of_sim",
	ReasonEndOfSim:    "end_of_sim",
}

func (r Reason) String() string {
	if r <= 0 || int(r) >= len(reasonNames) {
		return "unknown"
	}
	return reasonNames[r]
}

// CallbackRequest asks a backend for one native registration. Data must be
// passed back unchanged to Dispatcher.Dispatch when the kernel fires.
type CallbackRequest struct {
	Reason Reason
	Delay  uint64
	Target NativeHandle
	Data   any
}

// Dispatcher receives kernel re-entries.
type Dispatcher interface {
	Dispatch(data any)
}

// Enumeration is a single-pass native enumeration.
type Enumeration interface {
	Next() (NativeHandle, bool)
}

// Navigator exposes the native object hierarchy.
type Navigator interface {
	Roots() []NativeHandle
	HandleName(h NativeHandle) (string, bool)
	FullName(h NativeHandle) string
	Describe(h NativeHandle) (Object, bool)
	FindByName(fq string, cat Category) (NativeHandle, bool)
	SubElement(h NativeHandle, offset int) (NativeHandle, bool)
	// Relations lists the relations to try for a scope, in priority order.
	Relations(h NativeHandle) []Relation
	// Enumerate returns nil when the relation yields nothing.
	Enumerate(h NativeHandle, rel Relation) Enumeration
}

// Scheduler registers callbacks with the simulation kernel.
type Scheduler interface {
	Bind(d Dispatcher)
	Register(req CallbackRequest) (Token, error)
	Remove(tok Token) error
	Finish()
	SimTime() (high, low uint32)
	Precision() int
}

// ValueAccess reads and deposits object values.
type ValueAccess interface {
	BinStr(h NativeHandle) (string, error)
	Int(h NativeHandle) (int64, error)
	Real(h NativeHandle) (float64, error)
	Str(h NativeHandle) (string, error)
	SetBinStr(h NativeHandle, v string) error
	SetInt(h NativeHandle, v int64) error
	SetReal(h NativeHandle, v float64) error
	SetStr(h NativeHandle, v string) error
}

// Native is the query interface implemented once per vendor API.
type Native interface {
	Navigator
	Scheduler
	ValueAccess

	Name() string
	Style() NameStyle
	Quirks() Quirks
}
