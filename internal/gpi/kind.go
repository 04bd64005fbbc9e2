package gpi

// Kind is the portable semantic type of a simulator object.
//
// Kind is derived once when a handle is created and never changes.
type Kind int

const (
	KindUnknown Kind = iota
	KindModule
	KindStructure
	KindRegister
	KindInteger
	KindReal
	KindEnum
	KindString
	KindArray
	KindGenArray
	KindParameter
)

var kindNames = [...]string{
	KindUnknown:   "unknown",
	KindModule:    "module",
	KindStructure: "structure",
	KindRegister:  "register",
	KindInteger:   "integer",
	KindReal:      "real",
	KindEnum:      "enum",
	KindString:    "string",
	KindArray:     "array",
	KindGenArray:  "genarray",
	KindParameter: "parameter",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsScope reports whether objects of this kind own named children.
func (k Kind) IsScope() bool {
	return k == KindModule || k == KindStructure || k == KindGenArray
}

// IsSignal reports whether objects of this kind carry a value.
func (k Kind) IsSignal() bool {
	switch k {
	case KindRegister, KindInteger, KindReal, KindEnum, KindString, KindArray, KindParameter:
		return true
	}
	return false
}

// indexable lists the kinds that ResolveIndex accepts.
func (k Kind) indexable() bool {
	switch k {
	case KindGenArray, KindRegister, KindArray, KindString:
		return true
	}
	return false
}

// TypeClass is the broad category of a native type descriptor.
type TypeClass int

const (
	ClassUnknown TypeClass = iota
	ClassEnum
	ClassInteger
	ClassPhysical
	ClassReal
	ClassArray
	ClassRecord
	ClassConstruct
	// ClassTagged marks a descriptor whose vendor object type already names
	// the kind. Classify returns TypeDesc.Tagged unchanged.
	ClassTagged
)

// TypeDesc is the subset of a native type descriptor the classifier reads.
type TypeDesc struct {
	Class TypeClass
	Name  string

	// Literals holds enum literals in declaration order. Backends that only
	// report the literal count leave it empty and set NumLiterals.
	Literals    []string
	NumLiterals int

	// Dims is the number of index dimensions of an array type.
	Dims int
	Elem *TypeDesc

	Tagged Kind
}

func (d *TypeDesc) literalCount() int {
	if len(d.Literals) > 0 {
		return len(d.Literals)
	}
	return d.NumLiterals
}
