package sim

// File is the on-disk form of an elaborated design.
//
// Example:
//
//	name: counter
//	precision: -12
//	types:
//	  state_t: {class: enum, literals: [IDLE, RUN]}
//	top:
//	  - name: top
//	    kind: module
//	    children:
//	      - {name: clk, kind: signal, type: std_logic, init: "0"}
//	      - {name: count, kind: signal, type: std_logic, ranges: [[7, 0]]}
//	      - name: gen
//	        kind: generate
//	        range: [0, 1]
//	        children:
//	          - {name: q, kind: signal, type: bit}
type File struct {
	Name      string               `yaml:"name" json:"name"`
	Precision *int                 `yaml:"precision,omitempty" json:"precision,omitempty"`
	Language  string               `yaml:"language,omitempty" json:"language,omitempty"`
	Types     map[string]*TypeSpec `yaml:"types,omitempty" json:"types,omitempty"`
	Top       []*Decl              `yaml:"top" json:"top"`
}

// TypeSpec declares a named type.
type TypeSpec struct {
	Class       string      `yaml:"class" json:"class"`
	Literals    []string    `yaml:"literals,omitempty" json:"literals,omitempty"`
	NumLiterals int         `yaml:"num_literals,omitempty" json:"num_literals,omitempty"`
	Element     string      `yaml:"element,omitempty" json:"element,omitempty"`
	Ranges      [][2]int    `yaml:"ranges,omitempty" json:"ranges,omitempty"`
	Fields      []FieldSpec `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// FieldSpec is one record field.
type FieldSpec struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// Decl declares one object of the hierarchy.
type Decl struct {
	Name string `yaml:"name" json:"name"`
	Kind string `yaml:"kind" json:"kind"`
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// Ranges makes the object an anonymous array of Type.
	Ranges [][2]int `yaml:"ranges,omitempty" json:"ranges,omitempty"`

	// Range is the index range of a generate loop.
	Range *[2]int `yaml:"range,omitempty" json:"range,omitempty"`

	Init     string   `yaml:"init,omitempty" json:"init,omitempty"`
	Period   uint64   `yaml:"period,omitempty" json:"period,omitempty"`
	Drivers  []string `yaml:"drivers,omitempty" json:"drivers,omitempty"`
	Loads    []string `yaml:"loads,omitempty" json:"loads,omitempty"`
	Children []*Decl  `yaml:"children,omitempty" json:"children,omitempty"`
}

// Declaration kinds accepted in design files.
const (
	DeclModule    = "module"
	DeclGenerate  = "generate"
	DeclProcess   = "process"
	DeclSignal    = "signal"
	DeclVariable  = "variable"
	DeclConstant  = "constant"
	DeclParameter = "parameter"
)

// Range is one declared index range.
type Range struct {
	Left  int
	Right int
}

// Len returns the number of indices in r.
func (r Range) Len() int {
	if r.Left > r.Right {
		return r.Left - r.Right + 1
	}
	return r.Right - r.Left + 1
}

// TypeClass is the broad class of a Type.
type TypeClass int

const (
	TypeEnum TypeClass = iota + 1
	TypeInteger
	TypePhysical
	TypeReal
	TypeArray
	TypeRecord
)

var typeClassNames = map[string]TypeClass{
	"enum":     TypeEnum,
	"integer":  TypeInteger,
	"physical": TypePhysical,
	"real":     TypeReal,
	"array":    TypeArray,
	"record":   TypeRecord,
}

// Type is a resolved type.
type Type struct {
	Name        string
	Class       TypeClass
	Literals    []string
	NumLiterals int
	Elem        *Type
	Ranges      []Range
	Fields      []Field
}

// Field is a resolved record field.
type Field struct {
	Name string
	Type *Type
}

// LiteralCount returns the number of enum literals.
func (t *Type) LiteralCount() int {
	if len(t.Literals) > 0 {
		return len(t.Literals)
	}
	return t.NumLiterals
}

// IsLogic reports whether t is a bit or nine-valued logic enum.
func (t *Type) IsLogic() bool {
	if t.Class != TypeEnum {
		return false
	}
	lits := t.Literals
	if len(lits) != 2 && len(lits) != 9 {
		return false
	}
	for _, l := range lits {
		if logicChar(l) == 0 {
			return false
		}
	}
	return true
}

// IsChar reports whether t is the 256-literal character enum.
func (t *Type) IsChar() bool {
	return t.Class == TypeEnum && t.LiteralCount() == 256
}

// IsLogicVector reports whether t is a one-dimensional array of logic.
func (t *Type) IsLogicVector() bool {
	return t.Class == TypeArray && len(t.Ranges) == 1 && t.Elem != nil && t.Elem.IsLogic()
}

// IsString reports whether t is a one-dimensional array of characters.
func (t *Type) IsString() bool {
	return t.Class == TypeArray && len(t.Ranges) == 1 && t.Elem != nil && t.Elem.IsChar()
}

// NumElems returns the flattened element count of an array type.
func (t *Type) NumElems() int {
	n := 1
	for _, r := range t.Ranges {
		n *= r.Len()
	}
	return n
}

func logicChar(lit string) byte {
	if len(lit) == 3 && lit[0] == '\'' && lit[2] == '\'' {
		lit = lit[1:2]
	}
	if len(lit) != 1 {
		return 0
	}
	switch lit[0] {
	case 'U', 'X', '0', '1', 'Z', 'W', 'L', 'H', '-':
		return lit[0]
	}
	return 0
}

var stdLogic = []string{"'U'", "'X'", "'0'", "'1'", "'Z'", "'W'", "'L'", "'H'", "'-'"}

func builtinTypes() map[string]*Type {
	chars := &Type{Name: "character", Class: TypeEnum, NumLiterals: 256}
	types := map[string]*Type{
		"std_logic":  {Name: "std_logic", Class: TypeEnum, Literals: stdLogic},
		"std_ulogic": {Name: "std_ulogic", Class: TypeEnum, Literals: stdLogic},
		"logic":      {Name: "logic", Class: TypeEnum, Literals: stdLogic},
		"bit":        {Name: "bit", Class: TypeEnum, Literals: []string{"'0'", "'1'"}},
		"boolean":    {Name: "boolean", Class: TypeEnum, Literals: []string{"FALSE", "TRUE"}},
		"character":  chars,
		"integer":    {Name: "integer", Class: TypeInteger},
		"natural":    {Name: "natural", Class: TypeInteger},
		"time":       {Name: "time", Class: TypePhysical},
		"real":       {Name: "real", Class: TypeReal},
	}
	return types
}
