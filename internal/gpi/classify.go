package gpi

import (
	"strings"

	"golang.org/x/text/cases"
)

var (
	bitLiterals   = []string{"0", "1"}
	logicLiterals = []string{"U", "X", "0", "1", "Z", "W", "L", "H", "-"}
	boolLiterals  = []string{"false", "true"}

	fold = cases.Fold()
)

// Classify maps a native type descriptor to a Kind.
//
// Enum literal sets recognised as logic ({'0','1'} and the nine-valued
// standard logic set) become registers, booleans and 256-literal character
// enums become integers. Arrays take their kind from the element type.
func Classify(d *TypeDesc) Kind {
	if d == nil {
		return KindUnknown
	}
	switch d.Class {
	case ClassTagged:
		return d.Tagged
	case ClassEnum:
		return classifyEnum(d)
	case ClassInteger, ClassPhysical:
		return KindInteger
	case ClassReal:
		return KindReal
	case ClassArray:
		return classifyArray(d)
	case ClassRecord:
		return KindStructure
	case ClassConstruct:
		return KindModule
	}
	return KindUnknown
}

func classifyEnum(d *TypeDesc) Kind {
	switch {
	case isLogicEnum(d):
		return KindRegister
	case literalsMatch(d.Literals, boolLiterals, true):
		return KindInteger
	case d.literalCount() == 256:
		return KindInteger
	}
	return KindEnum
}

func classifyArray(d *TypeDesc) Kind {
	if d.Dims != 1 || d.Elem == nil {
		return KindArray
	}
	elem := d.Elem
	if elem.Class == ClassEnum {
		if isLogicEnum(elem) {
			return KindRegister
		}
		if elem.literalCount() == 256 {
			return KindString
		}
	}
	return KindArray
}

func isLogicEnum(d *TypeDesc) bool {
	return literalsMatch(d.Literals, bitLiterals, false) ||
		literalsMatch(d.Literals, logicLiterals, false)
}

// literalsMatch compares literals positionally. Character literals may be
// reported quoted ('0') or bare (0).
func literalsMatch(got, want []string, foldCase bool) bool {
	if len(got) != len(want) {
		return false
	}
	for i, lit := range got {
		lit = unquoteLiteral(lit)
		if foldCase {
			if fold.String(lit) != fold.String(want[i]) {
				return false
			}
			continue
		}
		if lit != want[i] {
			return false
		}
	}
	return true
}

func unquoteLiteral(lit string) string {
	if len(lit) == 3 && strings.HasPrefix(lit, "'") && strings.HasSuffix(lit, "'") {
		return lit[1:2]
	}
	return lit
}
