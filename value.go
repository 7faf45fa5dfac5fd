package graphcalc

import (
	"math/big"
	"strconv"
	"strings"
)

// Type is the kind of a Value, and also a declared parameter or return type.
type Type int8

const (
	// TypeAny is the type of an unannotated parameter or return. No Value
	// has TypeAny.
	TypeAny Type = iota
	// TypeNumber is a single decimal number.
	TypeNumber
	// TypeList is a flat, ordered sequence of numbers.
	TypeList
)

func (t Type) String() string {
	switch t {
	case TypeAny:
		return "Any"
	case TypeNumber:
		return "Number"
	case TypeList:
		return "List"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

// accepts reports whether a value of type v may be passed where t is declared.
func (t Type) accepts(v Type) bool {
	return t == TypeAny || v == TypeAny || t == v
}

// parseType returns the Type named by an annotation, or TypeAny if the name
// is not a type.
func parseType(name string) Type {
	switch name {
	case "Number":
		return TypeNumber
	case "List":
		return TypeList
	default:
		return TypeAny
	}
}

// Value is the result of evaluating an expression: either a Number or a List
// of numbers. Lists never contain lists. The zero Value is invalid.
type Value struct {
	num  *big.Float
	list []*big.Float
	typ  Type
}

// Num creates a Number value. The value retains x.
func Num(x *big.Float) Value {
	return Value{num: x, typ: TypeNumber}
}

// NumFloat64 creates a Number value from a float64.
func NumFloat64(x float64) Value {
	return Num(big.NewFloat(x))
}

// List creates a List value. The value retains the elements.
func List(xs ...*big.Float) Value {
	if xs == nil {
		xs = []*big.Float{}
	}
	return Value{list: xs, typ: TypeList}
}

// ListFloat64 creates a List value from float64s.
func ListFloat64(xs ...float64) Value {
	v := make([]*big.Float, len(xs))
	for i, x := range xs {
		v[i] = big.NewFloat(x)
	}
	return List(v...)
}

// Type returns the kind of value, or TypeAny for the zero Value.
func (v Value) Type() Type {
	return v.typ
}

// IsValid reports whether v holds a Number or List.
func (v Value) IsValid() bool {
	return v.typ != TypeAny
}

// Float returns the number held by a Number value, or nil for a List.
func (v Value) Float() *big.Float {
	return v.num
}

// Elems returns the elements of a List value, or nil for a Number.
func (v Value) Elems() []*big.Float {
	return v.list
}

// Len returns the number of elements in a List, or 1 for a Number.
func (v Value) Len() int {
	if v.typ == TypeList {
		return len(v.list)
	}
	return 1
}

// at returns the number at index i, broadcasting Numbers.
func (v Value) at(i int) *big.Float {
	if v.typ == TypeList {
		return v.list[i]
	}
	return v.num
}

// Equal reports whether two values have the same type and numerically equal
// elements.
func (v Value) Equal(w Value) bool {
	if v.typ != w.typ {
		return false
	}
	switch v.typ {
	case TypeNumber:
		return v.num.Cmp(w.num) == 0
	case TypeList:
		if len(v.list) != len(w.list) {
			return false
		}
		for i, x := range v.list {
			if x.Cmp(w.list[i]) != 0 {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String formats the value with %g, lists in brackets. Integers below 2^64
// in magnitude are written out in full.
func (v Value) String() string {
	switch v.typ {
	case TypeNumber:
		return numText(v.num)
	case TypeList:
		var b strings.Builder
		b.WriteByte('[')
		for i, x := range v.list {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(numText(x))
		}
		b.WriteByte(']')
		return b.String()
	default:
		return "<invalid>"
	}
}

// numText formats a number in the shortest %g form that reads back the same,
// except that integers below 2^64 in magnitude never use an exponent.
func numText(x *big.Float) string {
	if x.IsInt() && x.MantExp(nil) <= 64 {
		return x.Text('f', 0)
	}
	return x.Text('g', -1)
}
