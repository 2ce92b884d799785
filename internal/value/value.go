package value

import "fmt"

// Kind is the type of a value at run time.
type Kind int

const (
	KindVoid Kind = iota
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a runtime value on the VM's operand stack.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
}

func Void() Value {
	return Value{Kind: KindVoid}
}

func NewInt(i int64) Value {
	return Value{Kind: KindInt, Int: i}
}

func NewFloat(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

func NewString(s string) Value {
	return Value{Kind: KindString, Str: s}
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return v.Str
	default:
		return "void"
	}
}

// IsTruthy reports whether v is non-zero. Void and empty values are falsy.
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	case KindString:
		return v.Str != ""
	default:
		return false
	}
}

// AsFloat converts a numeric value to float64 for mixed-type promotion.
func (v Value) AsFloat() float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}
