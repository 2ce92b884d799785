package vm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/huangsam/virtuc/internal/ir"
	"github.com/huangsam/virtuc/internal/value"
)

// Frame is one function activation. Locals are bound by name; parameters
// and declared variables share the same table.
type Frame struct {
	ReturnIP int
	Locals   map[string]value.Value
}

// VM executes a compiled program.
type VM struct {
	code    []ir.Instruction
	entries map[string]int

	stack  []value.Value
	frames []Frame
	ip     int

	out      io.Writer
	maxSteps int
	steps    int
}

// Option configures a VM.
type Option func(*VM)

// WithOutput redirects builtin output, which defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(v *VM) { v.out = w }
}

// WithMaxSteps aborts execution after n instructions. Zero means no limit.
func WithMaxSteps(n int) Option {
	return func(v *VM) { v.maxSteps = n }
}

func New(prog *ir.Program, opts ...Option) *VM {
	v := &VM{
		code:    prog.Code,
		entries: prog.Entries,
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Run executes the program starting at main and returns its result.
func (v *VM) Run() (value.Value, error) {
	entry, ok := v.entries["main"]
	if !ok {
		return value.Void(), fmt.Errorf("function 'main' not found")
	}

	// The seed frame returns past the end of the code, so main's return
	// falls out of the loop naturally.
	v.frames = append(v.frames, Frame{
		ReturnIP: len(v.code),
		Locals:   make(map[string]value.Value),
	})
	v.ip = entry

	for v.ip < len(v.code) {
		if v.maxSteps > 0 {
			v.steps++
			if v.steps > v.maxSteps {
				return value.Void(), fmt.Errorf("execution exceeded %d steps", v.maxSteps)
			}
		}

		in := v.code[v.ip]
		v.ip++

		switch in.Op {
		case ir.OpHalt:
			return v.result(), nil

		case ir.OpConst:
			v.push(in.Val)

		case ir.OpLoad:
			val, ok := v.frame().Locals[in.Name]
			if !ok {
				return value.Void(), fmt.Errorf("undefined variable '%s'", in.Name)
			}
			v.push(val)

		case ir.OpStore:
			val, err := v.pop()
			if err != nil {
				return value.Void(), err
			}
			v.frame().Locals[in.Name] = val

		case ir.OpPop:
			if _, err := v.pop(); err != nil {
				return value.Void(), err
			}

		case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv,
			ir.OpEq, ir.OpNeq, ir.OpLt, ir.OpLte, ir.OpGt, ir.OpGte:
			right, err := v.pop()
			if err != nil {
				return value.Void(), err
			}
			left, err := v.pop()
			if err != nil {
				return value.Void(), err
			}
			res, err := binary(in.Op, left, right)
			if err != nil {
				return value.Void(), err
			}
			v.push(res)

		case ir.OpJump:
			v.ip = in.Target

		case ir.OpJumpIfFalse:
			cond, err := v.pop()
			if err != nil {
				return value.Void(), err
			}
			if !cond.IsTruthy() {
				v.ip = in.Target
			}

		case ir.OpCall:
			if err := v.call(in); err != nil {
				return value.Void(), err
			}

		case ir.OpReturn:
			frame := v.frames[len(v.frames)-1]
			v.frames = v.frames[:len(v.frames)-1]
			if len(v.frames) == 0 {
				return v.result(), nil
			}
			v.ip = frame.ReturnIP

		default:
			return value.Void(), fmt.Errorf("unknown opcode %s at %d", in.Op, v.ip-1)
		}
	}

	return v.result(), nil
}

// result is the value main left behind, or void for an empty stack.
func (v *VM) result() value.Value {
	if len(v.stack) == 0 {
		return value.Void()
	}
	return v.stack[len(v.stack)-1]
}

func (v *VM) frame() *Frame {
	return &v.frames[len(v.frames)-1]
}

func (v *VM) push(val value.Value) {
	v.stack = append(v.stack, val)
}

func (v *VM) pop() (value.Value, error) {
	if len(v.stack) == 0 {
		return value.Void(), fmt.Errorf("stack underflow at %d", v.ip-1)
	}
	val := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return val, nil
}

func (v *VM) call(in ir.Instruction) error {
	if entry, ok := v.entries[in.Name]; ok {
		v.frames = append(v.frames, Frame{
			ReturnIP: v.ip,
			Locals:   make(map[string]value.Value),
		})
		v.ip = entry
		return nil
	}

	// Not user-defined, so dispatch to a builtin. Arguments come off the
	// stack in reverse push order.
	args := make([]value.Value, in.Argc)
	for i := in.Argc - 1; i >= 0; i-- {
		arg, err := v.pop()
		if err != nil {
			return err
		}
		args[i] = arg
	}

	switch in.Name {
	case "printf":
		res, err := v.printf(args)
		if err != nil {
			return err
		}
		v.push(res)
		return nil
	default:
		return fmt.Errorf("call to unknown function '%s'", in.Name)
	}
}

// printf formats with %d, %f, %s and %% and returns the byte count written.
func (v *VM) printf(args []value.Value) (value.Value, error) {
	if len(args) == 0 || args[0].Kind != value.KindString {
		return value.Void(), fmt.Errorf("printf requires a format string")
	}
	format := args[0].Str
	rest := args[1:]

	var sb strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 == len(format) {
			sb.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case '%':
			sb.WriteByte('%')
		case 'd':
			if next >= len(rest) {
				return value.Void(), fmt.Errorf("printf: not enough arguments for format %q", format)
			}
			fmt.Fprintf(&sb, "%d", rest[next].Int)
			next++
		case 'f':
			if next >= len(rest) {
				return value.Void(), fmt.Errorf("printf: not enough arguments for format %q", format)
			}
			fmt.Fprintf(&sb, "%f", rest[next].AsFloat())
			next++
		case 's':
			if next >= len(rest) {
				return value.Void(), fmt.Errorf("printf: not enough arguments for format %q", format)
			}
			sb.WriteString(rest[next].String())
			next++
		default:
			// Unknown verbs pass through untouched.
			sb.WriteByte('%')
			sb.WriteByte(format[i])
		}
	}

	n, err := io.WriteString(v.out, sb.String())
	if err != nil {
		return value.Void(), err
	}
	return value.NewInt(int64(n)), nil
}

func binary(op ir.OpCode, left, right value.Value) (value.Value, error) {
	switch op {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv:
		return arith(op, left, right)
	default:
		return compare(op, left, right)
	}
}

func arith(op ir.OpCode, left, right value.Value) (value.Value, error) {
	// String addition concatenates. Any other string arithmetic has no
	// meaningful result and degrades to void.
	if left.Kind == value.KindString || right.Kind == value.KindString {
		if op == ir.OpAdd && left.Kind == value.KindString && right.Kind == value.KindString {
			return value.NewString(left.Str + right.Str), nil
		}
		return value.Void(), nil
	}

	if left.Kind == value.KindInt && right.Kind == value.KindInt {
		switch op {
		case ir.OpAdd:
			return value.NewInt(left.Int + right.Int), nil
		case ir.OpSub:
			return value.NewInt(left.Int - right.Int), nil
		case ir.OpMul:
			return value.NewInt(left.Int * right.Int), nil
		case ir.OpDiv:
			if right.Int == 0 {
				return value.Void(), fmt.Errorf("division by zero")
			}
			return value.NewInt(left.Int / right.Int), nil
		}
	}

	// Mixed int and float promotes to float.
	lf, rf := left.AsFloat(), right.AsFloat()
	switch op {
	case ir.OpAdd:
		return value.NewFloat(lf + rf), nil
	case ir.OpSub:
		return value.NewFloat(lf - rf), nil
	case ir.OpMul:
		return value.NewFloat(lf * rf), nil
	case ir.OpDiv:
		if rf == 0 {
			return value.Void(), fmt.Errorf("division by zero")
		}
		return value.NewFloat(lf / rf), nil
	}
	return value.Void(), fmt.Errorf("unknown arithmetic op %s", op)
}

// compare always yields int 1 or 0.
func compare(op ir.OpCode, left, right value.Value) (value.Value, error) {
	if left.Kind == value.KindString && right.Kind == value.KindString {
		return boolInt(compareStrings(op, left.Str, right.Str)), nil
	}

	if left.Kind == value.KindInt && right.Kind == value.KindInt {
		return boolInt(compareInts(op, left.Int, right.Int)), nil
	}

	lf, rf := left.AsFloat(), right.AsFloat()
	return boolInt(compareFloats(op, lf, rf)), nil
}

func compareInts(op ir.OpCode, a, b int64) bool {
	switch op {
	case ir.OpEq:
		return a == b
	case ir.OpNeq:
		return a != b
	case ir.OpLt:
		return a < b
	case ir.OpLte:
		return a <= b
	case ir.OpGt:
		return a > b
	default:
		return a >= b
	}
}

func compareFloats(op ir.OpCode, a, b float64) bool {
	switch op {
	case ir.OpEq:
		return a == b
	case ir.OpNeq:
		return a != b
	case ir.OpLt:
		return a < b
	case ir.OpLte:
		return a <= b
	case ir.OpGt:
		return a > b
	default:
		return a >= b
	}
}

func compareStrings(op ir.OpCode, a, b string) bool {
	switch op {
	case ir.OpEq:
		return a == b
	case ir.OpNeq:
		return a != b
	case ir.OpLt:
		return a < b
	case ir.OpLte:
		return a <= b
	case ir.OpGt:
		return a > b
	default:
		return a >= b
	}
}

func boolInt(b bool) value.Value {
	if b {
		return value.NewInt(1)
	}
	return value.NewInt(0)
}
