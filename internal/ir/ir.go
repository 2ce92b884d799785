package ir

import (
	"fmt"
	"strings"

	"github.com/huangsam/virtuc/internal/value"
)

// OpCode is an opcode for the VirtuC VM bytecode.
type OpCode byte

const (
	OpHalt OpCode = iota

	OpConst // push Val
	OpLoad  // push the current frame's local Name
	OpStore // pop and bind to the current frame's local Name
	OpPop

	// Math
	OpAdd
	OpSub
	OpMul
	OpDiv

	// Compare
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte

	// Control flow
	OpJump        // Target = absolute instruction index
	OpJumpIfFalse // Target = absolute instruction index, pops the condition

	// Calls / returns
	OpCall   // Name = callee, Argc = argument count (already on the stack)
	OpReturn // pop the current frame and resume at its return address
)

func (op OpCode) String() string {
	switch op {
	case OpHalt:
		return "HALT"
	case OpConst:
		return "CONST"
	case OpLoad:
		return "LOAD"
	case OpStore:
		return "STORE"
	case OpPop:
		return "POP"
	case OpAdd:
		return "ADD"
	case OpSub:
		return "SUB"
	case OpMul:
		return "MUL"
	case OpDiv:
		return "DIV"
	case OpEq:
		return "EQ"
	case OpNeq:
		return "NEQ"
	case OpLt:
		return "LT"
	case OpLte:
		return "LTE"
	case OpGt:
		return "GT"
	case OpGte:
		return "GTE"
	case OpJump:
		return "JUMP"
	case OpJumpIfFalse:
		return "JUMPF"
	case OpCall:
		return "CALL"
	case OpReturn:
		return "RETURN"
	default:
		return fmt.Sprintf("OpCode(%d)", int(op))
	}
}

// Instruction is one bytecode instruction. Payload fields depend on Op.
type Instruction struct {
	Op     OpCode
	Val    value.Value // OpConst
	Name   string      // OpLoad, OpStore, OpCall
	Target int         // OpJump, OpJumpIfFalse
	Argc   int         // OpCall
}

// Program is a flat instruction sequence plus a function entry-point table.
// Instruction indices double as jump targets.
type Program struct {
	Code    []Instruction
	Entries map[string]int
}

// Disassemble renders the program as one instruction per line, with entry
// points annotated.
func (p *Program) Disassemble() string {
	byIndex := make(map[int]string, len(p.Entries))
	for name, idx := range p.Entries {
		byIndex[idx] = name
	}

	var sb strings.Builder
	for i, in := range p.Code {
		if name, ok := byIndex[i]; ok {
			fmt.Fprintf(&sb, "%s:\n", name)
		}
		fmt.Fprintf(&sb, "%4d  %s", i, in.Op)
		switch in.Op {
		case OpConst:
			fmt.Fprintf(&sb, " %s", in.Val)
		case OpLoad, OpStore:
			fmt.Fprintf(&sb, " %s", in.Name)
		case OpCall:
			fmt.Fprintf(&sb, " %s/%d", in.Name, in.Argc)
		case OpJump, OpJumpIfFalse:
			fmt.Fprintf(&sb, " %d", in.Target)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
