package ir

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/virtuc/internal/value"
)

var magicV1 = [4]byte{'V', 'C', 'B', '1'}

func WriteProgramToFile(filename string, p *Program) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteProgram(f, p)
}

func ReadProgramFromFile(filename string) (*Program, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadProgram(f)
}

func WriteProgram(w io.Writer, p *Program) error {
	// magic
	if _, err := w.Write(magicV1[:]); err != nil {
		return err
	}

	// entries table
	if err := binary.Write(w, binary.LittleEndian, uint32(len(p.Entries))); err != nil {
		return err
	}
	for name, entry := range p.Entries {
		if err := writeName(w, name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(entry)); err != nil {
			return err
		}
	}

	// code
	if err := binary.Write(w, binary.LittleEndian, uint32(len(p.Code))); err != nil {
		return err
	}
	for _, in := range p.Code {
		if err := binary.Write(w, binary.LittleEndian, uint8(in.Op)); err != nil {
			return err
		}
		switch in.Op {
		case OpConst:
			if err := writeValue(w, in.Val); err != nil {
				return err
			}
		case OpLoad, OpStore:
			if err := writeName(w, in.Name); err != nil {
				return err
			}
		case OpJump, OpJumpIfFalse:
			if err := binary.Write(w, binary.LittleEndian, uint32(in.Target)); err != nil {
				return err
			}
		case OpCall:
			if err := writeName(w, in.Name); err != nil {
				return err
			}
			if err := binary.Write(w, binary.LittleEndian, uint32(in.Argc)); err != nil {
				return err
			}
		}
	}

	return nil
}

func ReadProgram(r io.Reader) (*Program, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	if hdr != magicV1 {
		return nil, fmt.Errorf("invalid magic header: %q", string(hdr[:]))
	}

	var numEntries uint32
	if err := binary.Read(r, binary.LittleEndian, &numEntries); err != nil {
		return nil, err
	}
	prog := &Program{
		Entries: make(map[string]int, numEntries),
	}
	for i := uint32(0); i < numEntries; i++ {
		name, err := readName(r)
		if err != nil {
			return nil, err
		}
		var entry uint32
		if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
			return nil, err
		}
		prog.Entries[name] = int(entry)
	}

	var numCode uint32
	if err := binary.Read(r, binary.LittleEndian, &numCode); err != nil {
		return nil, err
	}
	prog.Code = make([]Instruction, numCode)
	for i := uint32(0); i < numCode; i++ {
		var opU8 uint8
		if err := binary.Read(r, binary.LittleEndian, &opU8); err != nil {
			return nil, err
		}
		in := Instruction{Op: OpCode(opU8)}
		switch in.Op {
		case OpConst:
			v, err := readValue(r)
			if err != nil {
				return nil, err
			}
			in.Val = v
		case OpLoad, OpStore:
			name, err := readName(r)
			if err != nil {
				return nil, err
			}
			in.Name = name
		case OpJump, OpJumpIfFalse:
			var target uint32
			if err := binary.Read(r, binary.LittleEndian, &target); err != nil {
				return nil, err
			}
			in.Target = int(target)
		case OpCall:
			name, err := readName(r)
			if err != nil {
				return nil, err
			}
			var argc uint32
			if err := binary.Read(r, binary.LittleEndian, &argc); err != nil {
				return nil, err
			}
			in.Name = name
			in.Argc = int(argc)
		}
		prog.Code[i] = in
	}

	return prog, nil
}

func writeName(w io.Writer, name string) error {
	bs := []byte(name)
	if len(bs) > 0xFFFF {
		return fmt.Errorf("name too long: %s", name)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(bs))); err != nil {
		return err
	}
	_, err := w.Write(bs)
	return err
}

func readName(r io.Reader) (string, error) {
	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return "", err
	}
	bs := make([]byte, nameLen)
	if _, err := io.ReadFull(r, bs); err != nil {
		return "", err
	}
	return string(bs), nil
}

func writeValue(w io.Writer, v value.Value) error {
	if err := binary.Write(w, binary.LittleEndian, uint8(v.Kind)); err != nil {
		return err
	}
	switch v.Kind {
	case value.KindVoid:
		return nil
	case value.KindInt:
		return binary.Write(w, binary.LittleEndian, v.Int)
	case value.KindFloat:
		return binary.Write(w, binary.LittleEndian, v.Float)
	case value.KindString:
		bs := []byte(v.Str)
		if err := binary.Write(w, binary.LittleEndian, uint32(len(bs))); err != nil {
			return err
		}
		_, err := w.Write(bs)
		return err
	default:
		return fmt.Errorf("unknown value kind %d", v.Kind)
	}
}

func readValue(r io.Reader) (value.Value, error) {
	var kindU8 uint8
	if err := binary.Read(r, binary.LittleEndian, &kindU8); err != nil {
		return value.Void(), err
	}
	switch value.Kind(kindU8) {
	case value.KindVoid:
		return value.Void(), nil
	case value.KindInt:
		var n int64
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return value.Void(), err
		}
		return value.NewInt(n), nil
	case value.KindFloat:
		var f float64
		if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
			return value.Void(), err
		}
		return value.NewFloat(f), nil
	case value.KindString:
		var strLen uint32
		if err := binary.Read(r, binary.LittleEndian, &strLen); err != nil {
			return value.Void(), err
		}
		bs := make([]byte, strLen)
		if _, err := io.ReadFull(r, bs); err != nil {
			return value.Void(), err
		}
		return value.NewString(string(bs)), nil
	default:
		return value.Void(), fmt.Errorf("unknown value kind %d", kindU8)
	}
}
