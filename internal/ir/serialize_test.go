package ir_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/huangsam/virtuc/internal/ir"
	"github.com/huangsam/virtuc/internal/value"
)

func TestSerialize_RoundTrip(t *testing.T) {
	prog := compile(t, `
int add(int a, int b) { return a + b; }

int main() {
    int s = 0;
    for (int i = 0; i < 4; i = i + 1) {
        s = add(s, i);
    }
    if (s > 5) {
        return s;
    }
    return 0;
}
`)

	var buf bytes.Buffer
	if err := ir.WriteProgram(&buf, prog); err != nil {
		t.Fatalf("WriteProgram error: %v", err)
	}

	got, err := ir.ReadProgram(&buf)
	if err != nil {
		t.Fatalf("ReadProgram error: %v", err)
	}

	if !reflect.DeepEqual(got.Entries, prog.Entries) {
		t.Errorf("entries differ: %v vs %v", got.Entries, prog.Entries)
	}
	if !reflect.DeepEqual(got.Code, prog.Code) {
		t.Errorf("code differs after round trip:\n%s\nvs\n%s", got.Disassemble(), prog.Disassemble())
	}
}

func TestSerialize_AllValueKinds(t *testing.T) {
	prog := &ir.Program{
		Code: []ir.Instruction{
			{Op: ir.OpConst, Val: value.NewInt(-7)},
			{Op: ir.OpConst, Val: value.NewFloat(3.25)},
			{Op: ir.OpConst, Val: value.NewString("hi\nthere")},
			{Op: ir.OpConst, Val: value.Void()},
			{Op: ir.OpReturn},
		},
		Entries: map[string]int{"main": 0},
	}

	var buf bytes.Buffer
	if err := ir.WriteProgram(&buf, prog); err != nil {
		t.Fatalf("WriteProgram error: %v", err)
	}
	got, err := ir.ReadProgram(&buf)
	if err != nil {
		t.Fatalf("ReadProgram error: %v", err)
	}
	if !reflect.DeepEqual(got, prog) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, prog)
	}
}

func TestSerialize_BadMagic(t *testing.T) {
	if _, err := ir.ReadProgram(bytes.NewReader([]byte("XXXX\x00\x00\x00\x00"))); err == nil {
		t.Fatal("expected error for bad magic header")
	}
}

func TestSerialize_Truncated(t *testing.T) {
	prog := compile(t, `int main() { return 1; }`)

	var buf bytes.Buffer
	if err := ir.WriteProgram(&buf, prog); err != nil {
		t.Fatalf("WriteProgram error: %v", err)
	}

	full := buf.Bytes()
	if _, err := ir.ReadProgram(bytes.NewReader(full[:len(full)-3])); err == nil {
		t.Fatal("expected error for truncated input")
	}
}
