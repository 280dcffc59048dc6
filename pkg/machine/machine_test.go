package machine

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/capturcus/mmachine/pkg/asm"
	"github.com/capturcus/mmachine/pkg/isa"
)

func runProgram(t *testing.T, source string, cfg Config) *Machine {
	t.Helper()
	words, err := asm.Assemble(source)
	if err != nil {
		t.Fatalf("assembling: %v", err)
	}
	cfg.Program = words
	m := New(cfg)
	if err := m.Run(); err != nil {
		t.Fatalf("running: %v", err)
	}
	return m
}

func TestHalt(t *testing.T) {
	steps := 0
	m := runProgram(t, "hlt", Config{OnStep: func(*Machine) { steps++ }})
	if pc := m.Register(isa.RegPC); pc != 1 {
		t.Errorf("PC = %d, want 1", pc)
	}
	if steps != 2 {
		t.Errorf("ran %d microsteps before halt, want the 2 fetch steps", steps)
	}
}

func TestLoadConstant(t *testing.T) {
	m := runProgram(t, "ldcnst a 42\nhlt", Config{})
	if a := m.Register(isa.RegA); a != 42 {
		t.Errorf("A = %d, want 42", a)
	}
	if pc := m.Register(isa.RegPC); pc != 3 {
		t.Errorf("PC = %d, want 3", pc)
	}
}

func TestAddition(t *testing.T) {
	m := runProgram(t, `
		ldcnst a 5
		ldcnst b 7
		add a b
		hlt
	`, Config{})
	if b := m.Register(isa.RegB); b != 12 {
		t.Errorf("B = %d, want 12", b)
	}
	if a := m.Register(isa.RegA); a != 5 {
		t.Errorf("A = %d, want 5", a)
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		op   string
		a, b uint16
		want uint16
	}{
		{"add", 65535, 1, 0},
		{"sub", 10, 3, 7},
		{"sub", 3, 10, 65529},
		{"mul", 6, 7, 42},
		{"div", 42, 5, 8},
	}
	for _, c := range cases {
		src := fmt.Sprintf("ldcnst a %d\nldcnst b %d\n%s a b\nhlt", c.a, c.b, c.op)
		m := runProgram(t, src, Config{})
		if got := m.Register(isa.RegB); got != c.want {
			t.Errorf("%s %d %d: B = %d, want %d", c.op, c.a, c.b, got, c.want)
		}
	}
}

func TestStoreLoad(t *testing.T) {
	m := runProgram(t, `
		ldcnst a 99
		ldcnst b 100
		store a b    ; memory[100] <- A
		ldcnst c 100
		load c d     ; D <- memory[100]
		hlt
	`, Config{})
	if v := m.Memory(100); v != 99 {
		t.Errorf("memory[100] = %d, want 99", v)
	}
	if d := m.Register(isa.RegD); d != 99 {
		t.Errorf("D = %d, want 99", d)
	}
}

func TestConditionalJumpTaken(t *testing.T) {
	m := runProgram(t, `
		ldcnst a 3
		ldcnst b 3
		mov a b      ; forces flag update: A == B
		ldcnst c end
		je c
		ldcnst d 1
		end: hlt
	`, Config{})
	if d := m.Register(isa.RegD); d != 0 {
		t.Errorf("D = %d, want 0 (ldcnst d 1 must be skipped)", d)
	}
	if pc := m.Register(isa.RegPC); pc != 11 {
		t.Errorf("PC = %d, want 11", pc)
	}
}

func TestConditionalJumpNotTaken(t *testing.T) {
	m := runProgram(t, `
		ldcnst a 5
		ldcnst b 3
		ldcnst c end
		jle c        ; A > B, not taken
		ldcnst d 1
		end: hlt
	`, Config{})
	if d := m.Register(isa.RegD); d != 1 {
		t.Errorf("D = %d, want 1 (jle must fall through)", d)
	}
}

func TestPushPop(t *testing.T) {
	m := runProgram(t, `
		ldcnst a 5
		push a
		pop b
		hlt
	`, Config{})
	if b := m.Register(isa.RegB); b != 5 {
		t.Errorf("B = %d, want 5", b)
	}
	if sp := m.Register(isa.RegSP); sp != RAMSize-1 {
		t.Errorf("SP = %d, want %d", sp, RAMSize-1)
	}
}

func TestCall(t *testing.T) {
	m := runProgram(t, `
		ldcnst c sub
		call c
		hlt
		sub: ldcnst d 7
		hlt
	`, Config{})
	if d := m.Register(isa.RegD); d != 7 {
		t.Errorf("D = %d, want 7", d)
	}
	if ret := m.Memory(RAMSize - 1); ret != 3 {
		t.Errorf("pushed return address = %d, want 3", ret)
	}
	if sp := m.Register(isa.RegSP); sp != RAMSize-2 {
		t.Errorf("SP = %d, want %d", sp, RAMSize-2)
	}
}

func TestIncDec(t *testing.T) {
	m := runProgram(t, `
		ldcnst c 5
		inc c
		inc c
		dec c
		hlt
	`, Config{})
	if c := m.Register(isa.RegC); c != 6 {
		t.Errorf("C = %d, want 6", c)
	}
}

func TestCharacterOutput(t *testing.T) {
	var console bytes.Buffer
	runProgram(t, `
		ldcnst a 1        ; port 1
		ldcnst b 65       ; 'A'
		out a b
		hlt
	`, Config{Console: &console})
	if got := console.String(); got != "A" {
		t.Errorf("console = %q, want %q", got, "A")
	}
}

func TestPortOutputHandler(t *testing.T) {
	var writes []PortWrite
	runProgram(t, `
		ldcnst a 2
		ldcnst b 123
		out a b
		hlt
	`, Config{Output: func(pw PortWrite) { writes = append(writes, pw) }})
	if len(writes) != 1 || writes[0] != (PortWrite{Port: 2, Value: 123}) {
		t.Errorf("port writes = %v, want [{2 123}]", writes)
	}
}

func TestPortInput(t *testing.T) {
	m := runProgram(t, `
		ldcnst a 5   ; port 5
		in a b
		hlt
	`, Config{Input: func(port uint16) (uint16, bool) {
		if port != 5 {
			return 0, false
		}
		return 77, true
	}})
	if b := m.Register(isa.RegB); b != 77 {
		t.Errorf("B = %d, want 77", b)
	}
}

func TestReservedOpcodeFaults(t *testing.T) {
	m := New(Config{Program: []uint16{isa.Encode(isa.INT, 0, 0)}})
	if err := m.Run(); err == nil {
		t.Fatal("running INT succeeded, want fault")
	}
}

func TestInitialState(t *testing.T) {
	m := New(Config{})
	if sp := m.Register(isa.RegSP); sp != RAMSize-1 {
		t.Errorf("initial SP = %d, want %d", sp, RAMSize-1)
	}
	for _, r := range []isa.Reg{isa.RegA, isa.RegB, isa.RegC, isa.RegD, isa.RegE, isa.RegPC, isa.RegINST} {
		if v := m.Register(r); v != 0 {
			t.Errorf("initial %s = %d, want 0", r.Name(), v)
		}
	}
}
