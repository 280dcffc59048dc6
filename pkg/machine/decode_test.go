package machine

import (
	"reflect"
	"testing"

	"github.com/capturcus/mmachine/pkg/isa"
)

func flagsWith(equal, greater bool) *Flags {
	f := &Flags{}
	f.bits.SetBit(FlagEqual, equal)
	f.bits.SetBit(FlagGreater, greater)
	return f
}

func decode(t *testing.T, op isa.Opcode, src, dst isa.Reg, flags *Flags) Microcode {
	t.Helper()
	mc, err := Decode(isa.Encode(op, src, dst), flags)
	if err != nil {
		t.Fatalf("Decode(%s): %v", op.Mnemonic(), err)
	}
	return mc
}

func TestFetchAlwaysAppended(t *testing.T) {
	fetch := FetchMicrocode()
	for _, op := range []isa.Opcode{isa.MOV, isa.ADD, isa.PUSH, isa.INC, isa.LDCNST} {
		mc := decode(t, op, isa.RegA, isa.RegB, &Flags{})
		if len(mc) < 2 {
			t.Fatalf("%s microcode too short", op.Mnemonic())
		}
		tail := mc[len(mc)-2:]
		if !reflect.DeepEqual(Microcode(tail), fetch) {
			t.Errorf("%s does not end with fetch: %v", op.Mnemonic(), tail)
		}
	}
}

func TestDecodeMov(t *testing.T) {
	mc := decode(t, isa.MOV, isa.RegA, isa.RegB, &Flags{})
	want := Microstep{RegOut(isa.RegA), RegIn(isa.RegB)}
	if !reflect.DeepEqual(mc[0], want) {
		t.Errorf("mov microstep = %v, want %v", mc[0], want)
	}
	if len(mc) != 3 {
		t.Errorf("mov has %d microsteps, want 3", len(mc))
	}
}

func TestDecodeArithmeticModes(t *testing.T) {
	cases := []struct {
		op   isa.Opcode
		want Microstep
	}{
		{isa.ADD, Microstep{int(AluOut), RegIn(isa.RegC)}},
		{isa.SUB, Microstep{int(SubDiv), int(AluOut), RegIn(isa.RegC)}},
		{isa.MUL, Microstep{int(AddMul), int(AluOut), RegIn(isa.RegC)}},
		{isa.DIV, Microstep{int(AddMul), int(SubDiv), int(AluOut), RegIn(isa.RegC)}},
	}
	for _, c := range cases {
		mc := decode(t, c.op, isa.RegA, isa.RegC, &Flags{})
		if !reflect.DeepEqual(mc[0], c.want) {
			t.Errorf("%s microstep = %v, want %v", c.op.Mnemonic(), mc[0], c.want)
		}
	}
}

func TestDecodeStack(t *testing.T) {
	push := decode(t, isa.PUSH, isa.RegC, 0, &Flags{})
	wantPush := Microcode{
		{RegOut(isa.RegSP), int(MemoryAddressIn)},
		{RegOut(isa.RegC), int(RamIn), RegDec(isa.RegSP)},
	}
	if !reflect.DeepEqual(push[:2], wantPush) {
		t.Errorf("push = %v, want %v", push[:2], wantPush)
	}

	pop := decode(t, isa.POP, 0, isa.RegD, &Flags{})
	wantPop := Microcode{
		{RegInc(isa.RegSP)},
		{RegOut(isa.RegSP), int(MemoryAddressIn)},
		{RegIn(isa.RegD), int(RamOut)},
	}
	if !reflect.DeepEqual(pop[:3], wantPop) {
		t.Errorf("pop = %v, want %v", pop[:3], wantPop)
	}
}

func TestDecodeConditionalJumps(t *testing.T) {
	jump := Microstep{RegOut(isa.RegC), RegIn(isa.RegPC)}
	cases := []struct {
		op             isa.Opcode
		equal, greater bool
		taken          bool
	}{
		{isa.JE, true, false, true},
		{isa.JE, false, false, false},
		{isa.JNE, false, false, true},
		{isa.JNE, true, false, false},
		{isa.JG, false, true, true},
		{isa.JG, false, false, false},
		{isa.JGE, true, false, true},
		{isa.JGE, false, true, true},
		{isa.JGE, false, false, false},
		{isa.JL, false, false, true},
		{isa.JL, true, false, false},
		{isa.JL, false, true, false},
		{isa.JLE, true, false, true},
		{isa.JLE, false, true, false},
	}
	for _, c := range cases {
		mc := decode(t, c.op, 0, isa.RegC, flagsWith(c.equal, c.greater))
		if c.taken {
			if len(mc) != 3 || !reflect.DeepEqual(mc[0], jump) {
				t.Errorf("%s (eq=%v gt=%v) = %v, want taken jump", c.op.Mnemonic(), c.equal, c.greater, mc)
			}
		} else if len(mc) != 2 {
			t.Errorf("%s (eq=%v gt=%v) = %v, want fetch only", c.op.Mnemonic(), c.equal, c.greater, mc)
		}
	}
}

func TestDecodeLdcnstPC(t *testing.T) {
	mc := decode(t, isa.LDCNST, 0, isa.RegD, &Flags{})
	if !reflect.DeepEqual(mc[1], Microstep{RegIn(isa.RegD), int(RamOut), RegInc(isa.RegPC)}) {
		t.Errorf("ldcnst load step = %v", mc[1])
	}

	mc = decode(t, isa.LDCNST, 0, isa.RegPC, &Flags{})
	if !reflect.DeepEqual(mc[1], Microstep{RegIn(isa.RegPC), int(RamOut)}) {
		t.Errorf("ldcnst pc load step = %v, must not post-increment", mc[1])
	}
}

func TestDecodeFaults(t *testing.T) {
	for _, instr := range []uint16{
		isa.Encode(isa.INT, 0, 0),
		isa.Encode(isa.EOI, 0, 0),
		17 << isa.OpcodeShift,
		63 << isa.OpcodeShift,
	} {
		if _, err := Decode(instr, &Flags{}); err == nil {
			t.Errorf("Decode(%#04x) succeeded, want fault", instr)
		}
	}
}
