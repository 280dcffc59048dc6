package machine

import (
	"fmt"

	"github.com/capturcus/mmachine/pkg/isa"
)

// Microstep is the set of control-line indices asserted for one cycle.
type Microstep []int

// Microcode is the ordered microstep sequence that implements one
// instruction, including the trailing fetch.
type Microcode []Microstep

// FetchMicrocode is the two-step prelude run at the end of every
// instruction: MAR gets the program counter, then the fetched word lands in
// the instruction register while the counter advances. A taken jump has
// already replaced PC by then, so the fetch naturally follows the target.
func FetchMicrocode() Microcode {
	return Microcode{
		{RegOut(isa.RegPC), int(MemoryAddressIn)},
		{int(RamOut), RegIn(isa.RegINST), RegInc(isa.RegPC)},
	}
}

// Decode turns an instruction word into its microcode list, resolving
// conditional jumps against the current flags. The fetch sequence is always
// appended. Reserved and undefined opcodes are machine faults.
func Decode(instr uint16, flags *Flags) (Microcode, error) {
	op, src, dst := isa.Split(instr)
	if !op.Valid() {
		return nil, fmt.Errorf("undefined opcode %d in instruction %#04x", op, instr)
	}
	if op.Reserved() {
		return nil, fmt.Errorf("reserved opcode %s: interrupts are not implemented", op.Mnemonic())
	}

	var mc Microcode
	jump := Microstep{RegOut(dst), RegIn(isa.RegPC)}

	switch op {
	case isa.HLT:
		mc = append(mc, Microstep{int(Halt)})
	case isa.MOV:
		mc = append(mc, Microstep{RegOut(src), RegIn(dst)})
	case isa.ADD:
		mc = append(mc, Microstep{int(AluOut), RegIn(dst)})
	case isa.SUB:
		mc = append(mc, Microstep{int(SubDiv), int(AluOut), RegIn(dst)})
	case isa.MUL:
		mc = append(mc, Microstep{int(AddMul), int(AluOut), RegIn(dst)})
	case isa.DIV:
		mc = append(mc, Microstep{int(AddMul), int(SubDiv), int(AluOut), RegIn(dst)})
	case isa.CALL:
		mc = append(mc,
			Microstep{RegOut(isa.RegSP), int(MemoryAddressIn)},
			Microstep{RegOut(isa.RegPC), int(RamIn), RegDec(isa.RegSP)},
			jump)
	case isa.JE:
		if flags.Equal() {
			mc = append(mc, jump)
		}
	case isa.JNE:
		if !flags.Equal() {
			mc = append(mc, jump)
		}
	case isa.JG:
		if flags.Greater() {
			mc = append(mc, jump)
		}
	case isa.JGE:
		if flags.Greater() || flags.Equal() {
			mc = append(mc, jump)
		}
	case isa.JL:
		if !flags.Greater() && !flags.Equal() {
			mc = append(mc, jump)
		}
	case isa.JLE:
		if !flags.Greater() {
			mc = append(mc, jump)
		}
	case isa.PUSH:
		mc = append(mc,
			Microstep{RegOut(isa.RegSP), int(MemoryAddressIn)},
			Microstep{RegOut(src), int(RamIn), RegDec(isa.RegSP)})
	case isa.POP:
		mc = append(mc,
			Microstep{RegInc(isa.RegSP)},
			Microstep{RegOut(isa.RegSP), int(MemoryAddressIn)},
			Microstep{RegIn(dst), int(RamOut)})
	case isa.OUT:
		mc = append(mc,
			Microstep{int(MemoryIsIO), RegOut(src), int(MemoryAddressIn)},
			Microstep{int(MemoryIsIO), RegOut(dst), int(RamIn)})
	case isa.IN:
		mc = append(mc,
			Microstep{int(MemoryIsIO), RegOut(src), int(MemoryAddressIn)},
			Microstep{int(MemoryIsIO), RegIn(dst), int(RamOut)})
	case isa.INC:
		mc = append(mc, Microstep{RegInc(dst)})
	case isa.DEC:
		mc = append(mc, Microstep{RegDec(dst)})
	case isa.LOAD:
		mc = append(mc,
			Microstep{RegOut(src), int(MemoryAddressIn)},
			Microstep{RegIn(dst), int(RamOut)})
	case isa.STORE:
		mc = append(mc,
			Microstep{RegOut(dst), int(MemoryAddressIn)},
			Microstep{RegOut(src), int(RamIn)})
	case isa.LDCNST:
		load := Microstep{RegIn(dst), int(RamOut), RegInc(isa.RegPC)}
		if dst == isa.RegPC {
			// The immediate becomes the new counter, the post-increment
			// must not touch it.
			load = Microstep{RegIn(dst), int(RamOut)}
		}
		mc = append(mc,
			Microstep{RegOut(isa.RegPC), int(MemoryAddressIn)},
			load)
	}

	return append(mc, FetchMicrocode()...), nil
}
