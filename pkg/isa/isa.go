// Package isa defines the instruction set shared by the assembler and the
// simulator: register codes, opcodes, the 16-bit instruction encoding and
// the static per-opcode metadata.
package isa

// Reg identifies one of the eight machine registers. A and B double as the
// ALU operand latches; PC, SP and INST are the program counter, stack
// pointer and instruction register.
type Reg uint16

const (
	RegA Reg = iota
	RegB
	RegC
	RegD
	RegE
	RegPC
	RegSP
	RegINST

	NumRegisters = 8
)

// Opcode is the 6-bit operation field of an instruction word.
type Opcode uint16

// Opcode values. 17 is an encoding gap and 18/19 (INT/EOI) are reserved for
// a future interrupt design; decoding them is a machine fault.
const (
	HLT    Opcode = 0
	MOV    Opcode = 1
	ADD    Opcode = 2
	SUB    Opcode = 3
	MUL    Opcode = 4
	DIV    Opcode = 5
	CALL   Opcode = 6
	JE     Opcode = 7
	JNE    Opcode = 8
	JG     Opcode = 9
	JGE    Opcode = 10
	JL     Opcode = 11
	JLE    Opcode = 12
	PUSH   Opcode = 13
	POP    Opcode = 14
	OUT    Opcode = 15
	IN     Opcode = 16
	INT    Opcode = 18
	EOI    Opcode = 19
	INC    Opcode = 20
	DEC    Opcode = 21
	LOAD   Opcode = 22
	STORE  Opcode = 23
	LDCNST Opcode = 24

	opcodeCount = 25
)

// Instruction word layout: oooooo sssss ddddd.
const (
	OpcodeShift = 10
	SourceShift = 5

	OpcodeMask uint16 = 0b1111110000000000
	SourceMask uint16 = 0b0000001111100000
	DestMask   uint16 = 0b0000000000011111
)

// Encode packs an instruction word from its three fields.
func Encode(op Opcode, src, dst Reg) uint16 {
	return uint16(op)<<OpcodeShift | uint16(src)<<SourceShift | uint16(dst)
}

// Split unpacks an instruction word into its three fields.
func Split(instr uint16) (op Opcode, src, dst Reg) {
	op = Opcode((instr & OpcodeMask) >> OpcodeShift)
	src = Reg((instr & SourceMask) >> SourceShift)
	dst = Reg(instr & DestMask)
	return
}

// OperandForm says which instruction-word fields an opcode's assembly
// operands fill.
type OperandForm int

const (
	FormNone    OperandForm = iota // no operands
	FormDst                        // one register operand, dest field
	FormSrc                        // one register operand, source field (PUSH)
	FormSrcDst                     // two register operands
	FormRegImm                     // register + immediate word (LDCNST)
)

// Info holds static metadata for an opcode.
type Info struct {
	Mnemonic string
	Form     OperandForm
}

// Catalog maps each defined opcode to its Info. Entries for the encoding
// gap (17) and undefined values are zero.
var Catalog = [opcodeCount]Info{
	HLT:    {"hlt", FormNone},
	MOV:    {"mov", FormSrcDst},
	ADD:    {"add", FormSrcDst},
	SUB:    {"sub", FormSrcDst},
	MUL:    {"mul", FormSrcDst},
	DIV:    {"div", FormSrcDst},
	CALL:   {"call", FormDst},
	JE:     {"je", FormDst},
	JNE:    {"jne", FormDst},
	JG:     {"jg", FormDst},
	JGE:    {"jge", FormDst},
	JL:     {"jl", FormDst},
	JLE:    {"jle", FormDst},
	PUSH:   {"push", FormSrc},
	POP:    {"pop", FormDst},
	OUT:    {"out", FormSrcDst},
	IN:     {"in", FormSrcDst},
	INT:    {"int", FormNone},
	EOI:    {"eoi", FormNone},
	INC:    {"inc", FormDst},
	DEC:    {"dec", FormDst},
	LOAD:   {"load", FormSrcDst},
	STORE:  {"store", FormSrcDst},
	LDCNST: {"ldcnst", FormRegImm},
}

// Valid reports whether op is a defined opcode.
func (op Opcode) Valid() bool {
	return int(op) < opcodeCount && Catalog[op].Mnemonic != ""
}

// Reserved reports whether op is encoded but not yet implemented by the
// machine (the interrupt opcodes).
func (op Opcode) Reserved() bool {
	return op == INT || op == EOI
}

// Mnemonic returns the assembly mnemonic for op, or "?" if undefined.
func (op Opcode) Mnemonic() string {
	if !op.Valid() {
		return "?"
	}
	return Catalog[op].Mnemonic
}

var regNames = [NumRegisters]string{"a", "b", "c", "d", "e", "pc", "sp", "inst"}

// Name returns the assembly name of r, or "?" for an out-of-range code.
func (r Reg) Name() string {
	if int(r) >= NumRegisters {
		return "?"
	}
	return regNames[r]
}

// Mnemonics maps assembly mnemonics to opcodes.
var Mnemonics = map[string]Opcode{}

// RegNames maps assembly register names to register codes.
var RegNames = map[string]Reg{}

func init() {
	for op, info := range Catalog {
		if info.Mnemonic != "" {
			Mnemonics[info.Mnemonic] = Opcode(op)
		}
	}
	for r, name := range regNames {
		RegNames[name] = Reg(r)
	}
}

// Disassemble renders an instruction word as assembly text, e.g. "mov a b".
// Immediates (the word after an LDCNST) are not visible at this level, so
// LDCNST disassembles to just its register operand.
func Disassemble(instr uint16) string {
	op, src, dst := Split(instr)
	if !op.Valid() {
		return "?"
	}
	switch Catalog[op].Form {
	case FormNone:
		return op.Mnemonic()
	case FormDst, FormRegImm:
		return op.Mnemonic() + " " + dst.Name()
	case FormSrc:
		return op.Mnemonic() + " " + src.Name()
	default:
		return op.Mnemonic() + " " + src.Name() + " " + dst.Name()
	}
}
