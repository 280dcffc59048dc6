// Package asm compiles mmachine assembly text into the 16-bit binary the
// simulator loads. Two passes: the first lays out label offsets, the second
// encodes instruction words and resolves immediates.
package asm

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/capturcus/mmachine/pkg/isa"
)

type stmtKind int

const (
	stmtCommand stmtKind = iota
	stmtLdcnst
	stmtLabel
	stmtData
)

type statement struct {
	kind stmtKind
	line string // comment-stripped source text, for diagnostics

	op   isa.Opcode
	regs []isa.Reg

	reg isa.Reg // ldcnst target
	imm string  // ldcnst immediate token (number or label)

	label string
	data  string
}

// Strings are the printable subset the data directive accepts.
var dataRe = regexp.MustCompile(`"([a-zA-Z0-9!?.,: ]+)"`)

// Assemble compiles source into a word list. Any error aborts the whole
// assembly; no partial output is produced.
func Assemble(source string) ([]uint16, error) {
	statements, err := parse(source)
	if err != nil {
		return nil, err
	}
	labels := layoutLabels(statements)
	return encode(statements, labels)
}

// ToBytes serialises words in network byte order.
func ToBytes(words []uint16) []byte {
	buf := make([]byte, 2*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint16(buf[2*i:], w)
	}
	return buf
}

func parse(source string) ([]statement, error) {
	var ret []statement
	for _, dirty := range strings.Split(source, "\n") {
		line := strings.TrimSpace(strings.SplitN(dirty, ";", 2)[0])
		if line == "" {
			continue
		}
		tokens := strings.Fields(line)

		// A label may stand alone or prefix a statement on the same line.
		for len(tokens) > 0 && strings.HasSuffix(tokens[0], ":") {
			name := strings.ToLower(strings.TrimSuffix(tokens[0], ":"))
			ret = append(ret, statement{kind: stmtLabel, line: line, label: name})
			tokens = tokens[1:]
		}
		if len(tokens) == 0 {
			continue
		}

		mnemonic := strings.ToLower(tokens[0])
		if mnemonic == "data" {
			m := dataRe.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("wrong data format: %q", line)
			}
			ret = append(ret, statement{kind: stmtData, line: line, data: m[1]})
			continue
		}

		op, ok := isa.Mnemonics[mnemonic]
		if !ok {
			return nil, fmt.Errorf("wrong mnemonic %q in line %q", mnemonic, line)
		}

		if op == isa.LDCNST {
			if len(tokens) != 3 {
				return nil, fmt.Errorf("ldcnst wants a register and a constant: %q", line)
			}
			reg, err := parseReg(tokens[1], line)
			if err != nil {
				return nil, err
			}
			ret = append(ret, statement{
				kind: stmtLdcnst,
				line: line,
				reg:  reg,
				imm:  strings.ToLower(tokens[2]),
			})
			continue
		}

		s := statement{kind: stmtCommand, line: line, op: op}
		for _, tok := range tokens[1:] {
			reg, err := parseReg(tok, line)
			if err != nil {
				return nil, err
			}
			s.regs = append(s.regs, reg)
		}
		if err := checkOperands(op, len(s.regs), line); err != nil {
			return nil, err
		}
		ret = append(ret, s)
	}
	return ret, nil
}

func parseReg(tok, line string) (isa.Reg, error) {
	reg, ok := isa.RegNames[strings.ToLower(tok)]
	if !ok {
		return 0, fmt.Errorf("wrong register name %q in line %q", tok, line)
	}
	return reg, nil
}

func checkOperands(op isa.Opcode, n int, line string) error {
	want := 0
	switch isa.Catalog[op].Form {
	case isa.FormDst, isa.FormSrc:
		want = 1
	case isa.FormSrcDst:
		want = 2
	}
	if n != want {
		return fmt.Errorf("%s wants %d operands, got %d: %q", op.Mnemonic(), want, n, line)
	}
	return nil
}

// layoutLabels walks the statements once, counting emitted words: a command
// is one word, an ldcnst two (opcode + immediate), a data string one per
// character.
func layoutLabels(statements []statement) map[string]uint16 {
	labels := make(map[string]uint16)
	var offset uint16
	for _, s := range statements {
		switch s.kind {
		case stmtCommand:
			offset++
		case stmtLdcnst:
			offset += 2
		case stmtData:
			offset += uint16(len(s.data))
		case stmtLabel:
			labels[s.label] = offset
		}
	}
	return labels
}

func encode(statements []statement, labels map[string]uint16) ([]uint16, error) {
	var ret []uint16
	for _, s := range statements {
		switch s.kind {
		case stmtCommand:
			var src, dst isa.Reg
			switch len(s.regs) {
			case 1:
				if s.op == isa.PUSH {
					src = s.regs[0]
				} else {
					dst = s.regs[0]
				}
			case 2:
				src, dst = s.regs[0], s.regs[1]
			}
			ret = append(ret, isa.Encode(s.op, src, dst))
		case stmtLdcnst:
			ret = append(ret, isa.Encode(isa.LDCNST, 0, s.reg))
			if s.imm[0] >= '0' && s.imm[0] <= '9' {
				constant, err := strconv.ParseUint(s.imm, 10, 16)
				if err != nil {
					return nil, fmt.Errorf("bad constant %q in line %q", s.imm, s.line)
				}
				ret = append(ret, uint16(constant))
			} else if location, ok := labels[s.imm]; ok {
				ret = append(ret, location)
			} else {
				return nil, fmt.Errorf("unknown label %q in line %q", s.imm, s.line)
			}
		case stmtData:
			for _, c := range s.data {
				ret = append(ret, uint16(c))
			}
		case stmtLabel:
		}
	}
	return ret, nil
}
