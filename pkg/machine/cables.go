package machine

import (
	"strings"
	"sync/atomic"

	"github.com/capturcus/mmachine/pkg/isa"
)

// Cable indexes one control line. The named lines come first; after regBase
// every register owns four consecutive lines (in, out, inc, dec).
type Cable int

const (
	Halt Cable = iota
	MemoryAddressIn
	RamIn
	RamOut
	MemoryIsIO
	AddMul
	SubDiv
	AluOut
	Interrupt
	Equal
	Greater

	regBase
)

// NumCables is the total number of control lines.
const NumCables = int(regBase) + 4*isa.NumRegisters

// RegIn returns the index of register r's bus-in line.
func RegIn(r isa.Reg) int { return int(regBase) + 4*int(r) }

// RegOut returns the index of register r's bus-out line.
func RegOut(r isa.Reg) int { return RegIn(r) + 1 }

// RegInc returns the index of register r's increment line.
func RegInc(r isa.Reg) int { return RegIn(r) + 2 }

// RegDec returns the index of register r's decrement line.
func RegDec(r isa.Reg) int { return RegIn(r) + 3 }

// Cables is the control-line array. The control unit writes it between
// barriers, components only read it during a microstep, so the individual
// atomics are all the synchronisation needed.
type Cables struct {
	lines [NumCables]atomic.Bool
}

// Set asserts line i.
func (c *Cables) Set(i int) { c.lines[i].Store(true) }

// Get reports line i.
func (c *Cables) Get(i int) bool { return c.lines[i].Load() }

// On reports a named line.
func (c *Cables) On(cable Cable) bool { return c.lines[cable].Load() }

// Reset deasserts every line.
func (c *Cables) Reset() {
	for i := range c.lines {
		c.lines[i].Store(false)
	}
}

var cableNames = [regBase]string{
	"Halt", "MemoryAddressIn", "RamIn", "RamOut", "MemoryIsIO",
	"AddMul", "SubDiv", "AluOut", "Interrupt", "Equal", "Greater",
}

var regOpNames = [4]string{"in", "out", "inc", "dec"}

// String dumps the asserted lines in ascending line-index order, e.g.
// "RamOut pc_inc inst_in".
func (c *Cables) String() string {
	var parts []string
	for i := 0; i < NumCables; i++ {
		if !c.lines[i].Load() {
			continue
		}
		if i < int(regBase) {
			parts = append(parts, cableNames[i])
		} else {
			reg := isa.Reg((i - int(regBase)) / 4)
			op := (i - int(regBase)) % 4
			parts = append(parts, reg.Name()+"_"+regOpNames[op])
		}
	}
	return strings.Join(parts, " ")
}
