package machine

import (
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/capturcus/mmachine/pkg/isa"
	"github.com/capturcus/mmachine/pkg/word"
)

// ControlUnit sequences microcodes. Each microstep it rewrites the control
// lines, releases every component, waits for all of them on the clock
// barrier, drains the ALU mailbox acknowledgements and picks up a freshly
// fetched instruction if one arrived.
type ControlUnit struct {
	cables *Cables
	flags  *Flags

	ir    word.Word
	codes Microcode
	mc    int

	step      []chan struct{}
	clock     <-chan struct{}
	aluDone   <-chan struct{}
	irIn      <-chan *word.Word
	sentToALU *atomic.Int64

	onStep func()
	err    error
}

// IR returns the control unit's copy of the instruction register.
func (cu *ControlUnit) IR() uint16 { return cu.ir.Uint16() }

// Microstep returns the index of the next microstep within the current
// microcode list.
func (cu *ControlUnit) Microstep() int { return cu.mc }

// Run executes microsteps until a Halt line or a decode fault. The machine
// boots with the fetch sequence so the first instruction loads itself.
func (cu *ControlUnit) Run() {
	trace := log.IsLevelEnabled(log.DebugLevel)
	for {
		cu.cables.Reset()
		if cu.mc == len(cu.codes) {
			codes, err := Decode(cu.ir.Uint16(), cu.flags)
			if err != nil {
				cu.err = err
				return
			}
			cu.codes = codes
			cu.mc = 0
			if trace {
				log.Debugf("decoded %s", isa.Disassemble(cu.ir.Uint16()))
			}
		}
		for _, line := range cu.codes[cu.mc] {
			cu.cables.Set(line)
		}
		if cu.cables.On(Halt) {
			return
		}
		if trace {
			log.Debugf("microstep %d: %s", cu.mc, cu.cables)
		}

		for _, ch := range cu.step {
			ch <- struct{}{}
		}
		for i := 0; i < len(cu.step); i++ {
			<-cu.clock
		}

		for n := cu.sentToALU.Swap(0); n > 0; n-- {
			<-cu.aluDone
		}
		select {
		case ir := <-cu.irIn:
			cu.ir.Set(ir)
		default:
		}

		cu.mc++
		if cu.onStep != nil {
			cu.onStep()
		}
	}
}
