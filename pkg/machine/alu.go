package machine

import (
	"github.com/capturcus/mmachine/pkg/isa"
	"github.com/capturcus/mmachine/pkg/word"
)

// ALU is both a microstep participant (the combinational add/sub/mul/div
// behind the AluOut line) and a background mailbox consumer that keeps its
// A/B latches in sync with registers A and B. The latches are only ever
// written through the mailbox, never from the bus.
type ALU struct {
	regA  word.Word
	regB  word.Word
	flags *Flags

	mail  <-chan aluMessage
	irOut chan<- *word.Word
	done  chan<- struct{}
}

// Run consumes the mailbox until it is closed. Every message updates a
// latch (or forwards the instruction register to the control unit),
// recomputes the flags and acknowledges with one drain token. The control
// unit collects exactly as many tokens per microstep as register writes
// occurred, so latch updates never leak into the next microstep.
func (a *ALU) Run() {
	for msg := range a.mail {
		switch msg.reg {
		case isa.RegA:
			a.regA.Set(msg.value)
		case isa.RegB:
			a.regB.Set(msg.value)
		case isa.RegINST:
			a.irOut <- msg.value
		}
		a.flags.update(&a.regA, &a.regB)
		a.done <- struct{}{}
	}
}

// Step produces a result on the bus when AluOut is asserted. AddMul and
// SubDiv select the operation; the latches are left untouched.
func (a *ALU) Step(bus *Bus, cables *Cables) {
	if !cables.On(AluOut) {
		return
	}
	result := a.regA.Clone()
	switch {
	case !cables.On(AddMul) && !cables.On(SubDiv):
		result.Add(&a.regB)
	case !cables.On(AddMul) && cables.On(SubDiv):
		result.Sub(&a.regB)
	case cables.On(AddMul) && !cables.On(SubDiv):
		result.Mul(&a.regB)
	default:
		result.Div(&a.regB)
	}
	bus.Write(result)
}
