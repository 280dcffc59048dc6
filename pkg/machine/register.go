package machine

import (
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/capturcus/mmachine/pkg/isa"
	"github.com/capturcus/mmachine/pkg/word"
)

var one = word.FromUint16(1)

// aluMessage carries a register snapshot to the ALU mailbox. Registers A and
// B feed the operand latches; INST routes the freshly fetched instruction on
// to the control unit.
type aluMessage struct {
	reg   isa.Reg
	value *word.Word
}

// Register is one general-purpose register component (this includes PC, SP
// and the instruction register, which differ only in their code).
type Register struct {
	reg       isa.Reg
	value     word.Word
	aluMail   chan<- aluMessage
	sentToALU *atomic.Int64
}

// Value returns a snapshot of the register content.
func (r *Register) Value() uint16 { return r.value.Uint16() }

// Step handles the four lines owned by this register, in order: in, out,
// inc, dec. In before out means a microstep may never assert both on the
// same register; in before inc/dec means "read the bus, then bump" when a
// microstep combines them.
func (r *Register) Step(bus *Bus, cables *Cables) {
	if cables.Get(RegIn(r.reg)) {
		bus.Read(&r.value)
		if r.reg == isa.RegA || r.reg == isa.RegB || r.reg == isa.RegINST {
			r.sentToALU.Add(1)
			r.aluMail <- aluMessage{r.reg, r.value.Clone()}
		}
		log.Debugf("register %s is now %d", r.reg.Name(), r.value.Uint16())
	}
	if cables.Get(RegOut(r.reg)) {
		bus.Write(&r.value)
	}
	if cables.Get(RegInc(r.reg)) {
		r.value.Add(one)
	}
	if cables.Get(RegDec(r.reg)) {
		r.value.Sub(one)
	}
}
