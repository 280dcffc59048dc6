package machine

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/capturcus/mmachine/pkg/isa"
	"github.com/capturcus/mmachine/pkg/word"
)

// InputHandler answers a read from an input port. Returning ok=false means
// "no data this cycle": the bus is left unwritten and the machine stalls on
// its next bus read, which is the documented behaviour for programs that
// poll a port nobody feeds.
type InputHandler func(port uint16) (uint16, bool)

// OutputHandler consumes a word written to an output port.
type OutputHandler func(PortWrite)

// Config describes one machine instance.
type Config struct {
	// Program is loaded into RAM starting at address 0; the rest is zeroed.
	Program []uint16

	// Input services IN instructions. Nil means no port ever has data.
	Input InputHandler

	// Output services OUT instructions. Nil selects the default handler:
	// port 1 writes the low byte of the value to Console as a character,
	// every other port logs the write.
	Output OutputHandler

	// Console is the character device behind port 1. Defaults to stdout.
	Console io.Writer

	// OnStep, if set, runs on the control-unit goroutine after every
	// microstep, with all components idle. Blocking here implements
	// single-step execution.
	OnStep func(*Machine)
}

// Machine is a fully wired simulator instance: bus, control lines, eight
// registers, ALU, RAM and the control unit, each component on its own
// goroutine once Run is called.
type Machine struct {
	cfg Config

	bus    *Bus
	cables *Cables
	flags  *Flags
	regs   [isa.NumRegisters]*Register
	alu    *ALU
	ram    *RAM
	ctrl   *ControlUnit

	mail      chan aluMessage
	aluDone   chan struct{}
	irCh      chan *word.Word
	output    chan PortWrite
	inputReq  chan uint16
	inputResp chan *word.Word
	clock     chan struct{}
	sentToALU atomic.Int64
}

// New builds a machine from cfg. SP boots at the highest RAM address, every
// other register at zero.
func New(cfg Config) *Machine {
	if cfg.Console == nil {
		cfg.Console = os.Stdout
	}

	m := &Machine{
		cfg:    cfg,
		bus:    NewBus(),
		cables: &Cables{},
		flags:  &Flags{},
	}

	// Mailbox and drain channels are buffered so the ALU never blocks
	// mid-microstep while the control unit is still waiting on the barrier.
	m.mail = make(chan aluMessage, isa.NumRegisters)
	m.aluDone = make(chan struct{}, isa.NumRegisters)
	m.irCh = make(chan *word.Word, 1)
	m.output = make(chan PortWrite)
	m.inputReq = make(chan uint16)
	m.inputResp = make(chan *word.Word)

	m.alu = &ALU{
		flags: m.flags,
		mail:  m.mail,
		irOut: m.irCh,
		done:  m.aluDone,
	}

	memory := make([]word.Word, RAMSize)
	for i, v := range cfg.Program {
		memory[i].Store(v)
		log.Debugf("loaded %s", memory[i].String())
	}
	m.ram = &RAM{
		memory:    memory,
		output:    m.output,
		inputReq:  m.inputReq,
		inputResp: m.inputResp,
	}

	for i := range m.regs {
		m.regs[i] = &Register{
			reg:       isa.Reg(i),
			aluMail:   m.mail,
			sentToALU: &m.sentToALU,
		}
	}
	m.regs[isa.RegSP].value.Store(RAMSize - 1)

	numComponents := 2 + isa.NumRegisters
	m.clock = make(chan struct{}, numComponents)
	step := make([]chan struct{}, numComponents)
	for i := range step {
		step[i] = make(chan struct{})
	}

	m.ctrl = &ControlUnit{
		cables:    m.cables,
		flags:     m.flags,
		codes:     FetchMicrocode(),
		step:      step,
		clock:     m.clock,
		aluDone:   m.aluDone,
		irIn:      m.irCh,
		sentToALU: &m.sentToALU,
	}
	if cfg.OnStep != nil {
		m.ctrl.onStep = func() { cfg.OnStep(m) }
	}

	return m
}

// Run starts every component and executes the loaded program until it
// halts. It returns the simulation fault, if any.
func (m *Machine) Run() error {
	var components, aux sync.WaitGroup

	aux.Add(3)
	go func() {
		defer aux.Done()
		m.alu.Run()
	}()
	go func() {
		defer aux.Done()
		m.serveInput()
	}()
	go func() {
		defer aux.Done()
		m.serveOutput()
	}()

	all := []Component{m.alu, m.ram}
	for _, r := range m.regs {
		all = append(all, r)
	}
	for i, c := range all {
		components.Add(1)
		go runComponent(c, m.bus, m.cables, m.ctrl.step[i], m.clock, &components)
	}

	m.ctrl.Run()

	// Halted (or faulted) between microsteps: every component is parked on
	// its step channel, so closing the channels unwinds the whole machine.
	for _, ch := range m.ctrl.step {
		close(ch)
	}
	components.Wait()
	close(m.mail)
	close(m.inputReq)
	close(m.output)
	aux.Wait()

	return m.ctrl.err
}

func (m *Machine) serveInput() {
	for port := range m.inputReq {
		if m.cfg.Input != nil {
			if v, ok := m.cfg.Input(port); ok {
				m.inputResp <- word.FromUint16(v)
				continue
			}
		}
		m.inputResp <- nil
	}
}

func (m *Machine) serveOutput() {
	for pw := range m.output {
		if m.cfg.Output != nil {
			m.cfg.Output(pw)
			continue
		}
		if pw.Port == 1 {
			m.cfg.Console.Write([]byte{byte(pw.Value)})
		} else {
			log.Infof("OUTPUT: port %d value %d", pw.Port, pw.Value)
		}
	}
}

// Register returns the current content of register r.
func (m *Machine) Register(r isa.Reg) uint16 { return m.regs[r].Value() }

// Memory returns the word stored at addr.
func (m *Machine) Memory(addr uint16) uint16 { return m.ram.At(addr) }

// MAR returns the memory address register.
func (m *Machine) MAR() uint16 { return m.ram.MAR() }

// MDR returns the memory data register.
func (m *Machine) MDR() uint16 { return m.ram.MDR() }

// Flags returns the machine status word.
func (m *Machine) Flags() *Flags { return m.flags }

// IR returns the control unit's instruction register copy.
func (m *Machine) IR() uint16 { return m.ctrl.IR() }

// CableDump renders the currently asserted control lines.
func (m *Machine) CableDump() string { return m.cables.String() }
