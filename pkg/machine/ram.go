package machine

import (
	"github.com/capturcus/mmachine/pkg/word"
)

// RAMSize is the number of addressable words.
const RAMSize = 1 << word.Bitness

// PortWrite is one word written to a memory-mapped output port.
type PortWrite struct {
	Port  uint16
	Value uint16
}

// RAM is the memory component: 64K words plus the memory address and memory
// data registers. When MemoryIsIO is asserted the address names a logical
// port instead of a cell: writes go to the output channel, reads ask the
// input channel and may come back empty.
type RAM struct {
	memory []word.Word
	mar    word.Word
	mdr    word.Word

	output    chan<- PortWrite
	inputReq  chan<- uint16
	inputResp <-chan *word.Word
}

// MAR returns the memory address register content.
func (r *RAM) MAR() uint16 { return r.mar.Uint16() }

// MDR returns the memory data register content.
func (r *RAM) MDR() uint16 { return r.mdr.Uint16() }

// At returns the word stored at addr.
func (r *RAM) At(addr uint16) uint16 { return r.memory[addr].Uint16() }

// Step handles MemoryAddressIn, RamIn and RamOut, in that order.
func (r *RAM) Step(bus *Bus, cables *Cables) {
	if cables.On(MemoryAddressIn) {
		bus.Read(&r.mar)
		if !cables.On(MemoryIsIO) {
			r.mdr.Set(&r.memory[r.mar.Uint16()])
		}
	}
	if cables.On(RamIn) {
		bus.Read(&r.mdr)
		if cables.On(MemoryIsIO) {
			r.output <- PortWrite{Port: r.mar.Uint16(), Value: r.mdr.Uint16()}
		} else {
			r.memory[r.mar.Uint16()].Set(&r.mdr)
		}
	}
	if cables.On(RamOut) {
		if cables.On(MemoryIsIO) {
			r.inputReq <- r.mar.Uint16()
			if v := <-r.inputResp; v != nil {
				bus.Write(v)
			}
		} else {
			r.mdr.Set(&r.memory[r.mar.Uint16()])
			bus.Write(&r.mdr)
		}
	}
}
