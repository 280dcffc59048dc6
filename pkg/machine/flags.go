package machine

import "github.com/capturcus/mmachine/pkg/word"

// Flag bit positions in the flags word.
const (
	FlagEqual   = 0
	FlagGreater = 1
)

// Flags is the machine status word. The ALU owns it and rewrites it on every
// latch update; the microcode generator reads it to resolve conditional
// jumps.
type Flags struct {
	bits word.Word
}

// Equal reports the A == B flag.
func (f *Flags) Equal() bool { return f.bits.Bit(FlagEqual) }

// Greater reports the A > B (unsigned) flag.
func (f *Flags) Greater() bool { return f.bits.Bit(FlagGreater) }

// Word exposes the underlying flags word.
func (f *Flags) Word() *word.Word { return &f.bits }

func (f *Flags) update(a, b *word.Word) {
	av, bv := a.Uint16(), b.Uint16()
	f.bits.SetBit(FlagEqual, av == bv)
	f.bits.SetBit(FlagGreater, av > bv)
}
