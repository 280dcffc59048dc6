package machine

import (
	"sync"

	"github.com/capturcus/mmachine/pkg/word"
)

// Bus is the single-word rendezvous between two components in a microstep.
// At most one component writes and at most one reads per microstep; the
// microcode generator guarantees this, the bus only serialises the handoff.
type Bus struct {
	mu    sync.Mutex
	cond  *sync.Cond
	value word.Word
	full  bool
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	b := &Bus{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Write publishes v on the bus and wakes the reader. Blocks while a
// previously written value has not been consumed yet.
func (b *Bus) Write(v *word.Word) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.full {
		b.cond.Wait()
	}
	b.value.Set(v)
	b.full = true
	b.cond.Broadcast()
}

// Read blocks until a value is available, consumes it and copies it into
// dst. A second Read without an intervening Write blocks again.
func (b *Bus) Read(dst *word.Word) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for !b.full {
		b.cond.Wait()
	}
	dst.Set(&b.value)
	b.full = false
	b.cond.Broadcast()
}
