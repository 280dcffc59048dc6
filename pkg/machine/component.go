package machine

import "sync"

// Component is one device hanging off the bus. Each microstep the control
// unit signals every component once; the component inspects the control
// lines it owns, performs its bus access and reports back.
type Component interface {
	Step(bus *Bus, cables *Cables)
}

// runComponent drives a component until its step channel is closed. After
// every step it sends one completion token to the control unit's clock
// channel; the barrier counts these.
func runComponent(c Component, bus *Bus, cables *Cables, step <-chan struct{}, clock chan<- struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	for range step {
		c.Step(bus, cables)
		clock <- struct{}{}
	}
}
