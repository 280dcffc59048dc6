package main

import (
	"fmt"
	"strings"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/capturcus/mmachine/pkg/isa"
	"github.com/capturcus/mmachine/pkg/machine"
)

// runDebug runs the machine one microstep at a time behind a terminal
// inspector. Enter or space advances a microstep, q quits.
func runDebug(cfg machine.Config) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("failed to initialize termui: %w", err)
	}
	defer ui.Close()

	stepped := make(chan struct{})
	resume := make(chan struct{})
	cfg.OnStep = func(*machine.Machine) {
		stepped <- struct{}{}
		<-resume
	}
	m := machine.New(cfg)

	done := make(chan error, 1)
	go func() { done <- m.Run() }()

	paragraphCPU := widgets.NewParagraph()
	paragraphCPU.Title = "CPU"
	paragraphCPU.SetRect(0, 0, 40, 13)

	paragraphCables := widgets.NewParagraph()
	paragraphCables.Title = "Control lines"
	paragraphCables.SetRect(40, 0, 90, 5)

	paragraphCode := widgets.NewParagraph()
	paragraphCode.Title = "Program"
	paragraphCode.SetRect(0, 13, 40, 27)

	paragraphStack := widgets.NewParagraph()
	paragraphStack.Title = "Stack"
	paragraphStack.SetRect(40, 8, 90, 27)

	paragraphTips := widgets.NewParagraph()
	paragraphTips.Text = "<Enter>/<Space> step, q quit"
	paragraphTips.SetRect(40, 5, 90, 8)

	halted := false
	var runErr error
	render := func() {
		renderCPU(paragraphCPU, m, halted)
		paragraphCables.Text = m.CableDump()
		renderMemory(paragraphCode, m, m.Register(isa.RegPC))
		renderMemory(paragraphStack, m, m.Register(isa.RegSP))
		ui.Render(paragraphCPU, paragraphCables, paragraphCode, paragraphStack, paragraphTips)
	}

	select {
	case <-stepped:
	case runErr = <-done:
		halted = true
	}
	render()

	for e := range ui.PollEvents() {
		switch e.ID {
		case "q", "<C-c>":
			return runErr
		case "<Enter>", "<Space>":
			if halted {
				continue
			}
			resume <- struct{}{}
			select {
			case <-stepped:
			case runErr = <-done:
				halted = true
			}
			render()
		case "<Resize>":
			render()
		}
	}
	return runErr
}

func renderCPU(p *widgets.Paragraph, m *machine.Machine, halted bool) {
	sb := &strings.Builder{}
	for r := isa.Reg(0); r < isa.NumRegisters; r++ {
		sb.WriteString(fmt.Sprintf("%-5s $%04X [%d]\n", r.Name(), m.Register(r), m.Register(r)))
	}
	sb.WriteString(fmt.Sprintf("mar $%04X mdr $%04X eq:%v gt:%v\n",
		m.MAR(), m.MDR(), m.Flags().Equal(), m.Flags().Greater()))
	if halted {
		sb.WriteString("[HALTED](fg:red)")
	} else {
		sb.WriteString(fmt.Sprintf("next: %s", isa.Disassemble(m.IR())))
	}
	p.Text = sb.String()
}

func renderMemory(p *widgets.Paragraph, m *machine.Machine, center uint16) {
	sb := &strings.Builder{}
	start := center - 5
	for i := uint16(0); i < 11; i++ {
		addr := start + i
		line := fmt.Sprintf("$%04X: $%04X  %s", addr, m.Memory(addr), isa.Disassemble(m.Memory(addr)))
		if addr == center {
			line = fmt.Sprintf("[%s](fg:cyan)", line)
		}
		sb.WriteString(line)
		sb.WriteRune('\n')
	}
	p.Text = sb.String()
}
