// Package progress implements the live install progress display:
// a thread-safe total/done counter that both the resolver and the
// linker drive, optionally rendered as a Bubble Tea program.
package progress

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tsukinoko-kun/disize"
)

// Tracker is a thread-safe unit counter. Resolve and link each call Add
// when they discover new work and Tick when one unit finishes; both are
// satisfied by *Tracker, matching the small Tracker interfaces those
// packages declare locally.
type Tracker struct {
	total int64
	done  int64
	bytes int64

	programMu sync.Mutex
	program   *tea.Program
}

// New returns a Tracker with no live rendering attached.
func New() *Tracker {
	return &Tracker{}
}

// Add increases the total unit count by n.
func (t *Tracker) Add(n int) {
	atomic.AddInt64(&t.total, int64(n))
	t.render()
}

// Tick marks one unit done.
func (t *Tracker) Tick() {
	atomic.AddInt64(&t.done, 1)
	t.render()
}

// AddBytes records n bytes of tarball fetched so far, for display only.
func (t *Tracker) AddBytes(n int64) {
	atomic.AddInt64(&t.bytes, n)
	t.render()
}

func (t *Tracker) snapshot() (done, total, bytes int64) {
	return atomic.LoadInt64(&t.done), atomic.LoadInt64(&t.total), atomic.LoadInt64(&t.bytes)
}

func (t *Tracker) render() {
	t.programMu.Lock()
	p := t.program
	t.programMu.Unlock()
	if p == nil {
		return
	}
	done, total, bytes := t.snapshot()
	p.Send(tickMsg{done: done, total: total, bytes: bytes})
}

// Start attaches a Bubble Tea program that renders this Tracker's state
// inline on stderr until Stop is called. Safe to skip entirely for
// non-interactive use (CI, scripting): the Tracker works as a plain
// counter without it.
func (t *Tracker) Start() error {
	t.programMu.Lock()
	defer t.programMu.Unlock()
	if t.program != nil {
		return fmt.Errorf("progress: already started")
	}

	t.program = tea.NewProgram(
		newModel(),
		tea.WithOutput(os.Stderr),
		tea.WithoutSignalHandler(),
		tea.WithInput(nil),
		tea.WithFPS(10),
	)
	p := t.program
	go func() {
		_, _ = p.Run()
	}()
	return nil
}

// Stop tears down the live display, if one was started.
func (t *Tracker) Stop() {
	t.programMu.Lock()
	defer t.programMu.Unlock()
	if t.program == nil {
		return
	}
	t.program.Quit()
	t.program = nil
	time.Sleep(50 * time.Millisecond)
}

type tickMsg struct {
	done, total, bytes int64
}

type model struct {
	done, total, bytes int64
}

func newModel() model { return model{} }

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if t, ok := msg.(tickMsg); ok {
		m.done, m.total, m.bytes = t.done, t.total, t.bytes
	}
	return m, nil
}

var barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

func (m model) View() string {
	if m.total == 0 {
		return ""
	}
	const width = 24
	filled := int(float64(width) * float64(m.done) / float64(m.total))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %d/%d packages (%s fetched)",
		barStyle.Render(bar), m.done, m.total, disize.Size(m.bytes))
}
