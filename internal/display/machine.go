package display

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/mikeburns/lobbyscope/internal/memogen"
)

// State is where the display loop currently is.
type State int

const (
	// Revealing: the current stage still has buffered text to show.
	Revealing State = iota
	// Lingering: the current stage is fully shown and complete; holding
	// for the configured number of ticks before moving on.
	Lingering
	// AwaitingDecision: paused at the checkpoint stage for Accept or
	// Reject.
	AwaitingDecision
	// Done: nothing further will be revealed.
	Done
)

// Config tunes the display pace.
type Config struct {
	// CharsPerTick is how many characters each tick reveals.
	CharsPerTick int
	// LingerTicks is how many ticks a finished stage stays on screen
	// before the next stage starts revealing.
	LingerTicks int
	// TotalStages is how many stages the stream carries.
	TotalStages int
	// CheckpointStage pauses for a decision after that stage has fully
	// revealed and lingered. Zero disables the pause.
	CheckpointStage int
}

// Machine holds per-stage buffers fed by the data loop and a display
// cursor advanced by Tick. Stage N+1 never starts revealing before stage
// N is complete, fully revealed, and has lingered, no matter how far
// ahead the stream has run.
type Machine struct {
	mu sync.Mutex

	cfg Config

	buffers  []string
	complete []bool

	stage    int
	cursor   int
	lingered int
	state    State

	streamDone bool
	rejected   bool
	errMsg     string

	firm           string
	prospect       string
	memosRemaining int
}

// NewMachine builds a machine. Zero config fields get workable defaults.
func NewMachine(cfg Config) *Machine {
	if cfg.CharsPerTick <= 0 {
		cfg.CharsPerTick = 24
	}
	if cfg.LingerTicks < 0 {
		cfg.LingerTicks = 0
	}
	if cfg.TotalStages <= 0 {
		cfg.TotalStages = 4
	}
	return &Machine{
		cfg:      cfg,
		buffers:  make([]string, cfg.TotalStages+1),
		complete: make([]bool, cfg.TotalStages+1),
		stage:    1,
	}
}

// HandleEvent is the data loop: it buffers stream progress without
// touching the display cursor.
func (m *Machine) HandleEvent(e memogen.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch e.Type {
	case memogen.EventMeta:
		if e.Firm != nil {
			m.firm = e.Firm.Name
		}
		if e.Prospect != nil {
			m.prospect = e.Prospect.Name
		}
	case memogen.EventText:
		if e.Stage >= 1 && e.Stage <= m.cfg.TotalStages {
			m.buffers[e.Stage] += e.Content
		}
	case memogen.EventStage:
		if e.Status == memogen.StatusComplete && e.Stage >= 1 && e.Stage <= m.cfg.TotalStages {
			m.complete[e.Stage] = true
		}
	case memogen.EventDone:
		m.streamDone = true
		if e.MemosRemaining != nil {
			m.memosRemaining = *e.MemosRemaining
		}
	case memogen.EventError:
		m.errMsg = e.Message
		m.state = Done
	}
}

// Tick is the display loop: reveal up to CharsPerTick characters of the
// current stage, then linger, then advance or pause at the checkpoint.
func (m *Machine) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == AwaitingDecision || m.state == Done {
		return
	}

	buf := m.buffers[m.stage]
	if m.cursor < len(buf) {
		m.state = Revealing
		m.cursor += m.cfg.CharsPerTick
		if m.cursor > len(buf) {
			m.cursor = len(buf)
		}
		return
	}

	// Caught up with the buffer. Wait for more text until the stage is
	// marked complete.
	if !m.complete[m.stage] {
		m.state = Revealing
		return
	}

	if m.lingered < m.cfg.LingerTicks {
		m.state = Lingering
		m.lingered++
		return
	}

	if m.stage == m.cfg.CheckpointStage {
		m.state = AwaitingDecision
		return
	}
	m.advanceLocked()
}

func (m *Machine) advanceLocked() {
	if m.stage >= m.cfg.TotalStages {
		m.state = Done
		return
	}
	m.stage++
	m.cursor = 0
	m.lingered = 0
	m.state = Revealing
}

// Accept resumes after the checkpoint.
func (m *Machine) Accept() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != AwaitingDecision {
		return
	}
	m.advanceLocked()
}

// Reject ends the run at the checkpoint; the stage 1 draft stands as the
// final memo.
func (m *Machine) Reject() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != AwaitingDecision {
		return
	}
	m.rejected = true
	m.state = Done
}

// State returns the display loop's current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Stage returns the stage currently being displayed.
func (m *Machine) Stage() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage
}

// Revealed returns the revealed portion of a stage. Past stages are fully
// revealed; future stages are empty regardless of how much is buffered.
func (m *Machine) Revealed(stage int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stage < 1 || stage > m.cfg.TotalStages {
		return ""
	}
	if stage < m.stage {
		return m.buffers[stage]
	}
	if stage > m.stage {
		return ""
	}
	return m.buffers[stage][:m.cursor]
}

// Final returns the final memo text once the run is over. After a
// rejection that is the stage 1 draft; otherwise the last stage.
func (m *Machine) Final() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Done || m.errMsg != "" {
		return "", false
	}
	if m.rejected {
		return m.buffers[1], true
	}
	return m.buffers[m.cfg.TotalStages], true
}

// Rejected reports whether the run ended by rejecting the checkpoint.
func (m *Machine) Rejected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rejected
}

// Err returns the in-band stream error, empty when none arrived.
func (m *Machine) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// MemosRemaining returns the quota reported by the done event.
func (m *Machine) MemosRemaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.memosRemaining
}

// Run drives the machine against a live stream: one goroutine feeds
// events from the decoder, a ticker advances the display. onTick is
// called after every tick with the machine so the caller can repaint.
// Run returns when the display reaches Done or the context is canceled.
func (m *Machine) Run(ctx context.Context, dec *Decoder, interval time.Duration, onTick func(*Machine)) error {
	readErr := make(chan error, 1)
	go func() {
		for {
			e, err := dec.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				readErr <- err
				return
			}
			m.HandleEvent(e)
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				return err
			}
			// Stream ended; keep ticking until everything buffered has
			// been revealed.
		case <-ticker.C:
			m.Tick()
			if onTick != nil {
				onTick(m)
			}
			if m.State() == Done {
				return nil
			}
		}
	}
}
