package engine

// Event is one progress notification. Percent is monotonic across a run and
// exactly one event has Terminal set, whatever the outcome.
type Event struct {
	Stage    string
	Percent  int
	Message  string
	Terminal bool
}

// ProgressFunc receives events synchronously on the executing goroutine.
// Implementations must be fast and must not panic.
type ProgressFunc func(Event)

// progressEmitter enforces the event contract: percent never moves backward
// and the terminal event fires once.
type progressEmitter struct {
	fn       ProgressFunc
	last     int
	terminal bool
}

func (p *progressEmitter) emit(stage string, percent int, msg string) {
	if p.fn == nil {
		return
	}
	if percent < p.last {
		percent = p.last
	}
	if percent > 100 {
		percent = 100
	}
	p.last = percent
	p.fn(Event{Stage: stage, Percent: percent, Message: msg})
}

func (p *progressEmitter) finish(stage string, msg string) {
	if p.fn == nil || p.terminal {
		return
	}
	p.terminal = true
	if p.last < 100 && stage == "done" {
		p.last = 100
	}
	p.fn(Event{Stage: stage, Percent: p.last, Message: msg, Terminal: true})
}
