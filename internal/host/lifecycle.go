package host

import "github.com/tevino/abool"

// State is one stage of a host's run lifecycle: Idle before Run is called,
// Active while its event loop is spinning, Stopping once a Crash command
// has been observed but the loop hasn't exited yet, Terminated after it
// has. Modeled as a tagged interface rather than a plain enum so future
// stages (e.g. a draining state) can carry their own data without
// reshaping every switch that inspects one.
type State interface {
	Name() string
	IsTerminated() bool
}

type idleState struct{}

func (idleState) Name() string      { return "Idle" }
func (idleState) IsTerminated() bool { return false }

type activeState struct{}

func (activeState) Name() string      { return "Active" }
func (activeState) IsTerminated() bool { return false }

type stoppingState struct{}

func (stoppingState) Name() string      { return "Stopping" }
func (stoppingState) IsTerminated() bool { return false }

type terminatedState struct{}

func (terminatedState) Name() string      { return "Terminated" }
func (terminatedState) IsTerminated() bool { return true }

var (
	Idle       State = idleState{}
	Active     State = activeState{}
	Stopping   State = stoppingState{}
	Terminated State = terminatedState{}
)

// Lifecycle tracks a host's current State plus a lock-free flag mirroring
// "am I still inside my Run loop", read by any goroutine that needs to
// check liveness without taking the host's own single-threaded loop lock
// (there isn't one — the flag is the only thing hosts expose across
// goroutines).
type Lifecycle struct {
	state  State
	active *abool.AtomicBool
}

// NewLifecycle returns a Lifecycle starting at Idle.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: Idle, active: abool.New()}
}

// Current returns the lifecycle's current State.
func (l *Lifecycle) Current() State {
	return l.state
}

// Start transitions Idle -> Active.
func (l *Lifecycle) Start() {
	l.state = Active
	l.active.Set()
}

// RequestStop transitions Active -> Stopping, observed cooperatively at
// the top of the next loop iteration.
func (l *Lifecycle) RequestStop() {
	l.state = Stopping
	l.active.UnSet()
}

// Finish transitions Stopping -> Terminated once the loop has actually
// exited.
func (l *Lifecycle) Finish() {
	l.state = Terminated
}

// IsActive reports whether the host's loop should keep iterating.
func (l *Lifecycle) IsActive() bool {
	return l.active.IsSet()
}
