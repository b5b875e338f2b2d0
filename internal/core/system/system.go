package system

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhasePreUpdate Phase = iota // 0: dispatch last tick's events
	PhaseUpdate                 // 1: simulation logic (ground-item lifecycle)
	PhaseCleanup                // 2: sweeps and evictions
)

// System is the interface every tick-driven system implements.
// Update receives the current tick number: the scheduler guarantees strictly
// increasing ticks, one call per tick, no re-entrancy.
type System interface {
	Phase() Phase
	Update(tick int64)
}
