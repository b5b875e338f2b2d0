package system

import "testing"

type recordingSystem struct {
	phase Phase
	name  string
	trace *[]string
}

func (s *recordingSystem) Phase() Phase { return s.phase }

func (s *recordingSystem) Update(tick int64) {
	*s.trace = append(*s.trace, s.name)
}

func TestRunnerExecutesInPhaseOrder(t *testing.T) {
	var trace []string
	r := NewRunner()
	r.Register(&recordingSystem{phase: PhaseCleanup, name: "cleanup", trace: &trace})
	r.Register(&recordingSystem{phase: PhasePreUpdate, name: "pre", trace: &trace})
	r.Register(&recordingSystem{phase: PhaseUpdate, name: "update", trace: &trace})

	r.Tick(1)

	want := []string{"pre", "update", "cleanup"}
	for i, name := range want {
		if trace[i] != name {
			t.Fatalf("order %v, want %v", trace, want)
		}
	}
}

func TestRunnerKeepsRegistrationOrderWithinPhase(t *testing.T) {
	var trace []string
	r := NewRunner()
	r.Register(&recordingSystem{phase: PhaseUpdate, name: "a", trace: &trace})
	r.Register(&recordingSystem{phase: PhaseUpdate, name: "b", trace: &trace})
	r.Register(&recordingSystem{phase: PhaseUpdate, name: "c", trace: &trace})

	r.Tick(1)

	if trace[0] != "a" || trace[1] != "b" || trace[2] != "c" {
		t.Fatalf("within-phase order not stable: %v", trace)
	}
}
