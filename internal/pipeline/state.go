package pipeline

// State is a stage of a single pipeline run
type State int

const (
	Idle State = iota
	Expanding
	Fetching
	Normalizing
	LayingOut
	Assembling
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Expanding:
		return "expanding"
	case Fetching:
		return "fetching"
	case Normalizing:
		return "normalizing"
	case LayingOut:
		return "laying_out"
	case Assembling:
		return "assembling"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions follow s
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// Hooks observe a run. Nil funcs are skipped.
// OnState is called from the goroutine executing Run, never concurrently
// for the same run.
type Hooks struct {
	OnState func(runID string, s State)
}

func (h Hooks) state(runID string, s State) {
	if h.OnState != nil {
		h.OnState(runID, s)
	}
}
