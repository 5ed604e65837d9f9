package graph

// ProgressEvent describes how far a run has advanced.
//
// Remaining is the estimated number of seconds left. It is nil while no
// estimate is available, i.e. before the first chunk completed.
type ProgressEvent struct {
	Current   int      `json:"current"`
	Total     int      `json:"total"`
	Message   string   `json:"message"`
	Remaining *float64 `json:"remaining,omitempty"`
}

// ProgressObserver receives progress events of a run. Implementations are
// called synchronously from the goroutine driving the run.
type ProgressObserver interface {
	OnProgress(event ProgressEvent)
}

// ProgressFunc adapts a function to ProgressObserver.
type ProgressFunc func(event ProgressEvent)

func (f ProgressFunc) OnProgress(event ProgressEvent) {
	f(event)
}

type observers []ProgressObserver

func (o observers) OnProgress(event ProgressEvent) {
	for _, obs := range o {
		obs.OnProgress(event)
	}
}

// MultiObserver fans events out to every non-nil observer in order.
// It returns nil when no observer remains.
func MultiObserver(obs ...ProgressObserver) ProgressObserver {
	var out observers
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

func emit(observer ProgressObserver, event ProgressEvent) {
	if observer == nil {
		return
	}
	observer.OnProgress(event)
}
