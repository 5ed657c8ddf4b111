package tool

import "sync"

// InvokeObservation captures one dispatch outcome.
type InvokeObservation struct {
	ToolName   string
	Transport  string
	DurationMS int64
	Success    bool
	ErrorCode  string
}

// ProbeObservation captures one background upstream probe outcome.
type ProbeObservation struct {
	DurationMS int64
	Success    bool
	ErrorCode  string
}

// Observer receives dispatch-level observability events.
type Observer interface {
	ObserveInvoke(observation InvokeObservation)
	ObserveProbe(observation ProbeObservation)
}

type noopObserver struct{}

func (noopObserver) ObserveInvoke(InvokeObservation) {}
func (noopObserver) ObserveProbe(ProbeObservation)  {}

var (
	observerMu     sync.RWMutex
	activeObserver Observer = noopObserver{}
)

// SetObserver sets the process-wide observability observer. Passing nil
// restores the no-op observer.
func SetObserver(observer Observer) {
	observerMu.Lock()
	defer observerMu.Unlock()
	if observer == nil {
		activeObserver = noopObserver{}
		return
	}
	activeObserver = observer
}

// EmitInvokeObservation forwards one dispatch observation to the active observer.
func EmitInvokeObservation(observation InvokeObservation) {
	observerMu.RLock()
	observer := activeObserver
	observerMu.RUnlock()
	observer.ObserveInvoke(observation)
}

// EmitProbeObservation forwards one probe observation to the active observer.
func EmitProbeObservation(observation ProbeObservation) {
	observerMu.RLock()
	observer := activeObserver
	observerMu.RUnlock()
	observer.ObserveProbe(observation)
}
