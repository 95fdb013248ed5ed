package alert

// Sink receives presentation events. Publish must not block for long and
// never reports failure: a torn-down renderer must not affect the engine.
type Sink interface {
	Publish(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event)

// Publish calls f(ev).
func (f SinkFunc) Publish(ev Event) { f(ev) }

// MultiSink fans every event out to all sinks in order.
type MultiSink []Sink

// Publish forwards ev to every non-nil sink.
func (m MultiSink) Publish(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(ev)
		}
	}
}

// NopSink discards every event.
var NopSink Sink = SinkFunc(func(Event) {})
