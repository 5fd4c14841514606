package marionette

// Event is one engine notification: a named trigger edge raised by a
// tracked input, or a session-level change.
type Event struct {
	// Name of the event, e.g. "select", "selectstart", "squeezeend",
	// or EventInputSourcesChange
	Name string

	// Source is the tracked input that raised the event; nil for
	// session-level events
	Source *TrackedInput
}

// Session-level event names. Trigger edges use the layout's trigger name
// plus the "start"/"end" suffix.
const (
	EventInputSourcesChange = "inputsourceschange"
)

// EventListener - callback for events
type EventListener func(event Event)

// Events manager. Dispatch is synchronous and in subscription order;
// listeners may mutate engine state and the caller is responsible for
// reasoning about that.
type Events struct {
	// Listeners by event name
	listeners map[string][]EventListener
}

func NewEvents() *Events {
	return &Events{
		listeners: make(map[string][]EventListener),
	}
}

// Subscribe adds a listener for an event name.
func (e *Events) Subscribe(name string, listener EventListener) {
	e.listeners[name] = append(e.listeners[name], listener)
}

// emit delivers the event to every listener registered for its name.
func (e *Events) emit(event Event) {
	for _, listener := range e.listeners[event.Name] {
		listener(event)
	}
}
