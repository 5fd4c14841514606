package input

// Button holds one button's state across frame boundaries. Value writes
// are staged through pendingValue and committed exactly once at the next
// frame start, so a consumer can never observe a transition whose
// edge event has not fired yet.
type Button struct {
	kind         ButtonKind
	eventTrigger string

	value          float64
	lastFrameValue float64
	pendingValue   *float64

	// manual-kind presentation flags
	pressed bool
	touched bool
}

func newButton(spec *ButtonSpec) *Button {
	return &Button{
		kind:         spec.Kind,
		eventTrigger: spec.EventTrigger,
	}
}

// Kind returns the button's kind.
func (b *Button) Kind() ButtonKind {
	return b.kind
}

// EventTrigger returns the named trigger fired on value edges, or "".
func (b *Button) EventTrigger() string {
	return b.eventTrigger
}

// Value returns the committed value for the current frame.
func (b *Button) Value() float64 {
	return b.value
}

// Pressed derives from the value for analog and binary kinds; manual kind
// reads the explicit flag.
func (b *Button) Pressed() bool {
	if b.kind == KindManual {
		return b.pressed
	}
	return b.value > 0
}

// Touched is the explicit flag for manual kind; other kinds report touched
// whenever the flag is set or the button is pressed.
func (b *Button) Touched() bool {
	if b.kind == KindManual {
		return b.touched
	}
	return b.touched || b.Pressed()
}

// stage records a value to commit at the next frame boundary.
func (b *Button) stage(value float64) {
	v := value
	b.pendingValue = &v
}

// commit advances the button one frame: remembers the last committed value
// and applies a staged value, if any. Returns the (last, current) pair the
// caller uses for edge detection.
func (b *Button) commit() (last, current float64) {
	b.lastFrameValue = b.value
	if b.pendingValue != nil {
		b.value = *b.pendingValue
		b.pendingValue = nil
	}
	return b.lastFrameValue, b.value
}
