package logic

// transitionKey selects a row of the transition table. side is ignored for
// hazard events.
type transitionKey struct {
	from Mode
	kind EventKind
	side Side
}

type transitionRow struct {
	to      Mode
	message string
}

var transitions = map[transitionKey]transitionRow{
	{ModeOff, EventLongPressReleased, SideLeft}:    {ModeLeft, "Left indicator ON"},
	{ModeLeft, EventLongPressReleased, SideLeft}:   {ModeOff, "Left indicator OFF"},
	{ModeRight, EventLongPressReleased, SideLeft}:  {ModeLeft, "Right OFF, Left ON"},
	{ModeHazard, EventLongPressReleased, SideLeft}: {ModeOff, "Hazard OFF"},

	{ModeOff, EventLongPressReleased, SideRight}:    {ModeRight, "Right indicator ON"},
	{ModeRight, EventLongPressReleased, SideRight}:  {ModeOff, "Right indicator OFF"},
	{ModeLeft, EventLongPressReleased, SideRight}:   {ModeRight, "Left OFF, Right ON"},
	{ModeHazard, EventLongPressReleased, SideRight}: {ModeOff, "Hazard OFF"},

	{ModeOff, EventHazardThresholdReached, SideLeft}:   {ModeHazard, "Hazard light ON"},
	{ModeLeft, EventHazardThresholdReached, SideLeft}:  {ModeHazard, "Hazard light ON"},
	{ModeRight, EventHazardThresholdReached, SideLeft}: {ModeHazard, "Hazard light ON"},
}

// StateMachine owns the indicator mode.
type StateMachine struct {
	mode Mode
}

// NewStateMachine creates a state machine in ModeOff.
func NewStateMachine() *StateMachine {
	return &StateMachine{mode: ModeOff}
}

// Mode returns the current mode.
func (m *StateMachine) Mode() Mode {
	return m.mode
}

// Handle applies an event. It returns the transition when the mode changed,
// nil for no-ops.
func (m *StateMachine) Handle(e Event) *Transition {
	key := transitionKey{from: m.mode, kind: e.Kind, side: e.Side}
	if e.Kind == EventHazardThresholdReached {
		key.side = SideLeft
	}

	row, ok := transitions[key]
	if !ok {
		return nil
	}

	t := &Transition{From: m.mode, To: row.to, Event: e, Message: row.message}
	m.mode = row.to
	return t
}
