package logic

// BlinkGenerator derives the lamp pattern from the mode, toggling on each call.
type BlinkGenerator struct {
	pattern LampPattern
}

// Update advances the blink by one step for the given mode.
// In hazard mode the left flag is the shared flag and the right lamp follows it.
func (g *BlinkGenerator) Update(mode Mode) LampPattern {
	p := g.pattern
	switch mode {
	case ModeLeft:
		p = LampPattern{Left: !p.Left}
	case ModeRight:
		p = LampPattern{Right: !p.Right}
	case ModeHazard:
		on := !p.Left
		p = LampPattern{Left: on, Right: on}
	default:
		p = LampPattern{}
	}
	g.pattern = p
	return p
}

// Pattern returns the last generated pattern.
func (g *BlinkGenerator) Pattern() LampPattern {
	return g.pattern
}
