package logic

// LED holds the UV LED state set by commands.
type LED struct {
	On        bool
	Intensity uint8
}

// Level is the output level to drive: the intensity while on, else 0.
func (l LED) Level() uint8 {
	if !l.On {
		return 0
	}
	return l.Intensity
}
