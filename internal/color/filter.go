package color

// Alpha is the smoothing coefficient of the recursive filter.
const Alpha float32 = 0.3

// Smoother holds one exponentially weighted value per channel. Values start
// at zero and are never reset, so a step change needs several cycles
// (about 1/Alpha) to settle.
type Smoother struct {
	values [4]float32
}

// Update folds raw into the running value for ch and returns the result.
func (s *Smoother) Update(ch Channel, raw uint32) float32 {
	s.values[ch] = Alpha*float32(raw) + (1-Alpha)*s.values[ch]
	return s.values[ch]
}

// Value returns the current smoothed value for ch.
func (s *Smoother) Value(ch Channel) float32 {
	return s.values[ch]
}
