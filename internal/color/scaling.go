package color

import "fmt"

// Scaling is the output frequency scaling selected by S0/S1.
type Scaling int

const (
	PowerDown Scaling = iota
	Scale2
	Scale20
	Scale100
)

// ScalingByPercent maps a configured percentage to a Scaling.
func ScalingByPercent(pct int) (Scaling, error) {
	switch pct {
	case 0:
		return PowerDown, nil
	case 2:
		return Scale2, nil
	case 20:
		return Scale20, nil
	case 100:
		return Scale100, nil
	}
	return PowerDown, fmt.Errorf("unsupported frequency scaling %d%%", pct)
}

// SetScaling drives S0/S1 for sc. It is called once at startup.
func SetScaling(s0, s1 Line, sc Scaling) error {
	var l0, l1 bool
	switch sc {
	case Scale2:
		l1 = true
	case Scale20:
		l0 = true
	case Scale100:
		l0, l1 = true, true
	}
	if err := s0.Set(l0); err != nil {
		return fmt.Errorf("set S0: %w", err)
	}
	if err := s1.Set(l1); err != nil {
		return fmt.Errorf("set S1: %w", err)
	}
	return nil
}
