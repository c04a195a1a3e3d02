package actuator

import "sort"

// CalPoint is one measured flow rate for pump 1.
type CalPoint struct {
	Speed    int
	FlowRate float64 // mL/s
}

// Calibration is a read-only speed→flow table. Rates between points are
// linearly interpolated; outside the table the nearest point is used.
type Calibration struct {
	points []CalPoint
}

// NewCalibration copies and sorts points by speed.
func NewCalibration(points []CalPoint) *Calibration {
	ps := append([]CalPoint(nil), points...)
	sort.Slice(ps, func(i, j int) bool { return ps[i].Speed < ps[j].Speed })
	return &Calibration{points: ps}
}

// FlowRate returns the calibrated rate at speed, 0 if the table is empty.
func (c *Calibration) FlowRate(speed int) float64 {
	ps := c.points
	if len(ps) == 0 {
		return 0
	}
	if speed <= ps[0].Speed {
		return ps[0].FlowRate
	}
	last := ps[len(ps)-1]
	if speed >= last.Speed {
		return last.FlowRate
	}
	i := sort.Search(len(ps), func(i int) bool { return ps[i].Speed >= speed })
	lo, hi := ps[i-1], ps[i]
	if hi.Speed == speed {
		return hi.FlowRate
	}
	t := float64(speed-lo.Speed) / float64(hi.Speed-lo.Speed)
	return lo.FlowRate + t*(hi.FlowRate-lo.FlowRate)
}
