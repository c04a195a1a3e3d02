package logic

import "time"

// fakeDriver records pump-1 driver calls.
type fakeDriver struct {
	// MLPerSecond is the flow used for DosingDuration; <= 0 yields 0.
	MLPerSecond float64

	DurationCalls []durationCall
	Drives        []int
	DriveError    error
}

type durationCall struct {
	Speed  int
	Volume float64
}

func (f *fakeDriver) DosingDuration(speed int, volumeML float64) time.Duration {
	f.DurationCalls = append(f.DurationCalls, durationCall{speed, volumeML})
	if f.MLPerSecond <= 0 {
		return 0
	}
	return time.Duration(volumeML / f.MLPerSecond * float64(time.Second))
}

func (f *fakeDriver) Drive(speed int) error {
	f.Drives = append(f.Drives, speed)
	return f.DriveError
}

func (f *fakeDriver) lastDrive() int {
	if len(f.Drives) == 0 {
		return -999
	}
	return f.Drives[len(f.Drives)-1]
}

// fakeServo records servo calls as strings ("attach", "write 90", "detach").
type fakeServo struct {
	Calls      []string
	Attached   bool
	Angle      int
	WriteError error
}

func (s *fakeServo) Attach() error {
	s.Calls = append(s.Calls, "attach")
	s.Attached = true
	return nil
}

func (s *fakeServo) Write(angle int) error {
	if s.WriteError != nil {
		return s.WriteError
	}
	s.Calls = append(s.Calls, "write "+itoa(angle))
	s.Angle = angle
	return nil
}

func (s *fakeServo) Detach() error {
	s.Calls = append(s.Calls, "detach")
	s.Attached = false
	return nil
}

func itoa(n int) string {
	switch n {
	case Pump2ActiveAngle:
		return "180"
	case Pump2NeutralAngle:
		return "90"
	}
	return "?"
}
