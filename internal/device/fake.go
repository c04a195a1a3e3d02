package device

// Fake is an in-memory line device for tests.
type Fake struct {
	// Pending lines are returned by PollLine in order.
	Pending []string

	// Written collects every line passed to WriteLine.
	Written []string

	// WriteError, if set, is returned by WriteLine.
	WriteError error

	Polls  int
	Closed bool
}

// PollLine pops the next pending line.
func (f *Fake) PollLine() (string, bool) {
	f.Polls++
	if len(f.Pending) == 0 {
		return "", false
	}
	s := f.Pending[0]
	f.Pending = f.Pending[1:]
	return s, true
}

// WriteLine records s.
func (f *Fake) WriteLine(s string) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Written = append(f.Written, s)
	return nil
}

// Close marks the device closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}
