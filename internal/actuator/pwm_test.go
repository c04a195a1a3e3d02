package actuator

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/reef-pi/rpi/pwm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDriver is a pwm.Driver that records calls by name.
type scriptedDriver struct {
	exported bool
	calls    []string
	freq     int
	duty     float64
	err      error
}

func (d *scriptedDriver) record(call string) error {
	d.calls = append(d.calls, call)
	return d.err
}

func (d *scriptedDriver) Export(int) error   { return d.record("export") }
func (d *scriptedDriver) Unexport(int) error { return d.record("unexport") }
func (d *scriptedDriver) DutyCycle(_ int, duty float64) error {
	d.duty = duty
	return d.record("duty")
}
func (d *scriptedDriver) Frequency(_, freq int) error {
	d.freq = freq
	return d.record("frequency")
}
func (d *scriptedDriver) Enable(int) error             { return d.record("enable") }
func (d *scriptedDriver) Disable(int) error            { return d.record("disable") }
func (d *scriptedDriver) IsEnabled(int) (bool, error)  { return false, nil }
func (d *scriptedDriver) IsExported(int) (bool, error) { return d.exported, nil }

func TestChannelWritesSysfs(t *testing.T) {
	drv, rec := pwm.Noop()

	c, err := OpenChannel(drv, 1)
	require.NoError(t, err)

	require.NoError(t, c.SetPeriod(20*time.Millisecond))
	require.NoError(t, c.SetDuty(5*time.Millisecond))
	require.NoError(t, c.Enable(true))

	dir := filepath.Join(pwm.SysFS, "pwm1")
	assert.Equal(t, "20000000\n", string(rec.Get(filepath.Join(dir, "period"))))
	assert.Equal(t, "5000000\n", string(rec.Get(filepath.Join(dir, "duty_cycle"))))
	assert.Equal(t, "1\n", string(rec.Get(filepath.Join(dir, "enable"))))

	require.NoError(t, c.Close())
	assert.Equal(t, "0\n", string(rec.Get(filepath.Join(dir, "enable"))))
	assert.Equal(t, "1\n", string(rec.Get(filepath.Join(pwm.SysFS, "unexport"))))
}

func TestOpenChannelExports(t *testing.T) {
	d := &scriptedDriver{}
	_, err := OpenChannel(d, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"export"}, d.calls)

	d = &scriptedDriver{exported: true}
	_, err = OpenChannel(d, 0)
	require.NoError(t, err)
	assert.Empty(t, d.calls)

	d = &scriptedDriver{err: errors.New("busy")}
	_, err = OpenChannel(d, 0)
	assert.ErrorContains(t, err, "export pwm0")
}

func TestChannelConvertsDurations(t *testing.T) {
	d := &scriptedDriver{exported: true}
	c, err := OpenChannel(d, 2)
	require.NoError(t, err)

	assert.Error(t, c.SetDuty(time.Millisecond), "duty before period")

	require.NoError(t, c.SetPeriod(PumpPeriod))
	assert.Equal(t, 1000, d.freq)

	require.NoError(t, c.SetDuty(PumpPeriod/2))
	assert.InDelta(t, 50, d.duty, 1e-9)

	require.NoError(t, c.SetDuty(2*PumpPeriod))
	assert.InDelta(t, 100, d.duty, 1e-9, "clamped to the period")

	assert.Error(t, c.SetPeriod(0))
	assert.Error(t, c.SetPeriod(2*time.Second))
}

func TestChannelCloseJoinsErrors(t *testing.T) {
	d := &scriptedDriver{exported: true}
	c, err := OpenChannel(d, 0)
	require.NoError(t, err)

	d.err = errors.New("io")
	err = c.Close()
	assert.ErrorContains(t, err, "enable false")
	assert.ErrorContains(t, err, "unexport pwm0")
}
