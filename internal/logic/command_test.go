package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line      string
		wantKind  Kind
		wantErr   error
		volume    float64
		speed     int
		intensity uint8
	}{
		{"led on at intensity:128", KindLEDOn, nil, 0, SpeedUnset, 128},
		{"LED ON AT INTENSITY: 255", KindLEDOn, nil, 0, SpeedUnset, 255},
		{"led on at intensity:0", KindLEDOn, nil, 0, SpeedUnset, 0},
		{"led on at intensity:300", KindUnknown, ErrLEDIntensity, 0, SpeedUnset, 0},
		{"led on at intensity:-1", KindUnknown, ErrLEDIntensity, 0, SpeedUnset, 0},
		{"led on at intensity:bright", KindUnknown, ErrLEDIntensity, 0, SpeedUnset, 0},
		{"led off", KindLEDOff, nil, 0, SpeedUnset, 0},
		{"  Led Off \r\n", KindLEDOff, nil, 0, SpeedUnset, 0},
		{"pump: 1.5", KindPumpDose, nil, 1.5, SpeedUnset, 0},
		{"pump:2", KindPumpDose, nil, 2, SpeedUnset, 0},
		{"pump: 1.5 at speed:30", KindPumpDose, nil, 1.5, 30, 0},
		{"pump: 1.5 AT SPEED: 0", KindPumpDose, nil, 1.5, 0, 0},
		{"pump: 1.5 at speed:89", KindPumpDose, nil, 1.5, 89, 0},
		{"pump: 1.5 at speed:90", KindUnknown, ErrPumpSpeed, 0, SpeedUnset, 0},
		{"pump: 1.5 at speed:95", KindUnknown, ErrPumpSpeed, 0, SpeedUnset, 0},
		{"pump: 1.5 at speed:-3", KindUnknown, ErrPumpSpeed, 0, SpeedUnset, 0},
		{"pump: 1.5 at speed:fast", KindUnknown, ErrPumpSpeed, 0, SpeedUnset, 0},
		{"pump: lots", KindPumpDose, nil, 0, SpeedUnset, 0},
		{"pump: NaN", KindPumpDose, nil, 0, SpeedUnset, 0},
		{"pump: -2", KindPumpDose, nil, -2, SpeedUnset, 0},
		{"PUMP STOP", KindPumpStop, nil, 0, SpeedUnset, 0},
		{"pump2: 0.250", KindPump2Dose, nil, 0.25, SpeedUnset, 0},
		{"pump2 stop", KindPump2Stop, nil, 0, SpeedUnset, 0},
		{"pump", KindUnknown, nil, 0, SpeedUnset, 0},
		{"valve: 3", KindUnknown, nil, 0, SpeedUnset, 0},
		{"", KindUnknown, nil, 0, SpeedUnset, 0},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, err := Parse(tt.line)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, cmd.Kind)
			assert.Equal(t, tt.volume, cmd.Volume)
			assert.Equal(t, tt.speed, cmd.Speed)
			assert.Equal(t, tt.intensity, cmd.Intensity)
		})
	}
}

func TestParseKeepsTrimmedRawText(t *testing.T) {
	cmd, err := Parse("  pump:  1.5 \n")
	require.NoError(t, err)
	assert.Equal(t, "pump:  1.5", cmd.Raw)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "PUMP2_STOP", KindPump2Stop.String())
	assert.Equal(t, "UNKNOWN", Kind(42).String())
}
