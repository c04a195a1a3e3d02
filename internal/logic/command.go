package logic

import (
	"math"
	"strconv"
	"strings"
)

const (
	prefixLEDOn = "led on at intensity:"
	prefixPump  = "pump:"
	prefixPump2 = "pump2:"
	speedMarker = "at speed:"
)

// Parse turns one serial line into a Command. Unrecognised input yields
// KindUnknown and a nil error. Keywords are case-insensitive.
//
// A malformed or non-finite volume parses as 0, which the pumps ignore.
func Parse(line string) (Command, error) {
	raw := strings.TrimSpace(line)
	cmd := Command{Raw: raw, Speed: SpeedUnset}

	switch {
	case strings.EqualFold(raw, "led off"):
		cmd.Kind = KindLEDOff

	case hasPrefixFold(raw, prefixLEDOn):
		n, err := strconv.Atoi(strings.TrimSpace(raw[len(prefixLEDOn):]))
		if err != nil || n < 0 || n > 255 {
			return cmd, ErrLEDIntensity
		}
		cmd.Kind = KindLEDOn
		cmd.Intensity = uint8(n)

	case strings.EqualFold(raw, "pump stop"):
		cmd.Kind = KindPumpStop

	case strings.EqualFold(raw, "pump2 stop"):
		cmd.Kind = KindPump2Stop

	case hasPrefixFold(raw, prefixPump2):
		cmd.Kind = KindPump2Dose
		cmd.Volume = parseVolume(raw[len(prefixPump2):])

	case hasPrefixFold(raw, prefixPump):
		rest := raw[len(prefixPump):]
		if i := indexFold(rest, speedMarker); i >= 0 {
			n, err := strconv.Atoi(strings.TrimSpace(rest[i+len(speedMarker):]))
			if err != nil || n < 0 || n >= MaxSpeed {
				return cmd, ErrPumpSpeed
			}
			cmd.Speed = n
			rest = rest[:i]
		}
		cmd.Kind = KindPumpDose
		cmd.Volume = parseVolume(rest)
	}

	return cmd, nil
}

func parseVolume(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func indexFold(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}
