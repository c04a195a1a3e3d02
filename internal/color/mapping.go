package color

import "fmt"

// Channel is one of the four photodiode filter groups.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
	Clear
)

// Channels lists the acquisition order.
var Channels = [4]Channel{Red, Green, Blue, Clear}

func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	case Clear:
		return "clear"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// Levels is the (S2, S3) pair that selects a channel.
type Levels struct {
	S2 bool
	S3 bool
}

// Mapping is a per-sensor channel→line truth table. The two sensors on the
// reactor are wired differently, so each carries its own table.
type Mapping struct {
	Name   string
	levels [4]Levels
}

// Levels returns the select line levels for ch.
func (m Mapping) Levels(ch Channel) Levels {
	return m.levels[ch]
}

// StandardMapping is the datasheet truth table (sensor 1 wiring).
var StandardMapping = Mapping{
	Name: "standard",
	levels: [4]Levels{
		Red:   {S2: false, S3: false},
		Green: {S2: true, S3: true},
		Blue:  {S2: false, S3: true},
		Clear: {S2: true, S3: false},
	},
}

// SwappedMapping is the table for a sensor whose S2 and S3 leads are
// crossed on the carrier board (sensor 2 wiring).
var SwappedMapping = Mapping{
	Name: "swapped",
	levels: [4]Levels{
		Red:   {S2: false, S3: false},
		Green: {S2: true, S3: true},
		Blue:  {S2: true, S3: false},
		Clear: {S2: false, S3: true},
	},
}

// MappingByName resolves a configured mapping name.
func MappingByName(name string) (Mapping, error) {
	switch name {
	case StandardMapping.Name:
		return StandardMapping, nil
	case SwappedMapping.Name:
		return SwappedMapping, nil
	}
	return Mapping{}, fmt.Errorf("unknown channel mapping %q", name)
}
