package game

import "math"

// Color is the pocket color of a roulette segment
type Color string

const (
	ColorRed   Color = "red"
	ColorBlack Color = "black"
	ColorGreen Color = "green"
)

const (
	SEGMENT_COUNT = 37
	FULL_TURN     = 2 * math.Pi
	SEGMENT_WIDTH = FULL_TURN / SEGMENT_COUNT
)

// Segment is one pocket of the wheel
type Segment struct {
	Index  int   `json:"index"`
	Number int   `json:"number"`
	Color  Color `json:"color"`
}

// Segments is the European wheel in physical order, starting at the pocket right after zero.
var Segments = [SEGMENT_COUNT]Segment{
	{0, 32, ColorRed}, {1, 15, ColorBlack}, {2, 19, ColorRed},
	{3, 4, ColorBlack}, {4, 21, ColorRed}, {5, 2, ColorBlack},
	{6, 25, ColorRed}, {7, 17, ColorBlack}, {8, 34, ColorRed},
	{9, 6, ColorBlack}, {10, 27, ColorRed}, {11, 13, ColorBlack},
	{12, 36, ColorRed}, {13, 11, ColorBlack}, {14, 30, ColorRed},
	{15, 8, ColorBlack}, {16, 23, ColorRed}, {17, 10, ColorBlack},
	{18, 5, ColorRed}, {19, 24, ColorBlack}, {20, 16, ColorRed},
	{21, 33, ColorBlack}, {22, 1, ColorRed}, {23, 20, ColorBlack},
	{24, 14, ColorRed}, {25, 31, ColorBlack}, {26, 9, ColorRed},
	{27, 22, ColorBlack}, {28, 18, ColorRed}, {29, 29, ColorBlack},
	{30, 7, ColorRed}, {31, 28, ColorBlack}, {32, 12, ColorRed},
	{33, 35, ColorBlack}, {34, 3, ColorRed}, {35, 26, ColorBlack},
	{36, 0, ColorGreen},
}

// SegmentAt returns the segment for a wheel slot. Out of range indexes wrap around the wheel.
func SegmentAt(index int) Segment {
	index %= SEGMENT_COUNT
	if index < 0 {
		index += SEGMENT_COUNT
	}
	return Segments[index]
}

// IsEven reports whether the pocket pays even-bets. Zero is neither even nor odd.
func (s Segment) IsEven() bool {
	return s.Number != 0 && s.Number%2 == 0
}

// IsOdd reports whether the pocket pays odd-bets.
func (s Segment) IsOdd() bool {
	return s.Number%2 == 1
}

// normalizeAngle maps any angle into [0, 2π)
func normalizeAngle(angle float64) float64 {
	angle = math.Mod(angle, FULL_TURN)
	if angle < 0 {
		angle += FULL_TURN
	}
	if angle >= FULL_TURN {
		angle = 0
	}
	return angle
}
