// Package wheel maps a spin-wheel rotation onto its reward segments.
package wheel

import (
	"math"
	"math/rand/v2"
)

type Segment struct {
	Label string `json:"label"`
	Coins int64  `json:"coins"`
}

// DefaultSegments are laid out clockwise starting at the pointer (0°).
var DefaultSegments = []Segment{
	{Label: "5 coins", Coins: 5},
	{Label: "10 coins", Coins: 10},
	{Label: "Try again", Coins: 0},
	{Label: "25 coins", Coins: 25},
	{Label: "50 coins", Coins: 50},
	{Label: "Try again", Coins: 0},
	{Label: "15 coins", Coins: 15},
	{Label: "100 coins", Coins: 100},
}

type Wheel struct {
	segments []Segment
	rnd      func() float64
}

// New builds a wheel over segments. rnd returns values in [0,1); nil uses
// math/rand/v2.
func New(segments []Segment, rnd func() float64) *Wheel {
	if len(segments) == 0 {
		segments = DefaultSegments
	}
	if rnd == nil {
		rnd = rand.Float64
	}
	return &Wheel{segments: segments, rnd: rnd}
}

func (w *Wheel) Segments() []Segment {
	out := make([]Segment, len(w.segments))
	copy(out, w.segments)
	return out
}

func (w *Wheel) SegmentSize() float64 {
	return 360 / float64(len(w.segments))
}

// Normalize folds any rotation, including negative and multi-turn ones,
// into [0,360).
func Normalize(angle float64) float64 {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// SegmentAt returns the index of the segment under the pointer for angle.
func (w *Wheel) SegmentAt(angle float64) int {
	idx := int(Normalize(angle) / w.SegmentSize())
	if idx >= len(w.segments) {
		idx = len(w.segments) - 1
	}
	return idx
}

type Result struct {
	Angle   float64 `json:"angle"`
	Index   int     `json:"segment"`
	Segment Segment `json:"reward"`
}

func (w *Wheel) Spin() Result {
	angle := w.rnd() * 360
	idx := w.SegmentAt(angle)
	return Result{Angle: angle, Index: idx, Segment: w.segments[idx]}
}
