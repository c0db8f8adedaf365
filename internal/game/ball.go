package game

import "math"

const GRAVITY = 9.81

// Ball rolls around the rim independently of the wheel and settles into a pocket when its
// velocity reaches zero. Once settled it is carried by the wheel.
type Ball struct {
	angle    float64
	velocity float64
	friction float64

	stopAngle           *float64
	relativeAngleAtStop *float64
}

func NewBall(friction float64) *Ball {
	return &Ball{friction: friction}
}

// Start launches the ball and forgets where it stopped last round
func (b *Ball) Start(velocity float64) {
	b.velocity = velocity
	b.stopAngle = nil
	b.relativeAngleAtStop = nil
}

// Advance moves the ball by dt seconds
func (b *Ball) Advance(dt float64) {
	next := math.Max(b.velocity-b.friction*GRAVITY*dt, 0)
	if next == 0 && b.stopAngle == nil {
		stop := b.angle
		b.stopAngle = &stop
	}

	b.angle = normalizeAngle(b.angle + b.velocity*dt)
	b.velocity = next
}

func (b *Ball) IsStopped() bool {
	return b.velocity <= 0
}

func (b *Ball) Angle() float64 {
	return b.angle
}

func (b *Ball) Velocity() float64 {
	return b.velocity
}

// StopAngle returns the angle captured when the ball came to rest
func (b *Ball) StopAngle() (float64, bool) {
	if b.stopAngle == nil {
		return 0, false
	}
	return *b.stopAngle, true
}

// RelativeAngle is the ball position measured from the wheel's zero, in [0, 2π)
func (b *Ball) RelativeAngle(wheelAngle float64) float64 {
	return normalizeAngle(b.angle - wheelAngle)
}

// FinalAngle returns the absolute ball angle. After the ball stops, the offset from the wheel is
// locked on first call and the ball follows the wheel from then on.
func (b *Ball) FinalAngle(wheel *Wheel) float64 {
	if !b.IsStopped() {
		return b.angle
	}
	return normalizeAngle(wheel.Angle() + b.lockToWheel(wheel))
}

// Segment returns the slot index under the ball. Once the ball is at rest the answer is fixed
// for the rest of the round no matter how far the wheel keeps turning.
func (b *Ball) Segment(wheel *Wheel) int {
	rel := b.RelativeAngle(wheel.Angle())
	if b.IsStopped() {
		rel = b.lockToWheel(wheel)
	}

	index := int(math.Floor(rel / SEGMENT_WIDTH))
	if index >= SEGMENT_COUNT {
		index = SEGMENT_COUNT - 1
	}
	return index
}

func (b *Ball) lockToWheel(wheel *Wheel) float64 {
	if b.relativeAngleAtStop == nil {
		rel := b.RelativeAngle(wheel.Angle())
		b.relativeAngleAtStop = &rel
	}
	return *b.relativeAngleAtStop
}
