package game

// Wheel is the rotating disk. Its angle persists across rounds.
type Wheel struct {
	angle           float64
	angularVelocity float64
	friction        float64 // rad/s^2
}

func NewWheel(friction float64) *Wheel {
	return &Wheel{friction: friction}
}

// Start spins the wheel up without resetting its angle
func (w *Wheel) Start(angularVelocity float64) {
	w.angularVelocity = angularVelocity
}

// Advance moves the wheel by dt seconds. The angle uses the velocity from before this step's
// deceleration.
func (w *Wheel) Advance(dt float64) {
	w.angle = normalizeAngle(w.angle + w.angularVelocity*dt)
	w.angularVelocity -= w.friction * dt
	if w.angularVelocity < 0 {
		w.angularVelocity = 0
	}
}

func (w *Wheel) IsStopped() bool {
	return w.angularVelocity <= 0
}

func (w *Wheel) Angle() float64 {
	return w.angle
}

func (w *Wheel) AngularVelocity() float64 {
	return w.angularVelocity
}
