package game

// Resolve maps the ball's position on the wheel to a segment. The result is only final once both
// the wheel and the ball have stopped; while the round runs it is provisional.
func Resolve(wheel *Wheel, ball *Ball) Segment {
	return SegmentAt(ball.Segment(wheel))
}
