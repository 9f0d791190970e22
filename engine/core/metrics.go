package core

// DefaultFPSInterval is the window, in seconds, the frame rate is averaged over.
const DefaultFPSInterval = 0.5

/**
 * @brief Averages the frame rate over fixed time windows. The value only
 * changes at the end of a window so it is stable enough to print.
 */
type FPSCounter struct {
	avgInterval float64
	frames      uint32
	accumulated float64
	fps         float64
}

// NewFPSCounter averages over avgInterval seconds; non positive values fall
// back to DefaultFPSInterval.
func NewFPSCounter(avgInterval float64) *FPSCounter {
	if avgInterval <= 0 {
		avgInterval = DefaultFPSInterval
	}
	return &FPSCounter{avgInterval: avgInterval}
}

// Tick accounts for one iteration of deltaSeconds. Only rendered frames are
// counted but the time always accumulates. Returns true when a window closed
// and FPS changed.
func (fc *FPSCounter) Tick(deltaSeconds float64, frameRendered bool) bool {
	if frameRendered {
		fc.frames++
	}
	fc.accumulated += deltaSeconds

	if fc.accumulated < fc.avgInterval {
		return false
	}
	fc.fps = float64(fc.frames) / fc.accumulated
	fc.frames = 0
	fc.accumulated = 0
	return true
}

func (fc *FPSCounter) FPS() float64 {
	return fc.fps
}

// FrameTimeMS is the average frame time of the last window.
func (fc *FPSCounter) FrameTimeMS() float64 {
	if fc.fps == 0 {
		return 0
	}
	return 1000.0 / fc.fps
}
