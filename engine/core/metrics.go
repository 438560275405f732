package core

// AvgCount is the number of frames the frame time average is taken over.
const AvgCount = 30

type Metrics struct {
	frameAvgCounter    int
	msTimes            [AvgCount]float64
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Update records a frame that took frameElapsedTime seconds. It reports true
// when a full second has accumulated and the FPS value was refreshed.
func (m *Metrics) Update(frameElapsedTime float64) bool {
	frameMS := frameElapsedTime * 1000.0
	m.msTimes[m.frameAvgCounter] = frameMS
	if m.frameAvgCounter == AvgCount-1 {
		sum := 0.0
		for i := 0; i < AvgCount; i++ {
			sum += m.msTimes[i]
		}
		m.msAvg = sum / float64(AvgCount)
	}
	m.frameAvgCounter = (m.frameAvgCounter + 1) % AvgCount

	refreshed := false
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
		refreshed = true
	}

	m.frames++
	return refreshed
}

func (m *Metrics) FPS() float64 {
	return m.fps
}

// FrameTime is the average frame time in milliseconds over the last AvgCount frames.
func (m *Metrics) FrameTime() float64 {
	return m.msAvg
}
