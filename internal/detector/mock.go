package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	script func(call int) []HandLandmarks
	err    error
	calls  int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.script = nil
}

// SetScript makes Detect return script(n) on its n-th call, counting
// from zero.
func (m *MockDetector) SetScript(script func(call int) []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = script
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect ran.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := m.calls
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.script != nil {
		return m.script(call), nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PointingLandmarks returns a right hand pointing with the index finger,
// its tip at (x, y) in image coordinates.
func PointingLandmarks(x, y float64) HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	// Wrist below the tip, palm roughly upright.
	landmarks.Points[Wrist] = Point3D{X: x, Y: y + 0.30}

	landmarks.Points[ThumbCMC] = Point3D{X: x + 0.05, Y: y + 0.25}
	landmarks.Points[ThumbMCP] = Point3D{X: x + 0.08, Y: y + 0.20}
	landmarks.Points[ThumbIP] = Point3D{X: x + 0.07, Y: y + 0.17}
	landmarks.Points[ThumbTip] = Point3D{X: x + 0.05, Y: y + 0.15}

	// Index finger extended up to (x, y).
	landmarks.Points[IndexMCP] = Point3D{X: x, Y: y + 0.18}
	landmarks.Points[IndexPIP] = Point3D{X: x, Y: y + 0.11}
	landmarks.Points[IndexDIP] = Point3D{X: x, Y: y + 0.05}
	landmarks.Points[IndexTip] = Point3D{X: x, Y: y}

	// Remaining fingers curled towards the palm.
	for i, base := range []int{MiddleMCP, RingMCP, PinkyMCP} {
		dx := -0.03 * float64(i+1)
		landmarks.Points[base] = Point3D{X: x + dx, Y: y + 0.19, Z: -0.02}
		landmarks.Points[base+1] = Point3D{X: x + dx, Y: y + 0.17, Z: -0.05}
		landmarks.Points[base+2] = Point3D{X: x + dx, Y: y + 0.19, Z: -0.04}
		landmarks.Points[base+3] = Point3D{X: x + dx, Y: y + 0.21, Z: -0.02}
	}

	return landmarks
}
