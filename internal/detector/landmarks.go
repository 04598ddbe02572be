// Package detector finds hand landmarks in camera frames.
package detector

import (
	"errors"
	"fmt"
	"strings"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrUnknownJoint is returned by JointIndex for unsupported names.
var ErrUnknownJoint = errors.New("unknown joint")

// trackableJoints are the joints a hand can be tracked by.
var trackableJoints = map[string]int{
	"wrist":      Wrist,
	"thumb_tip":  ThumbTip,
	"index_tip":  IndexTip,
	"middle_tip": MiddleTip,
	"ring_tip":   RingTip,
	"pinky_tip":  PinkyTip,
}

// JointIndex maps a joint name such as "index_tip" to its landmark index.
func JointIndex(name string) (int, error) {
	idx, ok := trackableJoints[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownJoint, name)
	}
	return idx, nil
}

// Point3D is a landmark position in normalized image coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Joint returns the landmark at index i.
func (h *HandLandmarks) Joint(i int) (Point3D, bool) {
	if h == nil || i < 0 || i >= NumLandmarks {
		return Point3D{}, false
	}
	return h.Points[i], true
}

// IsSide reports whether the hand is the given side. An empty side
// matches any hand.
func (h *HandLandmarks) IsSide(side string) bool {
	if side == "" {
		return true
	}
	return h != nil && strings.EqualFold(h.Handedness, side)
}
