package playback

import (
	"time"

	"teateonair/internal/audio"
)

// State is the user-visible playback state.
type State int

const (
	StateStopped State = iota
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the controller state handed to observers.
type Snapshot struct {
	State State
	// Track is nil until the first successful poll of the current session.
	Track     *audio.TrackInfo
	UpdatedAt time.Time
}

// RemoteCommand is a command received from the system media surface.
type RemoteCommand int

const (
	RemotePlay RemoteCommand = iota
	RemotePause
	RemoteStop
	RemoteToggle
)

func (c RemoteCommand) String() string {
	switch c {
	case RemotePlay:
		return "play"
	case RemotePause:
		return "pause"
	case RemoteStop:
		return "stop"
	case RemoteToggle:
		return "toggle"
	default:
		return "unknown"
	}
}
