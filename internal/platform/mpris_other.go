//go:build !linux

package platform

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrUnsupported is returned by NewMPRIS on platforms without a session bus.
var ErrUnsupported = errors.New("mpris is only available on linux")

// CmdSender is an interface for sending commands to the application.
type CmdSender interface {
	Send(msg tea.Msg)
}

// MPRIS is a stub for non-Linux platforms.
type MPRIS struct{}

// NewMPRIS reports ErrUnsupported on non-Linux platforms.
func NewMPRIS(identity, artworkURL string) (*MPRIS, error) {
	return nil, ErrUnsupported
}

// SetSender is a no-op on non-Linux platforms.
func (m *MPRIS) SetSender(sender CmdSender) {}

// SetPlaying is a no-op on non-Linux platforms.
func (m *MPRIS) SetPlaying(station, title, artist string) {}

// SetStopped is a no-op on non-Linux platforms.
func (m *MPRIS) SetStopped() {}

// Close is a no-op on non-Linux platforms.
func (m *MPRIS) Close() {}

// SanitizeUTF8 is a no-op on non-Linux platforms.
func SanitizeUTF8(s string) string { return s }
