//go:build linux

package platform

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

const (
	mprisPath       = "/org/mpris/MediaPlayer2"
	mprisInterface  = "org.mpris.MediaPlayer2"
	playerInterface = "org.mpris.MediaPlayer2.Player"
	busName         = "org.mpris.MediaPlayer2.teateonair"
	liveTrackID     = dbus.ObjectPath("/org/mpris/MediaPlayer2/teateonair/live")
)

// ErrBusNameTaken is returned when another instance already owns the bus name.
var ErrBusNameTaken = errors.New("bus name already taken")

// CmdSender is an interface for sending commands to the application.
// This matches the tea.Program's Send method signature.
type CmdSender interface {
	Send(msg tea.Msg)
}

// MPRIS publishes the live stream on the session bus so desktop media widgets
// can show it and control playback.
type MPRIS struct {
	conn       *dbus.Conn
	props      *prop.Properties
	sender     CmdSender
	artworkURL string
}

// mprisRoot implements org.mpris.MediaPlayer2 interface.
type mprisRoot struct {
	mpris *MPRIS
}

// mprisPlayer implements org.mpris.MediaPlayer2.Player interface.
type mprisPlayer struct {
	mpris *MPRIS
}

// NewMPRIS connects to the session bus and exports the player. identity is the
// human readable player name; artworkURL may be empty.
func NewMPRIS(identity, artworkURL string) (*MPRIS, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	m := &MPRIS{
		conn:       conn,
		artworkURL: artworkURL,
	}

	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return nil, ErrBusNameTaken
	}

	root := &mprisRoot{mpris: m}
	player := &mprisPlayer{mpris: m}

	if err := conn.Export(root, mprisPath, mprisInterface); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to export root interface: %w", err)
	}
	if err := conn.Export(player, mprisPath, playerInterface); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to export player interface: %w", err)
	}

	props, err := prop.Export(conn, mprisPath, mprisProperties(identity))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to export properties: %w", err)
	}
	m.props = props

	if err := conn.Export(introspect.NewIntrospectable(introspection()), mprisPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to export introspectable: %w", err)
	}

	return m, nil
}

func mprisProperties(identity string) map[string]map[string]*prop.Prop {
	ro := func(v any) *prop.Prop {
		return &prop.Prop{Value: v, Writable: false, Emit: prop.EmitTrue}
	}
	return map[string]map[string]*prop.Prop{
		mprisInterface: {
			"CanQuit":             ro(true),
			"CanRaise":            ro(false),
			"CanSetFullscreen":    ro(false),
			"DesktopEntry":        ro("teateonair"),
			"Fullscreen":          ro(false),
			"HasTrackList":        ro(false),
			"Identity":            ro(SanitizeUTF8(identity)),
			"SupportedMimeTypes":  ro([]string{"audio/mpeg"}),
			"SupportedUriSchemes": ro([]string{"http", "https"}),
		},
		playerInterface: {
			"CanControl":     ro(true),
			"CanGoNext":      ro(false),
			"CanGoPrevious":  ro(false),
			"CanPause":       ro(true),
			"CanPlay":        ro(true),
			"CanSeek":        ro(false),
			"MaximumRate":    ro(1.0),
			"MinimumRate":    ro(0.0),
			"PlaybackStatus": ro(statusStopped),
			"Rate":           ro(0.0),
			"Volume":         ro(1.0),
			"Position":       {Value: int64(0), Writable: false, Emit: prop.EmitFalse},
			"Metadata":       ro(map[string]dbus.Variant{}),
		},
	}
}

func introspection() *introspect.Node {
	return &introspect.Node{
		Name: mprisPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name: mprisInterface,
				Methods: []introspect.Method{
					{Name: "Quit"},
					{Name: "Raise"},
				},
				Properties: []introspect.Property{
					{Name: "CanQuit", Type: "b", Access: "read"},
					{Name: "CanRaise", Type: "b", Access: "read"},
					{Name: "CanSetFullscreen", Type: "b", Access: "read"},
					{Name: "DesktopEntry", Type: "s", Access: "read"},
					{Name: "Fullscreen", Type: "b", Access: "read"},
					{Name: "HasTrackList", Type: "b", Access: "read"},
					{Name: "Identity", Type: "s", Access: "read"},
					{Name: "SupportedMimeTypes", Type: "as", Access: "read"},
					{Name: "SupportedUriSchemes", Type: "as", Access: "read"},
				},
			},
			{
				Name: playerInterface,
				Methods: []introspect.Method{
					{Name: "Next"},
					{Name: "Previous"},
					{Name: "Pause"},
					{Name: "PlayPause"},
					{Name: "Stop"},
					{Name: "Play"},
					{Name: "Seek", Args: []introspect.Arg{{Name: "Offset", Type: "x", Direction: "in"}}},
					{Name: "SetPosition", Args: []introspect.Arg{
						{Name: "TrackId", Type: "o", Direction: "in"},
						{Name: "Position", Type: "x", Direction: "in"},
					}},
					{Name: "OpenUri", Args: []introspect.Arg{{Name: "Uri", Type: "s", Direction: "in"}}},
				},
				Properties: []introspect.Property{
					{Name: "CanControl", Type: "b", Access: "read"},
					{Name: "CanGoNext", Type: "b", Access: "read"},
					{Name: "CanGoPrevious", Type: "b", Access: "read"},
					{Name: "CanPause", Type: "b", Access: "read"},
					{Name: "CanPlay", Type: "b", Access: "read"},
					{Name: "CanSeek", Type: "b", Access: "read"},
					{Name: "MaximumRate", Type: "d", Access: "read"},
					{Name: "MinimumRate", Type: "d", Access: "read"},
					{Name: "PlaybackStatus", Type: "s", Access: "read"},
					{Name: "Rate", Type: "d", Access: "read"},
					{Name: "Volume", Type: "d", Access: "read"},
					{Name: "Position", Type: "x", Access: "read"},
					{Name: "Metadata", Type: "a{sv}", Access: "read"},
				},
				Signals: []introspect.Signal{
					{Name: "Seeked", Args: []introspect.Arg{{Name: "Position", Type: "x"}}},
				},
			},
		},
	}
}

// SetSender sets the command sender for MPRIS control messages.
func (m *MPRIS) SetSender(sender CmdSender) {
	m.sender = sender
}

// SetPlaying marks the stream as playing at rate 1.0 and publishes the metadata.
func (m *MPRIS) SetPlaying(station, title, artist string) {
	if m == nil || m.props == nil {
		return
	}
	m.props.SetMust(playerInterface, "PlaybackStatus", statusPlaying)
	m.props.SetMust(playerInterface, "Rate", 1.0)
	m.props.SetMust(playerInterface, "Metadata", trackMetadata(station, title, artist, m.artworkURL))
}

// SetStopped marks the stream as stopped at rate 0.0 and clears the metadata.
func (m *MPRIS) SetStopped() {
	if m == nil || m.props == nil {
		return
	}
	m.props.SetMust(playerInterface, "PlaybackStatus", statusStopped)
	m.props.SetMust(playerInterface, "Rate", 0.0)
	m.props.SetMust(playerInterface, "Metadata", map[string]dbus.Variant{})
}

// trackMetadata builds the xesam map for the live stream. A live stream has no
// length, so mpris:length is never set.
func trackMetadata(station, title, artist, artworkURL string) map[string]dbus.Variant {
	md := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(liveTrackID),
		"xesam:title":   dbus.MakeVariant(SanitizeUTF8(title)),
		"xesam:artist":  dbus.MakeVariant([]string{SanitizeUTF8(artist)}),
		"xesam:album":   dbus.MakeVariant(SanitizeUTF8(station)),
	}
	if artworkURL != "" {
		md["mpris:artUrl"] = dbus.MakeVariant(artworkURL)
	}
	return md
}

// Close releases D-Bus resources.
func (m *MPRIS) Close() {
	if m != nil && m.conn != nil {
		_, _ = m.conn.ReleaseName(busName)
		_ = m.conn.Close()
	}
}

// SanitizeUTF8 removes invalid UTF8 characters from a string.
// D-Bus requires all strings to be valid UTF8.
func SanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r != utf8.RuneError {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (m *MPRIS) send(msg tea.Msg) {
	if m.sender != nil {
		m.sender.Send(msg)
	}
}

// org.mpris.MediaPlayer2 methods

func (r *mprisRoot) Raise() *dbus.Error {
	return nil
}

func (r *mprisRoot) Quit() *dbus.Error {
	r.mpris.send(MPRISQuitMsg{})
	return nil
}

// org.mpris.MediaPlayer2.Player methods

// Next and Previous are not supported by a single live stream.
func (p *mprisPlayer) Next() *dbus.Error     { return nil }
func (p *mprisPlayer) Previous() *dbus.Error { return nil }

func (p *mprisPlayer) Pause() *dbus.Error {
	p.mpris.send(MPRISPauseMsg{})
	return nil
}

func (p *mprisPlayer) PlayPause() *dbus.Error {
	p.mpris.send(MPRISPlayPauseMsg{})
	return nil
}

func (p *mprisPlayer) Stop() *dbus.Error {
	p.mpris.send(MPRISStopMsg{})
	return nil
}

func (p *mprisPlayer) Play() *dbus.Error {
	p.mpris.send(MPRISPlayMsg{})
	return nil
}

func (p *mprisPlayer) Seek(_ int64) *dbus.Error {
	return nil
}

func (p *mprisPlayer) SetPosition(_ dbus.ObjectPath, _ int64) *dbus.Error {
	return nil
}

func (p *mprisPlayer) OpenUri(_ string) *dbus.Error {
	return nil
}
