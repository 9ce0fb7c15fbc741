package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"teateonair/internal/audio"
	"teateonair/internal/pages"
	"teateonair/internal/playback"
)

const clockInterval = time.Second

// TrackUpdateMsg is sent from the poller goroutine when new metadata has been applied.
type TrackUpdateMsg struct {
	Track audio.TrackInfo
}

// PlaybackResultMsg reports the outcome of a start, stop or toggle.
type PlaybackResultMsg struct {
	Err error
}

// PageLoadedMsg carries a page rendered as plain text, or the load error.
type PageLoadedMsg struct {
	Page    pages.Page
	Content string
	Err     error
}

// ClockTickMsg refreshes relative timestamps.
type ClockTickMsg time.Time

// TickClock returns a command that fires ClockTickMsg after a second.
func TickClock() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return ClockTickMsg(t)
	})
}

// Toggle runs Playback.Toggle off the UI loop; opening the stream blocks on the network.
func Toggle(p Playback) tea.Cmd {
	return func() tea.Msg {
		return PlaybackResultMsg{Err: p.Toggle()}
	}
}

// Stop runs Playback.Stop off the UI loop.
func Stop(p Playback) tea.Cmd {
	return func() tea.Msg {
		p.Stop()
		return PlaybackResultMsg{}
	}
}

// Remote forwards a media-key command to the controller.
func Remote(p Playback, cmd playback.RemoteCommand) tea.Cmd {
	return func() tea.Msg {
		return PlaybackResultMsg{Err: p.HandleRemote(cmd)}
	}
}

// LoadPage reads a page from the cache, fetching it live when the slot is empty.
func LoadPage(src PageSource, page pages.Page) tea.Cmd {
	return func() tea.Msg {
		doc, err := src.Load(context.Background(), page)
		if err != nil {
			return PageLoadedMsg{Page: page, Err: err}
		}
		return PageLoadedMsg{Page: page, Content: pages.PlainText(doc)}
	}
}
