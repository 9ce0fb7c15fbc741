package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"teateonair/internal/playback"
	"teateonair/internal/ui"
)

// RenderHeader renders the station name and the on-air line.
func (m *Model) RenderHeader(snap playback.Snapshot) string {
	lines := []string{ui.TitleStyle.Render(m.Station)}
	if snap.State == playback.StatePlaying {
		lines = append(lines, ui.SubtitleStyle.Render("Now Playing..."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RenderNowPlaying renders the artist and title box.
func (m *Model) RenderNowPlaying(snap playback.Snapshot) string {
	var body string
	switch {
	case snap.State != playback.StatePlaying:
		body = ui.StatusStoppedStyle.Render("Premi spazio per ascoltare la diretta")
	case snap.Track == nil:
		body = ui.ArtistStyle.Render(playback.LiveStreamArtist) + "\n" + ui.TrackInfoStyle.Render(m.Station)
	default:
		body = ui.ArtistStyle.Render(snap.Track.Artist) + "\n" + ui.TrackInfoStyle.Render(snap.Track.Title)
	}
	return ui.NowPlayingStyle.Render(body)
}

// RenderStatusBar renders the styled status bar.
func (m *Model) RenderStatusBar(snap playback.Snapshot) string {
	var icon, stateText string
	var stateStyle lipgloss.Style

	if snap.State == playback.StatePlaying {
		icon = "▶"
		stateText = "Playing"
		stateStyle = ui.StatusPlayingStyle
	} else {
		icon = "■"
		stateText = "Stopped"
		stateStyle = ui.StatusStoppedStyle
	}

	parts := []string{stateStyle.Render(icon + " " + stateText)}
	if m.Pending > 0 {
		parts[0] = m.Spinner.View() + " " + parts[0]
	}

	if snap.State == playback.StatePlaying {
		channelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
		parts = append(parts, channelStyle.Render(m.Station))
	}

	if snap.Track != nil {
		parts = append(parts, ui.TrackInfoStyle.Render("♫ "+snap.Track.String()))
		if !snap.UpdatedAt.IsZero() {
			ago := humanize.RelTime(snap.UpdatedAt, m.Now(), "ago", "from now")
			parts = append(parts, ui.StatusStoppedStyle.Render("updated "+ago))
		}
	}

	return ui.StatusBarStyle.Render(strings.Join(parts, "  │  "))
}

// RenderModal renders the open modal box.
func (m *Model) RenderModal() string {
	var body string
	if m.ModalLoading {
		body = m.Spinner.View() + " Caricamento " + strings.ToLower(m.Modal.title()) + "..."
	} else {
		body = m.Viewport.View()
	}
	hint := ui.StatusStoppedStyle.Render("esc chiudi  ·  ↑/↓ scorri")
	content := lipgloss.JoinVertical(lipgloss.Left,
		ui.ModalTitleStyle.Render(m.Modal.title()),
		"",
		body,
		"",
		hint,
	)
	return ui.ModalBoxStyle.Render(content)
}

func aboutContent() string {
	var b strings.Builder
	b.WriteString(aboutText)
	b.WriteString("\n\nSeguici\n")
	for _, link := range SocialLinks {
		fmt.Fprintf(&b, "\n%-10s %s", link.Name, ui.LinkStyle.Render(link.URL))
	}
	return b.String()
}

// PlaceOverlay places the foreground string on top of the background string
// at position x, y.
func PlaceOverlay(x, y int, fg, bg string) string {
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")

	for i, fgLine := range fgLines {
		bgLineIdx := y + i
		if bgLineIdx < 0 {
			continue
		}
		// Grow the background so a tall modal is never clipped.
		for bgLineIdx >= len(bgLines) {
			bgLines = append(bgLines, "")
		}

		bgLine := bgLines[bgLineIdx]
		bgLineWidth := ansi.StringWidth(bgLine)

		if bgLineWidth < x {
			bgLine += strings.Repeat(" ", x-bgLineWidth)
			bgLineWidth = x
		}

		fgWidth := ansi.StringWidth(fgLine)
		leftPart := ansi.Truncate(bgLine, x, "")
		rightStart := x + fgWidth
		var rightPart string
		if rightStart < bgLineWidth {
			rightPart = ansi.TruncateLeft(bgLine, rightStart, "")
		}

		bgLines[bgLineIdx] = leftPart + fgLine + rightPart
	}

	return strings.Join(bgLines, "\n")
}

// View renders the application's UI.
func (m *Model) View() string {
	snap := m.Playback.Snapshot()

	components := []string{
		"", // Top margin
		m.RenderHeader(snap),
		m.RenderNowPlaying(snap),
		m.RenderStatusBar(snap),
	}
	if m.Err != nil {
		components = append(components, ui.ErrorStyle.Render("✕ "+m.Err.Error()))
	}
	components = append(components, ui.HelpStyle.Render(m.Help.View(m.Keys)))
	mainView := lipgloss.JoinVertical(lipgloss.Left, components...)

	if m.Modal == ModalNone {
		return mainView
	}

	box := m.RenderModal()
	x := (m.Width - lipgloss.Width(box)) / 2
	y := (m.Height - lipgloss.Height(box)) / 2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return PlaceOverlay(x, y, box, mainView)
}
