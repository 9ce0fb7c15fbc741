package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - station logo inspired
var (
	TitleColor   = lipgloss.Color("#E4002B") // Red for title
	PrimaryColor = lipgloss.Color("#F5A623") // Amber accent
	PlayingColor = lipgloss.Color("#2EBD59") // Green for playing
	ErrorColor   = lipgloss.Color("#FF3333") // Red for errors
	SubtleColor  = lipgloss.Color("#666666") // Gray for secondary text
	LinkColor    = lipgloss.Color("#5DADE2") // Blue for social links
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TitleColor).
			MarginLeft(2)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			MarginLeft(2)

	NowPlayingStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(1, 3).
			MarginLeft(2).
			MarginTop(1)

	ArtistStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			MarginTop(1)

	StatusPlayingStyle = lipgloss.NewStyle().
				Foreground(PlayingColor).
				Bold(true)

	StatusStoppedStyle = lipgloss.NewStyle().
				Foreground(SubtleColor)

	TrackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC")).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			MarginLeft(2)

	HelpStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	ModalBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(PrimaryColor).
			Background(lipgloss.Color("#1a1a1a")).
			Padding(1, 3)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	LinkStyle = lipgloss.NewStyle().
			Foreground(LinkColor).
			Underline(true)
)
