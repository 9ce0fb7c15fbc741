package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"teateonair/internal/pages"
	"teateonair/internal/playback"
	"teateonair/internal/ui"
)

// Playback is the part of playback.Controller the UI drives.
type Playback interface {
	Toggle() error
	Stop()
	HandleRemote(cmd playback.RemoteCommand) error
	Snapshot() playback.Snapshot
}

// PageSource serves the schedule and programs snapshots.
type PageSource interface {
	Get(page pages.Page) (string, bool)
	Load(ctx context.Context, page pages.Page) (string, error)
}

// Modal identifies the overlay currently shown.
type Modal int

const (
	ModalNone Modal = iota
	ModalSchedule
	ModalPrograms
	ModalAbout
)

// page returns the cache slot backing a modal.
func (mo Modal) page() (pages.Page, bool) {
	switch mo {
	case ModalSchedule:
		return pages.PageSchedule, true
	case ModalPrograms:
		return pages.PagePrograms, true
	default:
		return 0, false
	}
}

func (mo Modal) title() string {
	switch mo {
	case ModalSchedule:
		return "Palinsesto"
	case ModalPrograms:
		return "Programmi"
	case ModalAbout:
		return "Chi siamo"
	default:
		return ""
	}
}

// Options configures a Model.
type Options struct {
	Playback Playback
	Pages    PageSource
	Station  string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Model represents the application's state.
type Model struct {
	Playback Playback
	Pages    PageSource
	Station  string
	Now      func() time.Time

	Keys     KeyMap
	Help     help.Model
	Spinner  spinner.Model
	Viewport viewport.Model

	Modal        Modal
	ModalLoading bool
	Pending      int   // playback commands in flight
	Err          error // last playback error, cleared by the next success
	Width        int
	Height       int
}

// New creates the model.
func New(opts Options) *Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.ArtistStyle

	return &Model{
		Playback: opts.Playback,
		Pages:    opts.Pages,
		Station:  opts.Station,
		Now:      now,
		Keys:     DefaultKeyMap(),
		Help:     help.New(),
		Spinner:  sp,
		Viewport: viewport.New(0, 0),
	}
}

// Init enters the alt screen and starts the clock used for "updated ago".
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, TickClock())
}
