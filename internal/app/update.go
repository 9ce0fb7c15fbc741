package app

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"teateonair/internal/pages"
	"teateonair/internal/platform"
	"teateonair/internal/playback"
	"teateonair/internal/ui"
)

const (
	scheduleEmptyText = "Gli show in programma oggi sono terminati! Ascolta comunque la nostra playlist selezionata!"
	programsEmptyText = "Contenuto non trovato"
)

// Update handles incoming messages and updates the model's state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		m.resizeViewport()
		return m, nil

	case TrackUpdateMsg:
		// The view reads the controller snapshot; this message only triggers a redraw.
		return m, nil

	case PlaybackResultMsg:
		if m.Pending > 0 {
			m.Pending--
		}
		m.Err = msg.Err
		return m, nil

	case PageLoadedMsg:
		if page, ok := m.Modal.page(); !ok || page != msg.Page || !m.ModalLoading {
			// The modal was closed or switched while loading.
			return m, nil
		}
		m.ModalLoading = false
		m.setModalContent(pageText(msg))
		return m, nil

	case ClockTickMsg:
		return m, TickClock()

	case spinner.TickMsg:
		if m.Pending == 0 && !m.ModalLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	// MPRIS control messages
	case platform.MPRISPlayMsg:
		return m, m.run(Remote(m.Playback, playback.RemotePlay))
	case platform.MPRISPauseMsg:
		return m, m.run(Remote(m.Playback, playback.RemotePause))
	case platform.MPRISStopMsg:
		return m, m.run(Remote(m.Playback, playback.RemoteStop))
	case platform.MPRISPlayPauseMsg:
		return m, m.run(Remote(m.Playback, playback.RemoteToggle))
	case platform.MPRISQuitMsg:
		return m, m.quit()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.Keys.Quit) {
		return m.quit()
	}

	if m.Modal != ModalNone {
		if key.Matches(msg, m.Keys.Close) {
			m.closeModal()
			return nil
		}
		var cmd tea.Cmd
		m.Viewport, cmd = m.Viewport.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, m.Keys.Toggle):
		return m.run(Toggle(m.Playback))
	case key.Matches(msg, m.Keys.Stop):
		return m.run(Stop(m.Playback))
	case key.Matches(msg, m.Keys.Schedule):
		return m.openModal(ModalSchedule)
	case key.Matches(msg, m.Keys.Programs):
		return m.openModal(ModalPrograms)
	case key.Matches(msg, m.Keys.About):
		return m.openModal(ModalAbout)
	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
	}
	return nil
}

// run dispatches a playback command and starts the spinner for the first one in flight.
func (m *Model) run(cmd tea.Cmd) tea.Cmd {
	m.Pending++
	if m.Pending == 1 && !m.ModalLoading {
		return tea.Batch(cmd, m.Spinner.Tick)
	}
	return cmd
}

func (m *Model) quit() tea.Cmd {
	if m.Playback != nil {
		m.Playback.Stop()
	}
	return tea.Quit
}

func (m *Model) openModal(mo Modal) tea.Cmd {
	m.Modal = mo
	m.ModalLoading = false
	m.resizeViewport()

	page, ok := mo.page()
	if !ok {
		m.setModalContent(aboutContent())
		return nil
	}

	if doc, ok := m.Pages.Get(page); ok {
		m.setModalContent(pages.PlainText(doc))
		return nil
	}

	m.ModalLoading = true
	m.Viewport.SetContent("")
	cmds := []tea.Cmd{LoadPage(m.Pages, page)}
	if m.Pending == 0 {
		cmds = append(cmds, m.Spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *Model) closeModal() {
	m.Modal = ModalNone
	m.ModalLoading = false
	m.Viewport.SetContent("")
}

func (m *Model) setModalContent(text string) {
	wrapped := lipgloss.NewStyle().Width(m.Viewport.Width).Render(text)
	m.Viewport.SetContent(wrapped)
	m.Viewport.GotoTop()
}

// resizeViewport fits the modal body inside the window, leaving room for the
// border, padding, title and hint lines.
func (m *Model) resizeViewport() {
	w := m.Width - 12
	if w > 76 {
		w = 76
	}
	if w < 20 {
		w = 20
	}
	h := m.Height - 10
	if h < 3 {
		h = 3
	}
	m.Viewport.Width = w
	m.Viewport.Height = h
}

// pageText picks what a modal shows for a page load result.
func pageText(msg PageLoadedMsg) string {
	if msg.Err == nil {
		if msg.Content == "" {
			return emptyText(msg.Page)
		}
		return msg.Content
	}
	if errors.Is(msg.Err, pages.ErrRegionNotFound) {
		return emptyText(msg.Page)
	}
	return ui.ErrorStyle.UnsetMarginLeft().Render(fmt.Sprintf("✕ Impossibile caricare la pagina\n\n%v", msg.Err))
}

func emptyText(page pages.Page) string {
	if page == pages.PageSchedule {
		return scheduleEmptyText
	}
	return programsEmptyText
}
