//go:build linux

package platform

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain title", input: "Pink Floyd - Money", want: "Pink Floyd - Money"},
		{name: "accented station text", input: "Radio Teate On Air · Città di Chieti", want: "Radio Teate On Air · Città di Chieti"},
		{name: "empty", input: "", want: ""},
		{name: "latin-1 byte from the status page", input: "Caff\xe8 Italia", want: "Caff Italia"},
		{name: "only invalid bytes", input: "\xff\xfe\xfd", want: ""},
		{name: "interleaved", input: "L\xffi\xfev\xfde", want: "Live"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeUTF8(tt.input))
		})
	}
}

func TestTrackMetadata(t *testing.T) {
	md := trackMetadata("Radio Teate On Air", "Money", "Pink Floyd", "https://example.com/logo.png")

	assert.Equal(t, liveTrackID, md["mpris:trackid"].Value())
	assert.Equal(t, "Money", md["xesam:title"].Value())
	assert.Equal(t, []string{"Pink Floyd"}, md["xesam:artist"].Value())
	assert.Equal(t, "Radio Teate On Air", md["xesam:album"].Value())
	assert.Equal(t, "https://example.com/logo.png", md["mpris:artUrl"].Value())
	assert.NotContains(t, md, "mpris:length")
}

func TestTrackMetadata_NoArtwork(t *testing.T) {
	md := trackMetadata("Radio Teate On Air", "Radio Teate On Air", "Live Stream", "")

	assert.NotContains(t, md, "mpris:artUrl")
	assert.Equal(t, []string{"Live Stream"}, md["xesam:artist"].Value())
}

func TestTrackMetadata_Sanitizes(t *testing.T) {
	md := trackMetadata("Station\xff", "Ti\xfetle", "Art\xffist", "")

	assert.Equal(t, "Station", md["xesam:album"].Value())
	assert.Equal(t, "Title", md["xesam:title"].Value())
	assert.Equal(t, []string{"Artist"}, md["xesam:artist"].Value())
}

func TestMPRISProperties_LiveStream(t *testing.T) {
	props := mprisProperties("Radio Teate On Air")
	player := props[playerInterface]

	assert.Equal(t, false, player["CanSeek"].Value)
	assert.Equal(t, false, player["CanGoNext"].Value)
	assert.Equal(t, false, player["CanGoPrevious"].Value)
	assert.Equal(t, 0.0, player["Rate"].Value)
	assert.Equal(t, statusStopped, player["PlaybackStatus"].Value)
	assert.Equal(t, "Radio Teate On Air", props[mprisInterface]["Identity"].Value)
}

type recordingSender struct {
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.msgs = append(r.msgs, msg)
}

func TestPlayerMethods_SendMessages(t *testing.T) {
	sender := &recordingSender{}
	m := &MPRIS{}
	m.SetSender(sender)
	p := &mprisPlayer{mpris: m}
	r := &mprisRoot{mpris: m}

	assert.Nil(t, p.Play())
	assert.Nil(t, p.Pause())
	assert.Nil(t, p.Stop())
	assert.Nil(t, p.PlayPause())
	assert.Nil(t, p.Next())
	assert.Nil(t, p.Previous())
	assert.Nil(t, r.Quit())

	assert.Equal(t, []tea.Msg{
		MPRISPlayMsg{},
		MPRISPauseMsg{},
		MPRISStopMsg{},
		MPRISPlayPauseMsg{},
		MPRISQuitMsg{},
	}, sender.msgs)
}

func TestSetPlaying_WithoutBusIsNoop(t *testing.T) {
	var nilMPRIS *MPRIS
	assert.NotPanics(t, func() {
		nilMPRIS.SetPlaying("a", "b", "c")
		nilMPRIS.SetStopped()
		nilMPRIS.Close()
		(&MPRIS{}).SetPlaying("a", "b", "c")
	})
}
