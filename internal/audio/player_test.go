package audio

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlayer() *AudioPlayer {
	return &AudioPlayer{
		client:    newStreamClient(),
		userAgent: "TeateOnAir/test",
		log:       zerolog.Nop(),
	}
}

func TestNewStreamClient_BoundsConnectOnly(t *testing.T) {
	client := newStreamClient()

	assert.Zero(t, client.Timeout)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, streamHeaderTimeout, transport.ResponseHeaderTimeout)
	assert.NotNil(t, transport.DialContext)
}

func TestPlay_StopAbortsSilentServer(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	p := newTestPlayer()
	result := make(chan error, 1)
	go func() { result <- p.Play(server.URL) }()

	// Wait until Play has registered its cancel func.
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.cancelStream != nil
	}, time.Second, 5*time.Millisecond)

	p.Stop()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrStreamCancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("Play did not return after Stop")
	}
}

func TestPlay_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TeateOnAir/test", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	p := newTestPlayer()
	err := p.Play(server.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Nil(t, p.cancelStream)
}
