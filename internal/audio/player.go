package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/rs/zerolog"
)

const (
	sampleRate      = 44100
	fadeInDuration  = 500 * time.Millisecond
	fadeOutDuration = 250 * time.Millisecond
	fadeSteps       = 20

	streamDialTimeout   = 10 * time.Second
	streamHeaderTimeout = 15 * time.Second
)

// ErrStreamCancelled is returned by Play when Stop interrupts a stream that is still opening.
var ErrStreamCancelled = errors.New("stream open cancelled")

// Player is the interface for audio playback operations.
// This allows mocking the player in tests.
type Player interface {
	Play(url string) error
	Stop()
}

// AudioPlayer plays a live MP3 stream through oto.
type AudioPlayer struct {
	ctx       *oto.Context
	client    *http.Client
	userAgent string
	log       zerolog.Logger

	mu           sync.Mutex
	player       *oto.Player
	stream       io.Closer
	cancelStream context.CancelFunc
	cancelFade   chan struct{}
}

// NewPlayer initializes the oto context with a default sample rate and channel count.
func NewPlayer(userAgent string, logger zerolog.Logger) (*AudioPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	return &AudioPlayer{
		ctx:       ctx,
		client:    newStreamClient(),
		userAgent: userAgent,
		log:       logger.With().Str("component", "player").Logger(),
	}, nil
}

// newStreamClient bounds connecting and waiting for headers. The body is
// read for as long as the stream lives, so there is no overall timeout.
func newStreamClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: streamDialTimeout, KeepAlive: 30 * time.Second}).DialContext
	transport.ResponseHeaderTimeout = streamHeaderTimeout
	return &http.Client{Transport: transport}
}

// Play opens the stream at url and starts playback, replacing any current stream.
// It returns once the first MP3 frame has been decoded, so connection and format
// errors are reported to the caller. A concurrent Stop aborts a Play that is
// still connecting.
func (p *AudioPlayer) Play(url string) error {
	p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	p.cancelStream = cancel
	p.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		p.abortOpen(cancel)
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		p.abortOpen(cancel)
		if ctx.Err() != nil {
			return ErrStreamCancelled
		}
		return fmt.Errorf("failed to fetch stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		p.abortOpen(cancel)
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// The decoder reads from a pipe so that closing it unblocks oto on Stop.
	pr, pw := io.Pipe()
	go func() {
		defer func() { _ = resp.Body.Close() }()
		if _, err := io.Copy(pw, resp.Body); err != nil && ctx.Err() == nil {
			p.log.Warn().Err(err).Msg("stream copy ended")
		}
		_ = pw.Close()
	}()

	decoded, err := mp3.DecodeWithSampleRate(sampleRate, pr)
	if err != nil {
		p.abortOpen(cancel)
		_ = pr.Close()
		if ctx.Err() != nil {
			return ErrStreamCancelled
		}
		return fmt.Errorf("failed to decode mp3: %w", err)
	}

	p.mu.Lock()
	if ctx.Err() != nil {
		p.mu.Unlock()
		_ = pr.Close()
		return ErrStreamCancelled
	}
	p.stream = pr
	p.player = p.ctx.NewPlayer(decoded)
	p.player.SetVolume(0)
	p.player.Play()
	p.cancelFade = make(chan struct{})
	player, cancelFade := p.player, p.cancelFade
	p.mu.Unlock()

	go fadeIn(player, cancelFade)

	p.log.Info().Str("url", url).Msg("stream opened")
	return nil
}

// abortOpen cancels a stream that failed to open and forgets its cancel func.
func (p *AudioPlayer) abortOpen(cancel context.CancelFunc) {
	cancel()
	p.mu.Lock()
	if p.player == nil {
		p.cancelStream = nil
	}
	p.mu.Unlock()
}

// fadeIn gradually increases the volume from 0 to 1.
func fadeIn(player *oto.Player, cancel <-chan struct{}) {
	stepDuration := fadeInDuration / fadeSteps
	for i := 1; i <= fadeSteps; i++ {
		select {
		case <-cancel:
			return
		case <-time.After(stepDuration):
			player.SetVolume(float64(i) / fadeSteps)
		}
	}
}

// fadeOut gradually decreases the volume from current to 0.
func fadeOut(player *oto.Player) {
	stepDuration := fadeOutDuration / fadeSteps
	startVolume := player.Volume()
	for i := fadeSteps - 1; i >= 0; i-- {
		time.Sleep(stepDuration)
		player.SetVolume(startVolume * float64(i) / fadeSteps)
	}
}

// Stop fades out, halts playback, and closes the stream. Safe to call when idle.
func (p *AudioPlayer) Stop() {
	p.mu.Lock()
	player, stream, cancel := p.player, p.stream, p.cancelStream
	if p.cancelFade != nil {
		close(p.cancelFade)
		p.cancelFade = nil
	}
	p.player, p.stream, p.cancelStream = nil, nil, nil
	p.mu.Unlock()

	if player != nil {
		fadeOut(player)
		player.Pause()
	}
	if cancel != nil {
		cancel()
	}
	if stream != nil {
		_ = stream.Close()
		p.log.Info().Msg("stream closed")
	}
}
