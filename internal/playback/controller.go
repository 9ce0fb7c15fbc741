package playback

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"teateonair/internal/audio"
)

// LiveStreamArtist is shown on the media surface until the first poll resolves.
const LiveStreamArtist = "Live Stream"

var (
	// ErrConnection reports that the live stream could not be opened.
	ErrConnection = errors.New("stream connection failed")
	// ErrInvalidStreamURL reports an empty or malformed stream URL.
	ErrInvalidStreamURL = fmt.Errorf("invalid stream url: %w", ErrConnection)
)

// Poller publishes now-playing metadata while started.
type Poller interface {
	Start(onUpdate func(audio.TrackInfo))
	Stop()
}

// Surface is the system "now playing" display (MPRIS on Linux).
type Surface interface {
	SetPlaying(station, title, artist string)
	SetStopped()
}

// Options configures a Controller.
type Options struct {
	StreamURL string
	Station   string
	Player    audio.Player
	// NewPoller returns a fresh poller for every playback session.
	NewPoller func() Poller
	// Surface may be nil.
	Surface Surface
	Logger  zerolog.Logger
	// OnTrack runs on the poller goroutine after a track update has been applied.
	OnTrack func(audio.TrackInfo)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller owns the live stream and the Playing/Stopped state, and drives
// the metadata poller while playing.
type Controller struct {
	streamURL string
	station   string
	player    audio.Player
	newPoller func() Poller
	surface   Surface
	log       zerolog.Logger
	onTrack   func(audio.TrackInfo)
	now       func() time.Time

	// op serializes Start, Stop and Toggle.
	op sync.Mutex

	mu         sync.Mutex
	state      State
	track      *audio.TrackInfo
	updatedAt  time.Time
	poller     Poller
	generation uint64
	// connecting is set while Player.Play runs under op.
	connecting bool
}

type nopSurface struct{}

func (nopSurface) SetPlaying(string, string, string) {}
func (nopSurface) SetStopped()                       {}

// New creates a stopped controller.
func New(opts Options) *Controller {
	c := &Controller{
		streamURL: opts.StreamURL,
		station:   opts.Station,
		player:    opts.Player,
		newPoller: opts.NewPoller,
		surface:   opts.Surface,
		log:       opts.Logger.With().Str("component", "playback").Logger(),
		onTrack:   opts.OnTrack,
		now:       opts.Now,
	}
	if c.surface == nil {
		c.surface = nopSurface{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Start opens the stream and begins polling for metadata. Errors are logged
// and returned; the state is left unchanged on failure. Start while playing
// does nothing.
func (c *Controller) Start() error {
	c.op.Lock()
	defer c.op.Unlock()
	return c.start()
}

// Stop closes the stream, cancels polling and clears the metadata.
// Safe to call when already stopped. A start that is still connecting is
// aborted so Stop never waits on a stalled server.
func (c *Controller) Stop() {
	c.mu.Lock()
	connecting := c.connecting
	c.mu.Unlock()
	if connecting {
		c.log.Info().Msg("aborting pending stream open")
		c.player.Stop()
	}

	c.op.Lock()
	defer c.op.Unlock()
	c.stop()
}

// Toggle stops when playing and starts otherwise.
func (c *Controller) Toggle() error {
	c.op.Lock()
	defer c.op.Unlock()

	if c.IsPlaying() {
		c.stop()
		return nil
	}
	return c.start()
}

// HandleRemote applies a command from the media surface. Play only acts when
// stopped; pause and stop only act when playing.
func (c *Controller) HandleRemote(cmd RemoteCommand) error {
	c.log.Debug().Stringer("command", cmd).Msg("remote command")

	switch cmd {
	case RemotePlay:
		if !c.IsPlaying() {
			return c.Start()
		}
	case RemotePause, RemoteStop:
		if c.IsPlaying() {
			c.Stop()
		}
	case RemoteToggle:
		return c.Toggle()
	default:
		return fmt.Errorf("unknown remote command: %d", int(cmd))
	}
	return nil
}

func (c *Controller) start() error {
	if c.IsPlaying() {
		c.log.Debug().Msg("start ignored: already playing")
		return nil
	}

	if err := validateStreamURL(c.streamURL); err != nil {
		c.log.Error().Err(err).Str("url", c.streamURL).Msg("cannot start playback")
		return err
	}

	c.setConnecting(true)
	err := c.player.Play(c.streamURL)
	c.setConnecting(false)
	if err != nil {
		err = fmt.Errorf("%w: failed to open stream: %w", ErrConnection, err)
		c.log.Error().Err(err).Str("url", c.streamURL).Msg("cannot start playback")
		return err
	}

	poller := c.newPoller()

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.state = StatePlaying
	c.track = nil
	c.updatedAt = c.now()
	c.poller = poller
	c.surface.SetPlaying(c.station, c.station, LiveStreamArtist)
	c.mu.Unlock()

	c.log.Info().Str("url", c.streamURL).Msg("playback started")
	poller.Start(func(info audio.TrackInfo) {
		c.applyTrack(gen, info)
	})
	return nil
}

func (c *Controller) stop() {
	c.mu.Lock()
	wasPlaying := c.state == StatePlaying
	poller := c.poller
	c.poller = nil
	c.generation++
	c.state = StateStopped
	c.track = nil
	c.updatedAt = c.now()
	c.surface.SetStopped()
	c.mu.Unlock()

	if poller != nil {
		poller.Stop()
	}
	if wasPlaying {
		c.player.Stop()
		c.log.Info().Msg("playback stopped")
	}
}

func (c *Controller) setConnecting(v bool) {
	c.mu.Lock()
	c.connecting = v
	c.mu.Unlock()
}

// applyTrack stores a poll result if it belongs to the current session.
func (c *Controller) applyTrack(gen uint64, info audio.TrackInfo) {
	c.mu.Lock()
	if gen != c.generation || c.state != StatePlaying {
		c.mu.Unlock()
		c.log.Debug().Uint64("generation", gen).Msg("discarding stale track update")
		return
	}
	c.track = &info
	c.updatedAt = c.now()
	c.surface.SetPlaying(c.station, info.Title, info.Artist)
	c.mu.Unlock()

	if c.onTrack != nil {
		c.onTrack(info)
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{State: c.state, UpdatedAt: c.updatedAt}
	if c.track != nil {
		t := *c.track
		s.Track = &t
	}
	return s
}

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsPlaying reports whether the stream is open.
func (c *Controller) IsPlaying() bool {
	return c.State() == StatePlaying
}

// Track returns a copy of the current metadata, or nil if none has arrived.
func (c *Controller) Track() *audio.TrackInfo {
	return c.Snapshot().Track
}

// Station returns the station name shown on surfaces.
func (c *Controller) Station() string {
	return c.station
}

func validateStreamURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidStreamURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStreamURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidStreamURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidStreamURL)
	}
	return nil
}
