package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MetadataPollInterval is the fixed cadence of status document fetches.
const MetadataPollInterval = 10 * time.Second

const (
	statusRequestTimeout = 15 * time.Second
	maxStatusBodyBytes   = 1 << 20
	trackSeparator       = " - "
)

// Fallback values used when the currently playing string cannot be split.
const (
	UnknownArtist = "Artista sconosciuto"
	UnknownTitle  = "Titolo sconosciuto"
)

var (
	// ErrStatusFetch reports a transport failure or non-200 response from the status endpoint.
	ErrStatusFetch = errors.New("status fetch failed")
	// ErrStatusParse reports a status body that is not JSON or lacks yp_currently_playing.
	ErrStatusParse = errors.New("status parse failed")
)

// TrackInfo is the artist/title pair currently on air.
type TrackInfo struct {
	Artist string
	Title  string
}

// String formats the track the way Icecast reports it.
func (t TrackInfo) String() string {
	return t.Artist + trackSeparator + t.Title
}

// ParseCurrentlyPlaying splits an Icecast "artist - title" string. Only the first two
// segments are used; anything after a second separator is dropped.
func ParseCurrentlyPlaying(s string) TrackInfo {
	info := TrackInfo{Artist: UnknownArtist, Title: UnknownTitle}
	if s == "" {
		return info
	}

	parts := strings.Split(s, trackSeparator)
	info.Artist = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		info.Title = strings.TrimSpace(parts[1])
	}
	return info
}

type statusDocument struct {
	IceStats *struct {
		Source json.RawMessage `json:"source"`
	} `json:"icestats"`
}

type statusSource struct {
	CurrentlyPlaying *string `json:"yp_currently_playing"`
}

// ParseStatus extracts yp_currently_playing from a status-json.xsl body.
// Icecast reports source as an array when more than one mount is live; the
// first mount carrying the field wins.
func ParseStatus(body []byte) (string, error) {
	var doc statusDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("%w: failed to decode json: %w", ErrStatusParse, err)
	}
	if doc.IceStats == nil || len(doc.IceStats.Source) == 0 {
		return "", fmt.Errorf("%w: missing icestats.source", ErrStatusParse)
	}

	raw := bytes.TrimSpace(doc.IceStats.Source)
	var sources []statusSource
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &sources); err != nil {
			return "", fmt.Errorf("%w: failed to decode sources: %w", ErrStatusParse, err)
		}
	} else {
		var src statusSource
		if err := json.Unmarshal(raw, &src); err != nil {
			return "", fmt.Errorf("%w: failed to decode source: %w", ErrStatusParse, err)
		}
		sources = append(sources, src)
	}

	for _, src := range sources {
		if src.CurrentlyPlaying != nil {
			return *src.CurrentlyPlaying, nil
		}
	}
	return "", fmt.Errorf("%w: missing yp_currently_playing", ErrStatusParse)
}

// ticker is the part of time.Ticker the poller uses. Tests drive it by hand.
type ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func newTimeTicker(d time.Duration) ticker {
	return timeTicker{time.NewTicker(d)}
}

// MetadataPoller fetches now-playing metadata from an Icecast status endpoint
// while active.
type MetadataPoller struct {
	url       string
	userAgent string
	client    *http.Client
	log       zerolog.Logger
	newTicker func(time.Duration) ticker

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
	done    chan struct{}
}

// NewMetadataPoller creates a poller for the given status-json.xsl URL.
func NewMetadataPoller(url, userAgent string, logger zerolog.Logger) *MetadataPoller {
	return &MetadataPoller{
		url:       url,
		userAgent: userAgent,
		client:    &http.Client{},
		log:       logger.With().Str("component", "metadata").Logger(),
		newTicker: newTimeTicker,
		done:      make(chan struct{}),
	}
}

// Start fetches once immediately, then again on every tick until Stop is called.
// onUpdate runs on the poller goroutine; callers marshal it onto their own context.
// A poller runs at most once: Start after Start or Stop does nothing.
func (mp *MetadataPoller) Start(onUpdate func(TrackInfo)) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.stopped || mp.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	mp.cancel = cancel
	go mp.run(ctx, onUpdate)
}

// Stop cancels the schedule and any in-flight request. Safe to call multiple times.
func (mp *MetadataPoller) Stop() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.stopped {
		return
	}
	mp.stopped = true
	if mp.cancel != nil {
		mp.cancel()
	} else {
		close(mp.done)
	}
}

// Done is closed once the polling goroutine has exited.
func (mp *MetadataPoller) Done() <-chan struct{} {
	return mp.done
}

func (mp *MetadataPoller) run(ctx context.Context, onUpdate func(TrackInfo)) {
	defer close(mp.done)

	t := mp.newTicker(MetadataPollInterval)
	defer t.Stop()

	mp.poll(ctx, onUpdate)
	for {
		select {
		case <-t.C():
			mp.poll(ctx, onUpdate)
		case <-ctx.Done():
			return
		}
	}
}

func (mp *MetadataPoller) poll(ctx context.Context, onUpdate func(TrackInfo)) {
	if ctx.Err() != nil {
		return
	}

	info, err := mp.fetch(ctx)
	if ctx.Err() != nil {
		// Stopped while the request was in flight.
		return
	}
	if err != nil {
		mp.log.Warn().Err(err).Msg("skipping now-playing update")
		return
	}

	mp.log.Debug().Str("artist", info.Artist).Str("title", info.Title).Msg("now playing")
	onUpdate(info)
}

// fetch performs one GET of the status document.
func (mp *MetadataPoller) fetch(ctx context.Context) (TrackInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, statusRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mp.url, http.NoBody)
	if err != nil {
		return TrackInfo{}, fmt.Errorf("%w: failed to create request: %w", ErrStatusFetch, err)
	}
	if mp.userAgent != "" {
		req.Header.Set("User-Agent", mp.userAgent)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := mp.client.Do(req)
	if err != nil {
		return TrackInfo{}, fmt.Errorf("%w: failed to fetch status: %w", ErrStatusFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return TrackInfo{}, fmt.Errorf("%w: unexpected status code: %d", ErrStatusFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBodyBytes))
	if err != nil {
		return TrackInfo{}, fmt.Errorf("%w: failed to read body: %w", ErrStatusFetch, err)
	}

	current, err := ParseStatus(body)
	if err != nil {
		return TrackInfo{}, err
	}
	return ParseCurrentlyPlaying(current), nil
}
