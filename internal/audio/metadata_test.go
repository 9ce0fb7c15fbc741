package audio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStatusBody = `{"icestats":{"admin":"info@radioteateonair.it","source":{"listeners":12,"server_name":"Radio Teate On Air","yp_currently_playing":"Pink Floyd - Money"}}}`

func TestParseCurrentlyPlaying(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  TrackInfo
	}{
		{
			name:  "artist and title",
			input: "Pink Floyd - Money",
			want:  TrackInfo{Artist: "Pink Floyd", Title: "Money"},
		},
		{
			name:  "no separator",
			input: "SomeTitle",
			want:  TrackInfo{Artist: "SomeTitle", Title: UnknownTitle},
		},
		{
			name:  "extra separators are dropped",
			input: "A - B - C",
			want:  TrackInfo{Artist: "A", Title: "B"},
		},
		{
			name:  "surrounding whitespace",
			input: "  Artist  -  Title  ",
			want:  TrackInfo{Artist: "Artist", Title: "Title"},
		},
		{
			name:  "empty string",
			input: "",
			want:  TrackInfo{Artist: UnknownArtist, Title: UnknownTitle},
		},
		{
			name:  "blank string is one empty segment",
			input: "   ",
			want:  TrackInfo{Artist: "", Title: UnknownTitle},
		},
		{
			name:  "hyphen without spaces is not a separator",
			input: "Jay-Z - Empire State of Mind",
			want:  TrackInfo{Artist: "Jay-Z", Title: "Empire State of Mind"},
		},
		{
			name:  "unicode",
			input: "Lucio Dalla - Caruso è per sempre",
			want:  TrackInfo{Artist: "Lucio Dalla", Title: "Caruso è per sempre"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCurrentlyPlaying(tt.input))
		})
	}
}

func TestTrackInfoEquality(t *testing.T) {
	a := TrackInfo{Artist: "Artist", Title: "Song"}
	b := TrackInfo{Artist: "Artist", Title: "Song"}
	c := TrackInfo{Artist: "Different Artist", Title: "Song"}

	assert.Equal(t, a, b)
	assert.True(t, a == b)
	assert.False(t, a == c)
	assert.Equal(t, "Artist - Song", a.String())
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{
			name: "single source",
			body: testStatusBody,
			want: "Pink Floyd - Money",
		},
		{
			name: "source array uses first mount with the field",
			body: `{"icestats":{"source":[{"listen_url":"/fallback"},{"yp_currently_playing":"A - B"},{"yp_currently_playing":"C - D"}]}}`,
			want: "A - B",
		},
		{
			name: "empty currently playing",
			body: `{"icestats":{"source":{"yp_currently_playing":""}}}`,
			want: "",
		},
		{
			name:    "not json",
			body:    "<html>not json</html>",
			wantErr: true,
		},
		{
			name:    "missing icestats",
			body:    `{"status":"ok"}`,
			wantErr: true,
		},
		{
			name:    "missing source",
			body:    `{"icestats":{"admin":"x"}}`,
			wantErr: true,
		},
		{
			name:    "missing currently playing",
			body:    `{"icestats":{"source":{"listeners":3}}}`,
			wantErr: true,
		},
		{
			name:    "currently playing is not a string",
			body:    `{"icestats":{"source":{"yp_currently_playing":42}}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrStatusParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// manualTicker is a ticker driven by the test.
type manualTicker struct {
	c        chan time.Time
	interval time.Duration
}

func (m *manualTicker) C() <-chan time.Time { return m.c }
func (m *manualTicker) Stop()               {}

func newTestPoller(t *testing.T, url string) (*MetadataPoller, *manualTicker) {
	t.Helper()
	tk := &manualTicker{c: make(chan time.Time)}
	mp := NewMetadataPoller(url, "TeateOnAir/test", zerolog.Nop())
	mp.newTicker = func(d time.Duration) ticker {
		tk.interval = d
		return tk
	}
	return mp, tk
}

func waitUpdate(t *testing.T, updates <-chan TrackInfo) TrackInfo {
	t.Helper()
	select {
	case info := <-updates:
		return info
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for metadata update")
		return TrackInfo{}
	}
}

func assertNoUpdate(t *testing.T, updates <-chan TrackInfo) {
	t.Helper()
	select {
	case info := <-updates:
		t.Fatalf("unexpected update: %+v", info)
	case <-time.After(100 * time.Millisecond):
	}
}

func waitDone(t *testing.T, mp *MetadataPoller) {
	t.Helper()
	select {
	case <-mp.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poller goroutine did not exit")
	}
}

func TestFetch(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testStatusBody))
	}))
	defer server.Close()

	mp := NewMetadataPoller(server.URL, "TeateOnAir/test", zerolog.Nop())
	info, err := mp.fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, TrackInfo{Artist: "Pink Floyd", Title: "Money"}, info)
	assert.Equal(t, "TeateOnAir/test", gotUserAgent)
}

func TestFetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	mp := NewMetadataPoller(server.URL, "", zerolog.Nop())
	_, err := mp.fetch(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatusFetch)
	assert.Contains(t, err.Error(), "500")
}

func TestFetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	mp := NewMetadataPoller(url, "", zerolog.Nop())
	_, err := mp.fetch(context.Background())

	assert.ErrorIs(t, err, ErrStatusFetch)
}

func TestFetch_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	mp := NewMetadataPoller(server.URL, "", zerolog.Nop())
	_, err := mp.fetch(context.Background())

	assert.ErrorIs(t, err, ErrStatusParse)
	assert.NotErrorIs(t, err, ErrStatusFetch)
}

func TestMetadataPoller_Cadence(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(testStatusBody))
	}))
	defer server.Close()

	mp, tk := newTestPoller(t, server.URL)
	updates := make(chan TrackInfo, 4)
	mp.Start(func(info TrackInfo) { updates <- info })

	// One immediate fetch, nothing more until the ticker fires.
	assert.Equal(t, TrackInfo{Artist: "Pink Floyd", Title: "Money"}, waitUpdate(t, updates))
	assertNoUpdate(t, updates)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, MetadataPollInterval, tk.interval)
	assert.Equal(t, 10*time.Second, tk.interval)

	tk.c <- time.Now()
	waitUpdate(t, updates)
	assert.Equal(t, int32(2), hits.Load())

	tk.c <- time.Now()
	waitUpdate(t, updates)
	assert.Equal(t, int32(3), hits.Load())

	mp.Stop()
	waitDone(t, mp)

	// Once stopped, nobody reads the ticker any more.
	select {
	case tk.c <- time.Now():
		t.Fatal("poller consumed a tick after Stop")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestMetadataPoller_SkipsFailedCycles(t *testing.T) {
	bodies := []string{testStatusBody, "not json", `{"icestats":{"source":{}}}`, `{"icestats":{"source":{"yp_currently_playing":"A - B"}}}`}
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1)) - 1
		if n >= len(bodies) {
			n = len(bodies) - 1
		}
		_, _ = w.Write([]byte(bodies[n]))
	}))
	defer server.Close()

	mp, tk := newTestPoller(t, server.URL)
	defer mp.Stop()
	updates := make(chan TrackInfo, 4)
	mp.Start(func(info TrackInfo) { updates <- info })

	assert.Equal(t, "Money", waitUpdate(t, updates).Title)

	// Two broken documents: no updates, and the poller keeps going.
	tk.c <- time.Now()
	tk.c <- time.Now()
	assertNoUpdate(t, updates)

	tk.c <- time.Now()
	assert.Equal(t, TrackInfo{Artist: "A", Title: "B"}, waitUpdate(t, updates))
	assert.Equal(t, int32(4), hits.Load())
}

func TestMetadataPoller_DiscardsResponseAfterStop(t *testing.T) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(testStatusBody))
	}))
	defer server.Close()
	defer close(release)

	mp, _ := newTestPoller(t, server.URL)
	updates := make(chan TrackInfo, 1)
	mp.Start(func(info TrackInfo) { updates <- info })

	select {
	case <-arrived:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the server")
	}

	mp.Stop()
	waitDone(t, mp)
	assertNoUpdate(t, updates)
}

func TestMetadataPoller_StopBeforeStart(t *testing.T) {
	mp := NewMetadataPoller("http://example.com/status-json.xsl", "", zerolog.Nop())
	mp.Stop()
	mp.Stop()
	waitDone(t, mp)

	// A stopped poller never starts.
	called := false
	mp.Start(func(TrackInfo) { called = true })
	assert.False(t, called)
}

func TestMetadataPoller_StopIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testStatusBody))
	}))
	defer server.Close()

	mp, _ := newTestPoller(t, server.URL)
	updates := make(chan TrackInfo, 1)
	mp.Start(func(info TrackInfo) { updates <- info })
	waitUpdate(t, updates)

	mp.Stop()
	mp.Stop()
	waitDone(t, mp)
}

func BenchmarkParseCurrentlyPlaying(b *testing.B) {
	input := "Pink Floyd - Money - 2011 Remaster"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ParseCurrentlyPlaying(input)
	}
}
