package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homereel/internal/events"
	"homereel/internal/scheduler"
)

type fakeSnapshotter struct {
	snap scheduler.Snapshot
}

func (f *fakeSnapshotter) Snapshot() scheduler.Snapshot {
	return f.snap
}

func newTestServer(snap scheduler.Snapshot) *Server {
	return NewServer(zerolog.Nop(), "127.0.0.1:0", &fakeSnapshotter{snap: snap})
}

func getStatus(t *testing.T, srv *Server) statusResponse {
	t.Helper()

	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestStatusIdle(t *testing.T) {
	srv := newTestServer(scheduler.Snapshot{
		State:      scheduler.Idle,
		MinSeconds: 60,
		MaxSeconds: 120,
		Loop:       true,
	})

	body := getStatus(t, srv)

	assert.Equal(t, "idle", body.State)
	assert.Nil(t, body.NowPlaying)
	assert.Equal(t, 60, body.MinSeconds)
	assert.Equal(t, 120, body.MaxSeconds)
	assert.True(t, body.Loop)
	assert.Empty(t, body.LastError)
}

func TestStatusPlayingSegment(t *testing.T) {
	srv := newTestServer(scheduler.Snapshot{
		State: scheduler.Playing,
		NowPlaying: &scheduler.SegmentInfo{
			Path:          "/videos/summer.mp4",
			Start:         45 * time.Second,
			Duration:      90 * time.Second,
			PlaylistIndex: 2,
			PlaylistTotal: 7,
		},
		QueueIndex: 2,
		QueueTotal: 7,
		MinSeconds: 60,
		MaxSeconds: 120,
		Loop:       true,
	})

	body := getStatus(t, srv)

	assert.Equal(t, "playing", body.State)
	require.NotNil(t, body.NowPlaying)
	assert.Equal(t, "/videos/summer.mp4", body.NowPlaying.File)
	assert.Equal(t, int64(45000), body.NowPlaying.StartMs)
	assert.Equal(t, int64(90000), body.NowPlaying.DurationMs)
	assert.Equal(t, 2, body.NowPlaying.PlaylistIndex)
	assert.Equal(t, 7, body.NowPlaying.PlaylistTotal)
	assert.Equal(t, 2, body.QueueIndex)
	assert.Equal(t, 7, body.QueueTotal)
}

func TestStatusReportsLastError(t *testing.T) {
	srv := newTestServer(scheduler.Snapshot{State: scheduler.Playing})

	bus := events.NewBus()
	sub := bus.Subscribe(events.TypePlaybackError)
	done := make(chan struct{})
	go func() {
		srv.Watch(sub)
		close(done)
	}()

	bus.Publish(events.TypePlaybackError, "vlc cannot play /videos/broken.avi")
	bus.Unsubscribe(events.TypePlaybackError, sub)
	<-done

	body := getStatus(t, srv)
	assert.Equal(t, "vlc cannot play /videos/broken.avi", body.LastError)
	assert.NotEmpty(t, body.LastErrorAt)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(scheduler.Snapshot{State: scheduler.Idle})

	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
