package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"dockwatch/domain/docking"
	"dockwatch/internal"
)

var upgrader = websocket.Upgrader{}

// statusServer upgrades /ws/status/{id} connections and pushes the given
// frames, then keeps the connection open until the client closes it.
func statusServer(t *testing.T, frames [][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/ws/status/") {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func receive(t *testing.T, ch <-chan docking.JobRecord) docking.JobRecord {
	t.Helper()
	select {
	case job, ok := <-ch:
		if !ok {
			t.Fatal("Update stream closed unexpectedly")
		}
		return job
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for a status update")
	}
	return docking.JobRecord{}
}

func TestChannel_DeliversTypedUpdates(t *testing.T) {
	srv := statusServer(t, [][]byte{
		[]byte(`{"id":"job-1","status":"running","progress":0.25}`),
		[]byte(`{"id":"job-1","status":"docking","progress":0.6}`),
	})
	dialer := NewDialer(wsURL(srv), internal.NewLogger(internal.LogLevelError))

	ch, err := dialer.Dial("job-1")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer ch.Close()

	first := receive(t, ch.Updates())
	if first.Status != docking.StatusRunning {
		t.Errorf("Expected running, got %s", first.Status)
	}
	if first.Progress == nil || *first.Progress != 0.25 {
		t.Errorf("Progress not mapped: %v", first.Progress)
	}
	second := receive(t, ch.Updates())
	if second.Status != docking.StatusDocking {
		t.Errorf("Expected docking, got %s", second.Status)
	}
}

func TestChannel_MalformedFramesAreDropped(t *testing.T) {
	srv := statusServer(t, [][]byte{
		[]byte(`this is not json`),
		[]byte(`{"id":"job-1"}`), // no status
		[]byte(`{"id":"job-1","status":"analyzing"}`),
	})
	dialer := NewDialer(wsURL(srv), internal.NewLogger(internal.LogLevelError))

	ch, err := dialer.Dial("job-1")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer ch.Close()

	// Only the valid frame comes through; the channel survived the bad ones.
	job := receive(t, ch.Updates())
	if job.Status != docking.StatusAnalyzing {
		t.Errorf("Expected the valid frame, got status %s", job.Status)
	}
}

func TestChannel_StampsOwnJobID(t *testing.T) {
	srv := statusServer(t, [][]byte{
		[]byte(`{"id":"some-other-job","status":"running"}`),
	})
	dialer := NewDialer(wsURL(srv), internal.NewLogger(internal.LogLevelError))

	ch, err := dialer.Dial("job-7")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer ch.Close()

	job := receive(t, ch.Updates())
	if job.ID != "job-7" {
		t.Errorf("Fragment must be stamped with the channel's job, got %s", job.ID)
	}
}

func TestChannel_CloseIsIdempotent(t *testing.T) {
	srv := statusServer(t, nil)
	dialer := NewDialer(wsURL(srv), internal.NewLogger(internal.LogLevelError))

	ch, err := dialer.Dial("job-1")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}

	// The update stream drains and closes.
	select {
	case _, ok := <-ch.Updates():
		if ok {
			t.Error("Expected no more updates after close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Update stream did not close")
	}
}

func TestDialer_RejectsEmptyJobID(t *testing.T) {
	dialer := NewDialer("ws://localhost:0", internal.NewLogger(internal.LogLevelError))
	if _, err := dialer.Dial(""); err == nil {
		t.Fatal("Expected an error for an empty job id")
	}
}
