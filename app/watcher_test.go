package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"dockwatch/domain/core"
	"dockwatch/domain/docking"
	"dockwatch/internal"
	"dockwatch/ports"
)

type fakeStream struct {
	jobID   core.JobID
	updates chan docking.JobRecord
	closed  int32
}

func (s *fakeStream) JobID() core.JobID                 { return s.jobID }
func (s *fakeStream) Updates() <-chan docking.JobRecord { return s.updates }

func (s *fakeStream) Close() error {
	if atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		close(s.updates)
	}
	return nil
}

type fakeDialer struct {
	dials   int32
	streams map[core.JobID]*fakeStream
}

func (d *fakeDialer) Dial(jobID core.JobID) (ports.StatusStream, error) {
	atomic.AddInt32(&d.dials, 1)
	s := &fakeStream{jobID: jobID, updates: make(chan docking.JobRecord, 4)}
	d.streams[jobID] = s
	return s, nil
}

func TestWatcher_MergesUpdatesAndClosesOnTerminal(t *testing.T) {
	log := internal.NewLogger(internal.LogLevelError)
	store := NewJobStore(nil, log)
	store.Track(context.Background(), runningJob("j1"))

	dialer := &fakeDialer{streams: make(map[core.JobID]*fakeStream)}
	w := NewWatcher(dialer, store, log)
	w.Watch("j1")

	stream := dialer.streams["j1"]
	stream.updates <- docking.JobRecord{ID: "j1", Status: docking.StatusDocking}
	stream.updates <- docking.JobRecord{ID: "j1", Status: docking.StatusCompleted}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&stream.closed) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Channel was not closed after the job went terminal")
		}
		time.Sleep(5 * time.Millisecond)
	}

	job, _ := store.Snapshot("j1")
	if job.Status != docking.StatusCompleted {
		t.Errorf("Updates were not merged, status is %s", job.Status)
	}
	w.Stop()
}

func TestWatcher_DoesNotDoubleWatch(t *testing.T) {
	log := internal.NewLogger(internal.LogLevelError)
	store := NewJobStore(nil, log)
	store.Track(context.Background(), runningJob("j1"))

	dialer := &fakeDialer{streams: make(map[core.JobID]*fakeStream)}
	w := NewWatcher(dialer, store, log)
	defer w.Stop()

	w.Watch("j1")
	w.Watch("j1")
	if atomic.LoadInt32(&dialer.dials) != 1 {
		t.Errorf("Expected one channel per job, got %d dials", dialer.dials)
	}

	// Terminal jobs never get a channel.
	done := runningJob("j2")
	done.Status = docking.StatusFailed
	store.Track(context.Background(), done)
	w.Watch("j2")
	if atomic.LoadInt32(&dialer.dials) != 1 {
		t.Error("A terminal job must not be watched")
	}
}

func TestWatcher_NilDialerIsNoOp(t *testing.T) {
	log := internal.NewLogger(internal.LogLevelError)
	store := NewJobStore(nil, log)
	w := NewWatcher(nil, store, log)
	w.Watch("j1") // must not panic
	w.Stop()
}
