package app

import (
	"context"
	"sync"

	"dockwatch/domain/core"
	"dockwatch/internal"
	"dockwatch/ports"
)

// Watcher keeps live status channels open for jobs in flight. Each watched
// job gets one channel and one goroutine; fragments flow into the store
// through Merge, so polls and pushes reconcile under the same rule. The
// channel closes as soon as the job goes terminal.
type Watcher struct {
	dialer ports.StreamDialer
	store  *JobStore
	log    *internal.Logger

	mu      sync.Mutex
	active  map[core.JobID]ports.StatusStream
	wg      sync.WaitGroup
	stopped bool
}

// NewWatcher builds a watcher. dialer may be nil when no websocket endpoint
// is configured; Watch then becomes a no-op and polling carries the load.
func NewWatcher(dialer ports.StreamDialer, store *JobStore, log *internal.Logger) *Watcher {
	return &Watcher{
		dialer: dialer,
		store:  store,
		log:    log,
		active: make(map[core.JobID]ports.StatusStream),
	}
}

// Watch opens a status channel for the job unless one is already open or the
// job is already terminal.
func (w *Watcher) Watch(jobID core.JobID) {
	if w.dialer == nil {
		return
	}
	if job, ok := w.store.Snapshot(jobID); ok && job.Status.Terminal() {
		return
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	if _, open := w.active[jobID]; open {
		w.mu.Unlock()
		return
	}
	stream, err := w.dialer.Dial(jobID)
	if err != nil {
		w.mu.Unlock()
		w.log.Warn("status channel for job %s unavailable, relying on polls: %v", jobID, err)
		return
	}
	w.active[jobID] = stream
	w.wg.Add(1)
	w.mu.Unlock()

	go w.consume(stream)
}

func (w *Watcher) consume(stream ports.StatusStream) {
	defer w.wg.Done()
	defer w.release(stream.JobID())
	defer stream.Close()

	for update := range stream.Updates() {
		merged, _ := w.store.Merge(context.Background(), update)
		if merged.Status.Terminal() {
			w.log.Info("job %s reached %s; closing status channel", merged.ID, merged.Status)
			return
		}
	}
}

func (w *Watcher) release(jobID core.JobID) {
	w.mu.Lock()
	delete(w.active, jobID)
	w.mu.Unlock()
}

// Stop closes every open channel and waits for the consumers to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	w.stopped = true
	streams := make([]ports.StatusStream, 0, len(w.active))
	for _, s := range w.active {
		streams = append(streams, s)
	}
	w.mu.Unlock()

	for _, s := range streams {
		s.Close()
	}
	w.wg.Wait()
}
