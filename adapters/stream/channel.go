package stream

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"dockwatch/adapters/backend"
	"dockwatch/domain/core"
	"dockwatch/domain/docking"
	"dockwatch/internal"
	"dockwatch/ports"
)

// updateBuffer bounds the inbound queue. When a consumer falls behind,
// older fragments are dropped in favor of newer ones; the backend remains
// the source of truth, so a later poll reconciles anything missed.
const updateBuffer = 16

// Dialer opens live status channels against the backend's websocket endpoint.
type Dialer struct {
	baseURL string
	log     *internal.Logger
}

var _ ports.StreamDialer = (*Dialer)(nil)

// NewDialer builds a dialer rooted at the ws:// or wss:// base URL.
func NewDialer(baseURL string, log *internal.Logger) *Dialer {
	return &Dialer{baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// Dial opens one channel for one job. Callers open channels only for jobs
// in a non-terminal state and must Close when the job finishes.
func (d *Dialer) Dial(jobID core.JobID) (ports.StatusStream, error) {
	if jobID == "" {
		return nil, core.NewValidationError("job_id", "cannot be empty")
	}
	url := fmt.Sprintf("%s/ws/status/%s", d.baseURL, jobID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("open status channel for job %s: %w", jobID, err)
	}
	ch := &Channel{
		jobID:   jobID,
		conn:    conn,
		updates: make(chan docking.JobRecord, updateBuffer),
		done:    make(chan struct{}),
		log:     d.log,
	}
	go ch.readLoop()
	return ch, nil
}

// Channel is a live status stream for a single job. The client never sends
// application messages; it only reads JobRecord fragments.
type Channel struct {
	jobID     core.JobID
	conn      *websocket.Conn
	updates   chan docking.JobRecord
	done      chan struct{}
	closeOnce sync.Once
	log       *internal.Logger
}

var _ ports.StatusStream = (*Channel)(nil)

// JobID returns the job this channel was opened for.
func (c *Channel) JobID() core.JobID { return c.jobID }

// Updates returns the typed inbound message stream. The channel is closed
// when the connection ends or Close is called.
func (c *Channel) Updates() <-chan docking.JobRecord { return c.updates }

// Close tears down the connection and ends the update stream. Idempotent.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
	return nil
}

func (c *Channel) readLoop() {
	defer close(c.updates)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				// Closed by the owner; nothing to report.
			default:
				c.log.Debug("status channel for job %s ended: %v", c.jobID, err)
			}
			return
		}

		job, err := backend.JobFromJSON(data)
		if err != nil {
			// Malformed fragments are dropped without closing the channel.
			c.log.Warn("dropping malformed status fragment for job %s: %v", c.jobID, err)
			continue
		}
		// A fragment only ever updates this channel's own job, regardless
		// of what ID the frame claims.
		job.ID = c.jobID

		select {
		case c.updates <- job:
		case <-c.done:
			return
		default:
			c.log.Debug("status queue full for job %s; dropping fragment", c.jobID)
		}
	}
}
