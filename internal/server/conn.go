package server

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/pomd-project/pomd/internal/protocol"
	"github.com/pomd-project/pomd/pkg/errclass"
	"github.com/pomd-project/pomd/pkg/metrics"
)

const (
	// outQueueSize bounds the per-connection outbound queue. A subscriber
	// that falls this far behind gets reset instead of stalling the daemon.
	outQueueSize = 64
	// maxLineBytes caps a single command line. Anything longer is not a
	// command this protocol defines.
	maxLineBytes = 256 * 1024

	writeTimeout = 5 * time.Second
)

// connection is one accepted client. The mutator goroutine queues lines
// into out; the write goroutine drains them in order. The subscribed flag
// is owned by the mutator and never touched elsewhere.
type connection struct {
	id         int64
	conn       net.Conn
	out        chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	subscribed bool
}

func newConnection(id int64, conn net.Conn) *connection {
	return &connection{
		id:   id,
		conn: conn,
		out:  make(chan []byte, outQueueSize),
		done: make(chan struct{}),
	}
}

// send queues one line without blocking. False means the queue is full;
// the caller resets the connection rather than stall the mutator.
func (c *connection) send(line []byte) bool {
	select {
	case c.out <- line:
		return true
	default:
		return false
	}
}

// stop lets the writer flush already-queued lines, then close the socket.
func (c *connection) stop() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// abort tears the connection down now, unblocking a writer stuck on a
// full socket buffer. Queued lines are discarded.
func (c *connection) abort() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.SetWriteDeadline(time.Now())
	})
}

func (c *connection) write(line []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := c.conn.Write(line)
	return err == nil
}

// writeLoop owns the socket's write side and its final Close. Closing the
// socket is also what unblocks the read loop.
func (c *connection) writeLoop() {
	defer c.conn.Close()
	for {
		select {
		case line := <-c.out:
			if !c.write(line) {
				return
			}
		case <-c.done:
			for {
				select {
				case line := <-c.out:
					if !c.write(line) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// readLoop scans newline-delimited commands and forwards them to the
// mutator. Unparseable lines are dropped without a reply; a well-formed
// line with an unknown command or bad payload still travels to the
// mutator so the sender gets its {ok:false} in order.
func (c *connection) readLoop(ctx context.Context, s *Server) {
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for scanner.Scan() {
		cmd, err := protocol.DecodeCommand(scanner.Bytes())
		if err != nil && errclass.Is(err, errclass.ErrProtoMalformed) {
			s.reg.Inc(metrics.LinesDropped)
			s.log.Debug("dropping malformed line", map[string]any{"conn": c.id, "error": err.Error()})
			continue
		}
		select {
		case s.commandCh <- request{conn: c, cmd: cmd, err: err}:
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
	c.stop()
	select {
	case s.removeCh <- c:
	case <-ctx.Done():
	}
}
