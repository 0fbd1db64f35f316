package client

import (
	"bufio"
	"context"
	"errors"
	"net"

	"github.com/pomd-project/pomd/internal/liveness"
	"github.com/pomd-project/pomd/internal/protocol"
	"github.com/pomd-project/pomd/pkg/errclass"
)

// Request dials the daemon, sends one command and returns its response.
// It is independent of the subscription machinery; ctx bounds the whole
// round trip. A daemon that cannot be reached yields E_UNREACHABLE, one
// that accepts but never answers within the deadline yields E_TIMEOUT.
func Request(ctx context.Context, socketPath string, cmd protocol.Command) (*protocol.Response, error) {
	line, err := protocol.EncodeLine(cmd)
	if err != nil {
		return nil, err
	}

	conn, err := liveness.Dial(ctx, socketPath)
	if err != nil {
		return nil, errclass.ErrUnreachable.WithMessagef("dial %s: %v", socketPath, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write(line); err != nil {
		return nil, errclass.ErrUnreachable.WithMessagef("send %s: %v", cmd.Name, err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), receiveBufMax)
	for scanner.Scan() {
		msg, err := protocol.DecodeServerMessage(scanner.Bytes())
		if err != nil {
			continue
		}
		if msg.Response != nil {
			return msg.Response, nil
		}
	}
	if err := scanner.Err(); err != nil {
		if isTimeout(err) {
			return nil, errclass.ErrTimeout.WithMessagef("awaiting response to %s: %v", cmd.Name, err)
		}
		return nil, errclass.ErrUnreachable.WithMessagef("read response: %v", err)
	}
	return nil, errclass.ErrUnreachable.WithMessagef("connection closed before response to %s", cmd.Name)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
