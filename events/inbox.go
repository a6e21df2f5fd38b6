package events

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/hypebeast/go-osc/osc"
	"github.com/pkg/errors"
)

const (
	// DefaultInboxSize bounds the number of inbound messages held between ticks.
	DefaultInboxSize = 256
	// maxDatagramSize is the largest UDP payload.
	maxDatagramSize = 65535
)

// Inbox queues inbound OSC messages until the pipeline drains them at the end
// of a tick. It implements osc.Dispatcher.
//
// Dispatch may be called from any goroutine; Drain is meant for the single
// processing goroutine.
type Inbox struct {
	messages    chan *osc.Message
	dropped     atomic.Uint64
	parseErrors atomic.Uint64
	logger      *slog.Logger

	mu   sync.Mutex
	conn net.PacketConn
	done chan struct{}
}

// NewInbox creates an inbox holding up to capacity messages. A non-positive
// capacity uses DefaultInboxSize; a nil logger uses slog.Default().
func NewInbox(capacity int, logger *slog.Logger) *Inbox {
	if capacity <= 0 {
		capacity = DefaultInboxSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{
		messages: make(chan *osc.Message, capacity),
		logger:   logger,
	}
}

// Dispatch queues a packet. Bundles are flattened in order. When the inbox is
// full the message is dropped and counted.
func (i *Inbox) Dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		i.enqueue(p)
	case *osc.Bundle:
		for _, m := range p.Messages {
			i.enqueue(m)
		}
		for _, b := range p.Bundles {
			i.Dispatch(b)
		}
	default:
		i.logger.Warn("ignoring unsupported OSC packet", "type", fmt.Sprintf("%T", packet))
	}
}

func (i *Inbox) enqueue(msg *osc.Message) {
	select {
	case i.messages <- msg:
	default:
		i.dropped.Add(1)
		i.logger.Warn("inbox full, dropping OSC message", "address", msg.Address)
	}
}

// Drain hands every queued message to fn without blocking and returns how
// many were handled. With nothing pending it is a no-op.
func (i *Inbox) Drain(fn func(*osc.Message)) int {
	n := 0
	for {
		select {
		case msg := <-i.messages:
			fn(msg)
			n++
		default:
			return n
		}
	}
}

// Pending returns the number of queued messages.
func (i *Inbox) Pending() int {
	return len(i.messages)
}

// Dropped returns the number of messages lost to a full inbox.
func (i *Inbox) Dropped() uint64 {
	return i.dropped.Load()
}

// Listen starts serving OSC over UDP on addr (e.g. ":3001") in the
// background. It returns once the socket is bound.
//
// Datagrams are parsed and dispatched on the reading goroutine, so commands
// are queued in arrival order. A datagram that fails to parse is logged and
// skipped; only closing the inbox ends the loop.
func (i *Inbox) Listen(addr string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.conn != nil {
		return errors.New("inbox is already listening")
	}
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen for OSC on %s", addr)
	}
	i.conn = conn
	i.done = make(chan struct{})

	go i.serve(conn, i.done)

	i.logger.Info("listening for OSC commands", "addr", conn.LocalAddr().String())
	return nil
}

func (i *Inbox) serve(conn net.PacketConn, done chan struct{}) {
	defer close(done)

	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			i.logger.Warn("failed to read OSC datagram", "error", err)
			continue
		}

		packet, err := osc.ParsePacket(string(buf[:n]))
		if err != nil {
			i.parseErrors.Add(1)
			i.logger.Warn("dropping malformed OSC datagram", "from", from.String(), "bytes", n, "error", err)
			continue
		}
		if packet == nil {
			continue
		}
		i.Dispatch(packet)
	}
}

// ParseErrors returns the number of datagrams that could not be parsed.
func (i *Inbox) ParseErrors() uint64 {
	return i.parseErrors.Load()
}

// Addr returns the bound address, or nil when not listening.
func (i *Inbox) Addr() net.Addr {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.conn == nil {
		return nil
	}
	return i.conn.LocalAddr()
}

// Close stops the listener, if any. Queued messages stay drainable.
func (i *Inbox) Close() error {
	i.mu.Lock()
	conn, done := i.conn, i.done
	i.conn, i.done = nil, nil
	i.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	<-done
	return err
}
