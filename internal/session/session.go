// Package session runs the RESP codec over one duplex connection.
//
// The read side and the write side are guarded by separate locks: one goroutine
// may decode an incoming frame while another encodes an outgoing one, but two
// readers (or two writers) never interleave their frames. Blocking reads are
// bounded only by the transport; use connection deadlines for timeouts.
package session

import (
	"io"
	"sync"

	"github.com/eternalApril/moonwire/internal/resp"
)

// Session wraps a connection and provides synchronized methods for reading and writing RESP frames
type Session struct {
	rw      io.ReadWriter
	reader  *resp.Decoder
	writer  *resp.Encoder
	readMu  sync.Mutex
	writeMu sync.Mutex
}

// New initializes a session over rw. Options tune the decoder limits
func New(rw io.ReadWriter, opts ...resp.Option) *Session {
	return &Session{
		rw:     rw,
		reader: resp.NewDecoder(rw, opts...),
		writer: resp.NewEncoder(rw),
	}
}

// Send writes the command and waits for its reply.
// The read lock is taken before the write lock is released, so concurrent
// Send calls receive replies in the order their commands were written.
// Do not mix with SendAsync from other goroutines: their replies would be read here
func (s *Session) Send(cmd resp.Command) (resp.Reply, error) {
	s.writeMu.Lock()
	if err := s.flushed(func() error { return s.writer.WriteCommand(cmd) }); err != nil {
		s.writeMu.Unlock()
		return nil, err
	}
	s.readMu.Lock()
	s.writeMu.Unlock()

	defer s.readMu.Unlock()
	return s.reader.ReadReply()
}

// SendAsync writes the command without waiting for the reply.
// Replies must be collected with ReceiveAsync in the order commands were sent
func (s *Session) SendAsync(cmd resp.Command) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.flushed(func() error { return s.writer.WriteCommand(cmd) })
}

// SendArgs writes loosely typed values as one command, see resp.Encoder.WriteArgs
func (s *Session) SendArgs(args ...any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.flushed(func() error { return s.writer.WriteArgs(args...) })
}

// ReceiveAsync reads the next reply
func (s *Session) ReceiveAsync() (resp.Reply, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()
	return s.reader.ReadReply()
}

// Receive reads the next command sent by the peer
func (s *Session) Receive() (resp.Command, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()
	return s.reader.ReadCommand()
}

// SendReply writes one reply and flushes it
func (s *Session) SendReply(r resp.Reply) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.flushed(func() error { return s.writer.WriteReply(r) })
}

// SendReplyBuffered writes one reply without flushing.
// Used to batch replies to pipelined commands; call Flush once the batch is done
func (s *Session) SendReplyBuffered(r resp.Reply) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.writer.WriteReply(r)
}

// Write sends already framed bytes as they are
func (s *Session) Write(b []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.flushed(func() error { return s.writer.WriteRaw(b) })
}

// Flush sends all buffered data to the peer
func (s *Session) Flush() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.writer.Flush()
}

// InputBuffered returns the number of bytes that can be read without touching the connection
func (s *Session) InputBuffered() int {
	s.readMu.Lock()
	defer s.readMu.Unlock()
	return s.reader.Buffered()
}

// Close closes the underlying connection if it is an io.Closer
func (s *Session) Close() error {
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// flushed runs write and flushes the encoder. Caller holds writeMu
func (s *Session) flushed(write func() error) error {
	if err := write(); err != nil {
		return err
	}
	return s.writer.Flush()
}
