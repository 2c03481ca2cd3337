package resp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

const (
	// DefaultMaxDepth bounds multi-bulk nesting
	DefaultMaxDepth = 32
	// DefaultMaxBulkLength matches the proto-max-bulk-len default of redis
	DefaultMaxBulkLength = 512 * 1024 * 1024
	// DefaultMaxMultiBulkLength bounds the element count of a single multi-bulk
	DefaultMaxMultiBulkLength = 1024 * 1024
	// DefaultMaxLineLength bounds Status, Error and Integer lines, same as the inline limit of redis
	DefaultMaxLineLength = 64 * 1024
)

// elements reserved up front for a multi-bulk, the rest grow while reading
const preallocElements = 1024

type limits struct {
	maxDepth           int
	maxBulkLength      int64
	maxMultiBulkLength int64
	maxLineLength      int
}

// Option tunes the limits a Decoder enforces
type Option func(*limits)

// WithMaxDepth sets the deepest multi-bulk nesting accepted. Values below 1 keep the default
func WithMaxDepth(n int) Option {
	return func(l *limits) {
		if n > 0 {
			l.maxDepth = n
		}
	}
}

// WithMaxBulkLength sets the largest bulk payload accepted. 0 disables the check
func WithMaxBulkLength(n int64) Option {
	return func(l *limits) {
		l.maxBulkLength = n
	}
}

// WithMaxMultiBulkLength sets the largest multi-bulk element count accepted. 0 disables the check
func WithMaxMultiBulkLength(n int64) Option {
	return func(l *limits) {
		l.maxMultiBulkLength = n
	}
}

// WithMaxLineLength sets the longest Status, Error or Integer line accepted,
// terminator excluded. 0 disables the check
func WithMaxLineLength(n int) Option {
	return func(l *limits) {
		l.maxLineLength = n
	}
}

// Decoder reads RESP frames from a buffered stream.
// It is not safe for concurrent use
type Decoder struct {
	rd     *bufio.Reader
	limits limits
}

// NewDecoder wraps rd in a buffered reader
func NewDecoder(rd io.Reader, opts ...Option) *Decoder {
	l := limits{
		maxDepth:           DefaultMaxDepth,
		maxBulkLength:      DefaultMaxBulkLength,
		maxMultiBulkLength: DefaultMaxMultiBulkLength,
		maxLineLength:      DefaultMaxLineLength,
	}
	for _, opt := range opts {
		opt(&l)
	}

	return &Decoder{rd: bufio.NewReader(rd), limits: l}
}

// Buffered returns the number of bytes that can be read from the current buffer
func (d *Decoder) Buffered() int {
	return d.rd.Buffered()
}

// ReadReply reads one complete reply.
// io.EOF is returned unwrapped only when the stream ends before the first byte of a frame
func (d *Decoder) ReadReply() (Reply, error) {
	return d.readReply(0)
}

func (d *Decoder) readReply(depth int) (Reply, error) {
	marker, err := d.rd.ReadByte()
	if err != nil {
		if depth > 0 {
			return nil, midFrame(err, "multi-bulk element")
		}
		return nil, err
	}

	switch marker {
	case TypeStatus:
		line, err := d.readLine()
		if err != nil {
			return nil, err
		}
		return StatusReply{Text: string(line)}, nil

	case TypeError:
		line, err := d.readLine()
		if err != nil {
			return nil, err
		}
		return ErrorReply{Text: string(line)}, nil

	case TypeInteger:
		line, err := d.readLine()
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(string(line), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidInteger, line)
		}
		return IntegerReply{Value: n}, nil

	case TypeBulk:
		return readBulk(d.rd, d.limits.maxBulkLength)

	case TypeMultiBulk:
		return d.readMultiBulk(depth)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnexpectedType, marker)
}

// readMultiBulk reads the count and the nested replies after a '*' marker
func (d *Decoder) readMultiBulk(depth int) (Reply, error) {
	if depth >= d.limits.maxDepth {
		return nil, ErrTooDeep
	}

	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	if count == -1 {
		return MultiBulkReply{IsNull: true}, nil
	}

	replies := make([]Reply, 0, min(count, preallocElements))
	for i := int64(0); i < count; i++ {
		r, err := d.readReply(depth + 1)
		if err != nil {
			return nil, err
		}
		replies = append(replies, r)
	}

	return MultiBulkReply{Replies: replies}, nil
}

// ReadCommand reads one command: a multi-bulk whose elements are all non-null bulks
func (d *Decoder) ReadCommand() (Command, error) {
	marker, err := d.rd.ReadByte()
	if err != nil {
		return Command{}, err
	}
	if marker != TypeMultiBulk {
		return Command{}, fmt.Errorf("%w: %q", ErrUnexpectedType, marker)
	}

	count, err := d.readCount()
	if err != nil {
		return Command{}, err
	}
	if count < 0 {
		return Command{}, ErrInvalidLength
	}

	args := make([][]byte, 0, min(count, preallocElements))
	for i := int64(0); i < count; i++ {
		m, err := d.rd.ReadByte()
		if err != nil {
			return Command{}, midFrame(err, "command")
		}
		if m != TypeBulk {
			return Command{}, fmt.Errorf("%w: got %q", ErrNotBulk, m)
		}

		b, err := readBulk(d.rd, d.limits.maxBulkLength)
		if err != nil {
			return Command{}, err
		}
		if b.IsNull {
			return Command{}, fmt.Errorf("%w: null element", ErrNotBulk)
		}
		args = append(args, b.Data)
	}

	return Command{Args: args}, nil
}

// readCount reads a multi-bulk element count. -1 is passed through as the null marker
func (d *Decoder) readCount() (int64, error) {
	count, err := readInteger(d.rd)
	if err != nil {
		return 0, err
	}
	if count < -1 {
		return 0, ErrInvalidLength
	}
	if d.limits.maxMultiBulkLength > 0 && count > d.limits.maxMultiBulkLength {
		return 0, ErrTooLarge
	}
	return count, nil
}

// readLine reads a Status, Error or Integer body up to CRLF and strips the terminator.
// The line is collected one buffer at a time so an endless line fails at the limit
func (d *Decoder) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := d.rd.ReadSlice('\n')
		line = append(line, chunk...)

		// +2 leaves room for the CRLF
		if limit := d.limits.maxLineLength; limit > 0 && len(line) > limit+2 {
			return nil, ErrTooLarge
		}

		if err == nil {
			break
		}
		if err != bufio.ErrBufferFull {
			return nil, midFrame(err, "line")
		}
	}

	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, ErrInvalidEnding
	}
	line = line[:len(line)-2]
	if bytes.IndexByte(line, '\r') >= 0 {
		return nil, ErrInvalidText
	}

	return line, nil
}
