package resp

import (
	"errors"
	"fmt"
	"io"
)

// ErrProtocol matches every framing error produced by this package.
// Once a framing error is returned the stream position is lost and the connection must be dropped
var ErrProtocol = errors.New("resp: protocol error")

// ProtocolError describes malformed input or an unencodable value
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string {
	return "resp protocol error: " + e.Msg
}

// Is makes every ProtocolError match ErrProtocol
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

var (
	ErrInvalidInteger = &ProtocolError{Msg: "invalid character in integer"}
	ErrInvalidEnding  = &ProtocolError{Msg: "invalid line ending"}
	ErrInvalidLength  = &ProtocolError{Msg: "invalid length"}
	ErrUnexpectedType = &ProtocolError{Msg: "unexpected character in stream"}
	ErrNotBulk        = &ProtocolError{Msg: "command element is not a bulk string"}
	ErrTooDeep        = &ProtocolError{Msg: "multi-bulk nesting too deep"}
	ErrTooLarge       = &ProtocolError{Msg: "length exceeds limit"}
	ErrInvalidText    = &ProtocolError{Msg: "line contains CR or LF"}
	ErrUnsupportedArg = &ProtocolError{Msg: "unsupported argument type"}
)

// shortRead reports a stream that ended in the middle of a frame
func shortRead(what string) error {
	return fmt.Errorf("resp: short read in %s: %w", what, io.ErrUnexpectedEOF)
}

// midFrame converts EOF seen after the first byte of a frame into a short read
func midFrame(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return shortRead(what)
	}
	return err
}
