package resp

import (
	"bufio"
	"encoding"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Encoder handles the serialization of replies and commands into an output stream.
// Nothing reaches the underlying writer until Flush or a full buffer.
// It is not safe for concurrent use
type Encoder struct {
	writer *bufio.Writer
}

// NewEncoder initializes an Encoder with a buffered writer
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		writer: bufio.NewWriter(w)}
}

// WriteReply serializes a reply. The reply is validated first, so an invalid
// value never leaves a partial frame in the buffer
func (e *Encoder) WriteReply(r Reply) error {
	if err := validate(r); err != nil {
		return err
	}
	return e.writeReply(r)
}

func (e *Encoder) writeReply(r Reply) error {
	switch v := r.(type) {
	case StatusReply:
		return e.writeLine(TypeStatus, v.Text)

	case ErrorReply:
		return e.writeLine(TypeError, v.Text)

	case IntegerReply:
		return writeHeader(e.writer, TypeInteger, v.Value)

	case BulkReply:
		if v.IsNull {
			_, err := e.writer.WriteString("$-1\r\n")
			return err
		}
		return writeBulk(e.writer, v.Data)

	case MultiBulkReply:
		if v.IsNull {
			_, err := e.writer.WriteString("*-1\r\n")
			return err
		}
		if err := writeHeader(e.writer, TypeMultiBulk, int64(len(v.Replies))); err != nil {
			return err
		}
		for _, el := range v.Replies {
			if err := e.writeReply(el); err != nil {
				return err
			}
		}
		return nil
	}

	return fmt.Errorf("%w: %T", ErrUnsupportedArg, r)
}

// WriteCommand serializes a command as a multi-bulk of bulks.
// A nil argument is sent as an empty bulk
func (e *Encoder) WriteCommand(c Command) error {
	return e.writeArgs(c.Args)
}

// WriteArgs serializes loosely typed values as a command. Supported are strings,
// byte slices, integers, floats, bools, nil, fmt.Stringer and encoding.BinaryMarshaler
func (e *Encoder) WriteArgs(args ...any) error {
	raw := make([][]byte, len(args))
	for i, a := range args {
		b, err := argBytes(a)
		if err != nil {
			return err
		}
		raw[i] = b
	}
	return e.writeArgs(raw)
}

func (e *Encoder) writeArgs(args [][]byte) error {
	if err := writeHeader(e.writer, TypeMultiBulk, int64(len(args))); err != nil {
		return err
	}
	for _, a := range args {
		if err := writeBulk(e.writer, a); err != nil {
			return err
		}
	}
	return nil
}

// WriteRaw writes already framed bytes untouched
func (e *Encoder) WriteRaw(b []byte) error {
	_, err := e.writer.Write(b)
	return err
}

// Flush sends all buffered data to the underlying writer
func (e *Encoder) Flush() error {
	return e.writer.Flush()
}

// writeLine writes the type prefix, the text, and CRLF (for Status and Error)
func (e *Encoder) writeLine(prefix byte, s string) error {
	if err := e.writer.WriteByte(prefix); err != nil {
		return err
	}
	if _, err := e.writer.WriteString(s); err != nil {
		return err
	}
	_, err := e.writer.WriteString("\r\n")
	return err
}

// validate checks the whole reply tree before anything is written
func validate(r Reply) error {
	switch v := r.(type) {
	case StatusReply:
		return validateText(v.Text)
	case ErrorReply:
		return validateText(v.Text)
	case IntegerReply, BulkReply:
		return nil
	case MultiBulkReply:
		for _, el := range v.Replies {
			if err := validate(el); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %T", ErrUnsupportedArg, r)
}

func validateText(s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidText, s)
	}
	return nil
}

// argBytes converts a loosely typed command argument to its wire bytes
func argBytes(v any) ([]byte, error) {
	switch v := v.(type) {
	case nil:
		return []byte{}, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case int:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int8:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int16:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int32:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int64:
		return strconv.AppendInt(nil, v, 10), nil
	case uint:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint8:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint16:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint32:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint64:
		return strconv.AppendUint(nil, v, 10), nil
	case float32:
		return strconv.AppendFloat(nil, float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.AppendFloat(nil, v, 'f', -1, 64), nil
	case bool:
		if v {
			return []byte("1"), nil
		}
		return []byte("0"), nil
	case encoding.BinaryMarshaler:
		return v.MarshalBinary()
	case fmt.Stringer:
		return []byte(v.String()), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedArg, v)
}
