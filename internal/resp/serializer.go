package resp

import (
	"bytes"
)

// SerializeCommand uses a standard Encoder to convert the command to bytes
func SerializeCommand(cmd Command) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	if err := enc.WriteCommand(cmd); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// SerializeReply converts a reply to its wire bytes, e.g. for a precomputed response
func SerializeReply(r Reply) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	if err := enc.WriteReply(r); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
