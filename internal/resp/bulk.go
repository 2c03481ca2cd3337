package resp

import (
	"bufio"
	"bytes"
	"io"
)

// bulks up to this size are read into a buffer allocated up front,
// larger ones grow as bytes arrive so a bogus length cannot force a huge allocation
const preallocLimit = 64 * 1024

// readBulk reads the body of a bulk after its '$' marker.
// A length of -1 is the null bulk; any other negative length is a framing error
func readBulk(r *bufio.Reader, maxLen int64) (BulkReply, error) {
	n, err := readInteger(r)
	if err != nil {
		return BulkReply{}, err
	}

	if n < 0 {
		if n == -1 {
			return BulkReply{IsNull: true}, nil
		}
		return BulkReply{}, ErrInvalidLength
	}
	if maxLen > 0 && n > maxLen {
		return BulkReply{}, ErrTooLarge
	}

	var data []byte
	if n <= preallocLimit {
		data = make([]byte, n)
		if _, err := io.ReadFull(r, data); err != nil {
			return BulkReply{}, midFrame(err, "bulk payload")
		}
	} else {
		var buf bytes.Buffer
		buf.Grow(preallocLimit)
		if _, err := io.CopyN(&buf, r, n); err != nil {
			return BulkReply{}, midFrame(err, "bulk payload")
		}
		data = buf.Bytes()
	}

	if err := readCRLF(r); err != nil {
		return BulkReply{}, err
	}

	return BulkReply{Data: data}, nil
}

// readCRLF consumes exactly two bytes and requires them to be CR LF
func readCRLF(r *bufio.Reader) error {
	cr, err := r.ReadByte()
	if err != nil {
		return midFrame(err, "line ending")
	}
	lf, err := r.ReadByte()
	if err != nil {
		return midFrame(err, "line ending")
	}
	if cr != '\r' || lf != '\n' {
		return ErrInvalidEnding
	}
	return nil
}

// writeBulk writes $<len>\r\n<data>\r\n
func writeBulk(w *bufio.Writer, data []byte) error {
	if err := writeHeader(w, TypeBulk, int64(len(data))); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}
