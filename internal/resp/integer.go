package resp

import (
	"bufio"
	"math"
	"strconv"
)

// readInteger reads a signed decimal terminated by CRLF, as used by length prefixes.
// A single leading '-' is allowed, at least one digit is required and values outside int64 are rejected
func readInteger(r *bufio.Reader) (int64, error) {
	var (
		n        uint64
		negative bool
		digits   int
	)

	for pos := 0; ; pos++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, midFrame(err, "integer")
		}

		switch {
		case b == '-' && pos == 0:
			negative = true
		case b >= '0' && b <= '9':
			limit := uint64(math.MaxInt64)
			if negative {
				limit++
			}
			d := uint64(b - '0')
			if n > (limit-d)/10 {
				return 0, ErrInvalidInteger
			}
			n = n*10 + d
			digits++
		case b == '\r':
			lf, err := r.ReadByte()
			if err != nil {
				return 0, midFrame(err, "integer")
			}
			if lf != '\n' {
				return 0, ErrInvalidEnding
			}
			if digits == 0 {
				return 0, ErrInvalidInteger
			}
			if negative {
				return -int64(n-1) - 1, nil
			}
			return int64(n), nil
		default:
			return 0, ErrInvalidInteger
		}
	}
}

// appendInteger appends the decimal form of n followed by CRLF
func appendInteger(b []byte, n int64) []byte {
	b = strconv.AppendInt(b, n, 10)
	return append(b, '\r', '\n')
}

// writeHeader writes the type prefix, numeric value, and CRLF
func writeHeader(w *bufio.Writer, prefix byte, n int64) error {
	if err := w.WriteByte(prefix); err != nil {
		return err
	}
	_, err := w.Write(appendInteger(w.AvailableBuffer(), n))
	return err
}
