package resp_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternalApril/moonwire/internal/resp"
)

func TestRoundTrip_Bytes(t *testing.T) {
	frames := []string{
		"+OK\r\n",
		"-ERR wrong type\r\n",
		":0\r\n",
		":-123\r\n",
		":9223372036854775807\r\n",
		"$0\r\n\r\n",
		"$-1\r\n",
		"*-1\r\n",
		"*0\r\n",
		"*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n",
		"*3\r\n*1\r\n*0\r\n$-1\r\n-err\r\n",
	}

	for _, frame := range frames {
		t.Run(frame, func(t *testing.T) {
			r, err := resp.NewDecoder(bytes.NewBufferString(frame)).ReadReply()
			require.NoError(t, err)

			out, err := resp.SerializeReply(r)
			require.NoError(t, err)
			assert.Equal(t, frame, string(out))
		})
	}
}

func TestRoundTrip_Values(t *testing.T) {
	values := []resp.Reply{
		resp.MakeStatus("PONG"),
		resp.MakeError("ERR something"),
		resp.MakeInteger(-1),
		resp.MakeBulk([]byte{0, 1, 2, '\r', '\n'}),
		resp.MakeNilBulk(),
		resp.MakeNilMultiBulk(),
		resp.MakeMultiBulk(
			resp.MakeBulkString(""),
			resp.MakeMultiBulk(resp.MakeInteger(7), resp.MakeNilBulk()),
			resp.MakeNilMultiBulk(),
		),
	}

	var buf bytes.Buffer
	enc := resp.NewEncoder(&buf)
	for _, v := range values {
		require.NoError(t, enc.WriteReply(v))
	}
	require.NoError(t, enc.Flush())

	dec := resp.NewDecoder(&buf)
	for _, want := range values {
		got, err := dec.ReadReply()
		require.NoError(t, err)
		assert.True(t, resp.Equal(want, got), "got %#v, want %#v", got, want)
	}

	_, err := dec.ReadReply()
	assert.Equal(t, io.EOF, err)
}

func TestRoundTrip_Command(t *testing.T) {
	big := make([]byte, 3*1024*1024)
	_, err := rand.Read(big)
	require.NoError(t, err)

	cmd := resp.NewCommand([]byte("SET"), []byte{}, big, []byte{0x00, 0xff, '\r', '\n', '$'})

	b, err := resp.SerializeCommand(cmd)
	require.NoError(t, err)

	got, err := resp.NewDecoder(bytes.NewReader(b)).ReadCommand()
	require.NoError(t, err)
	require.Equal(t, cmd.Len(), got.Len())
	for i := range cmd.Args {
		assert.True(t, bytes.Equal(cmd.Args[i], got.Args[i]), "arg %d differs", i)
	}

	// a command is a multi-bulk of bulks for a reply reader too
	r, err := resp.NewDecoder(bytes.NewReader(b)).ReadReply()
	require.NoError(t, err)
	assert.True(t, resp.Equal(cmd.Reply(), r))
}

func FuzzDecoder(f *testing.F) {
	f.Add([]byte("*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"))
	f.Add([]byte("+OK\r\n"))
	f.Add([]byte(":-5\r\n"))
	f.Add([]byte("$-1\r\n"))
	f.Add([]byte("*1\r\n*-1\r\n"))
	f.Add([]byte("$5\r\nab"))

	f.Fuzz(func(t *testing.T, data []byte) {
		r, err := resp.NewDecoder(bytes.NewReader(data)).ReadReply()
		if err != nil {
			if !errors.Is(err, resp.ErrProtocol) && !errors.Is(err, io.ErrUnexpectedEOF) && err != io.EOF {
				t.Fatalf("unexpected error kind: %v", err)
			}
			return
		}

		out, err := resp.SerializeReply(r)
		if err != nil {
			t.Fatalf("decoded reply does not encode: %v", err)
		}

		again, err := resp.NewDecoder(bytes.NewReader(out)).ReadReply()
		if err != nil {
			t.Fatalf("re-decode failed: %v", err)
		}
		if !resp.Equal(r, again) {
			t.Fatalf("round trip mismatch: %#v != %#v", r, again)
		}
	})
}
