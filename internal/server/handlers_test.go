package server

import (
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eternalApril/moonwire/internal/config"
	"github.com/eternalApril/moonwire/internal/resp"
	"github.com/eternalApril/moonwire/internal/store"
)

// setupEngine creates a fresh engine with a clean store for each test
func setupEngine(t *testing.T) *Engine {
	t.Helper()
	s, _ := store.NewShardedMapStore(1) //nolint:errcheck
	eng, err := NewEngine(s, &config.Config{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	return eng
}

// helper to construct a command request
func makeCommand(args ...string) resp.Command {
	return resp.CommandOf(args...)
}

func TestPing(t *testing.T) {
	e := setupEngine(t)

	tests := []struct {
		name     string
		args     []string
		wantType byte
		wantStr  string
	}{
		{"Simple PING", []string{"PING"}, resp.TypeStatus, "PONG"},
		{"PING with message", []string{"ping", "Hello"}, resp.TypeBulk, "Hello"},
		{"PING too many args", []string{"PING", "a", "b"}, resp.TypeError, "ERR wrong number of arguments for 'ping' command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Execute(makeCommand(tt.args...))
			if res.Type() != tt.wantType {
				t.Errorf("got type %q, want %q", res.Type(), tt.wantType)
			}

			if got := replyText(res); got != tt.wantStr {
				t.Errorf("got %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func replyText(r resp.Reply) string {
	switch v := r.(type) {
	case resp.StatusReply:
		return v.Text
	case resp.ErrorReply:
		return v.Text
	case resp.BulkReply:
		return v.String()
	}
	return ""
}

func TestEcho(t *testing.T) {
	e := setupEngine(t)

	res := e.Execute(resp.NewCommand([]byte("ECHO"), []byte{0, 1, '\r', '\n'}))
	if !resp.Equal(res, resp.MakeBulk([]byte{0, 1, '\r', '\n'})) {
		t.Errorf("ECHO returned %#v", res)
	}

	res = e.Execute(makeCommand("ECHO"))
	if res.Type() != resp.TypeError {
		t.Errorf("ECHO without args must fail, got %#v", res)
	}
}

func TestBasicSetGetDel(t *testing.T) {
	e := setupEngine(t)

	// GET missing key
	res := e.Execute(makeCommand("GET", "mykey"))
	if !resp.Equal(res, resp.MakeNilBulk()) {
		t.Errorf("expected null for missing key, got %#v", res)
	}

	// SET key
	res = e.Execute(makeCommand("SET", "mykey", "myvalue"))
	if replyText(res) != "OK" {
		t.Errorf("expected OK, got %#v", res)
	}

	// GET key
	res = e.Execute(makeCommand("GET", "mykey"))
	if replyText(res) != "myvalue" {
		t.Errorf("expected myvalue, got %#v", res)
	}

	// DEL key and a missing one
	res = e.Execute(makeCommand("DEL", "mykey", "other"))
	if !resp.Equal(res, resp.MakeInteger(1)) {
		t.Errorf("expected 1 deleted, got %#v", res)
	}

	// GET key again
	res = e.Execute(makeCommand("GET", "mykey"))
	if !resp.Equal(res, resp.MakeNilBulk()) {
		t.Errorf("expected null after delete, got %#v", res)
	}
}

func TestSetTTL(t *testing.T) {
	e := setupEngine(t)

	e.Execute(makeCommand("SET", "k", "v", "PX", "20"))
	if res := e.Execute(makeCommand("GET", "k")); replyText(res) != "v" {
		t.Fatalf("expected value before expiry, got %#v", res)
	}

	time.Sleep(50 * time.Millisecond)

	if res := e.Execute(makeCommand("GET", "k")); !resp.Equal(res, resp.MakeNilBulk()) {
		t.Errorf("expected key to expire, got %#v", res)
	}

	e.Execute(makeCommand("SET", "k2", "v", "ex", "100"))
	if res := e.Execute(makeCommand("GET", "k2")); replyText(res) != "v" {
		t.Errorf("expected value with EX, got %#v", res)
	}
}

func TestSetSyntaxErrors(t *testing.T) {
	e := setupEngine(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"Missing value", []string{"SET", "k"}, "ERR wrong number of arguments for 'set' command"},
		{"Unknown option", []string{"SET", "k", "v", "NX"}, "ERR syntax error"},
		{"EX without value", []string{"SET", "k", "v", "EX"}, "ERR syntax error"},
		{"EX and PX", []string{"SET", "k", "v", "EX", "1", "PX", "1"}, "ERR syntax error"},
		{"Not integer", []string{"SET", "k", "v", "EX", "ten"}, "ERR value is not an integer or out of range"},
		{"Zero expire", []string{"SET", "k", "v", "PX", "0"}, "ERR invalid expire time in 'set' command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Execute(makeCommand(tt.args...))
			if res.Type() != resp.TypeError || replyText(res) != tt.want {
				t.Errorf("got %#v, want error %q", res, tt.want)
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	e := setupEngine(t)

	res := e.Execute(resp.NewCommand([]byte("FOO\r\nBAR")))
	if res.Type() != resp.TypeError {
		t.Fatalf("expected error, got %#v", res)
	}
	if _, err := resp.SerializeReply(res); err != nil {
		t.Errorf("error reply for hostile name must stay encodable: %v", err)
	}

	if res := e.Execute(resp.Command{}); res.Type() != resp.TypeError {
		t.Errorf("empty command must fail, got %#v", res)
	}
}

func TestCommandIntrospection(t *testing.T) {
	e := setupEngine(t)

	res := e.Execute(makeCommand("COMMAND", "COUNT"))
	if !resp.Equal(res, resp.MakeInteger(int64(len(commandRegistry)))) {
		t.Errorf("COMMAND COUNT got %#v", res)
	}

	all, ok := e.Execute(makeCommand("COMMAND")).(resp.MultiBulkReply)
	if !ok || len(all.Replies) != len(commandRegistry) {
		t.Fatalf("COMMAND got %#v", all)
	}

	docs, ok := e.Execute(makeCommand("COMMAND", "DOCS", "get", "nope")).(resp.MultiBulkReply)
	if !ok || len(docs.Replies) != 2 || replyText(docs.Replies[0]) != "get" {
		t.Fatalf("COMMAND DOCS got %#v", docs)
	}

	if _, err := resp.SerializeReply(all); err != nil {
		t.Errorf("COMMAND reply does not encode: %v", err)
	}
}

func TestEngine_AOFReplay(t *testing.T) {
	cfg := &config.Config{
		Persistence: config.PersistenceConfig{
			AOF: config.AOFConfig{
				Enabled:  true,
				Filename: filepath.Join(t.TempDir(), "appendonly.aof"),
				Fsync:    "always",
			},
		},
	}

	first, err := NewEngine(store.NewMapStore(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	first.Execute(makeCommand("SET", "a", "1"))
	first.Execute(makeCommand("SET", "b", "2"))
	first.Execute(makeCommand("DEL", "a"))
	first.Execute(makeCommand("SET", "bad")) // error replies are not journaled
	first.Shutdown()

	second, err := NewEngine(store.NewMapStore(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	defer second.Shutdown()

	if res := second.Execute(makeCommand("GET", "b")); replyText(res) != "2" {
		t.Errorf("expected b=2 after replay, got %#v", res)
	}
	if res := second.Execute(makeCommand("GET", "a")); !resp.Equal(res, resp.MakeNilBulk()) {
		t.Errorf("expected a deleted after replay, got %#v", res)
	}
}
