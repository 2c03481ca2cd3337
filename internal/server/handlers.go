package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/eternalApril/moonwire/internal/resp"
)

var (
	errSyntax     = resp.MakeError("ERR syntax error")
	errNotInteger = resp.MakeError("ERR value is not an integer or out of range")
	errExpireTime = resp.MakeError("ERR invalid expire time in 'set' command")
	replyOK       = resp.MakeStatus("OK")
	replyPong     = resp.MakeStatus("PONG")
)

// ping returns PONG, or echoes its single argument as a bulk
func ping(ctx *cmdContext) resp.Reply {
	switch len(ctx.args) {
	case 0:
		return replyPong
	case 1:
		return resp.MakeBulk(ctx.args[0])
	default:
		return resp.MakeErrorWrongNumberOfArguments("ping")
	}
}

func echo(ctx *cmdContext) resp.Reply {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments("echo")
	}
	return resp.MakeBulk(ctx.args[0])
}

func get(ctx *cmdContext) resp.Reply {
	if len(ctx.args) != 1 {
		return resp.MakeErrorWrongNumberOfArguments("get")
	}

	val, ok := ctx.storage.Get(string(ctx.args[0]))
	if !ok {
		return resp.MakeNilBulk()
	}
	return resp.MakeBulk(val)
}

// set implements SET key value [EX seconds | PX milliseconds]
func set(ctx *cmdContext) resp.Reply {
	if len(ctx.args) < 2 {
		return resp.MakeErrorWrongNumberOfArguments("set")
	}

	var ttl time.Duration
	for i := 2; i < len(ctx.args); i++ {
		opt := strings.ToUpper(string(ctx.args[i]))
		if (opt != "EX" && opt != "PX") || ttl != 0 || i+1 >= len(ctx.args) {
			return errSyntax
		}

		n, err := strconv.ParseInt(string(ctx.args[i+1]), 10, 64)
		if err != nil {
			return errNotInteger
		}
		if n <= 0 {
			return errExpireTime
		}

		unit := time.Second
		if opt == "PX" {
			unit = time.Millisecond
		}
		ttl = time.Duration(n) * unit
		i++
	}

	ctx.storage.Set(string(ctx.args[0]), ctx.args[1], ttl)
	return replyOK
}

func del(ctx *cmdContext) resp.Reply {
	if len(ctx.args) == 0 {
		return resp.MakeErrorWrongNumberOfArguments("del")
	}

	var n int64
	for _, key := range ctx.args {
		if ctx.storage.Delete(string(key)) {
			n++
		}
	}
	return resp.MakeInteger(n)
}

// cmd implements COMMAND, COMMAND COUNT and COMMAND DOCS [name ...]
func cmd(ctx *cmdContext) resp.Reply {
	if len(ctx.args) == 0 {
		return getAllCommands()
	}

	switch strings.ToUpper(string(ctx.args[0])) {
	case "COUNT":
		return resp.MakeInteger(int64(len(commandRegistry)))
	case "DOCS":
		return getCommandsDocs(ctx.args[1:])
	}
	return resp.MakeError("ERR unknown subcommand '" + lineSafe(ctx.args[0]) + "'")
}

// lineSafe makes client supplied bytes usable inside an error line
func lineSafe(b []byte) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(string(b))
}
