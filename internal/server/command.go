package server

import (
	"github.com/eternalApril/moonwire/internal/resp"
	"github.com/eternalApril/moonwire/internal/store"
)

// cmdContext carries the arguments of one call (without the command name) and the storage
type cmdContext struct {
	args    [][]byte
	storage store.Storage
}

type command interface {
	execute(ctx *cmdContext) resp.Reply
}

type commandFunc func(ctx *cmdContext) resp.Reply

func (c commandFunc) execute(ctx *cmdContext) resp.Reply {
	return c(ctx)
}
