package server

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/eternalApril/moonwire/internal/config"
	"github.com/eternalApril/moonwire/internal/persistence"
	"github.com/eternalApril/moonwire/internal/resp"
	"github.com/eternalApril/moonwire/internal/store"
)

// Engine dispatches received commands to their handlers and journals the writes
type Engine struct {
	commands map[string]command // Registry of available commands (the key is the command name in uppercase)
	storage  store.Storage      // Underlying KV storage
	stopOnce sync.Once          // Ensures that the stop happens only once
	aof      *persistence.AOF   // AOF instance, nil when disabled
	logger   *zap.Logger
}

// NewEngine initializes the engine, registers the basic commands and,
// if enabled in the config, replays the AOF into the storage
func NewEngine(s store.Storage, cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	engine := &Engine{
		commands: make(map[string]command),
		storage:  s,
		logger:   logger,
	}
	engine.registerBasicCommand()

	if cfg.Persistence.AOF.Enabled {
		aof, err := persistence.NewAOF(
			cfg.Persistence.AOF.Filename,
			cfg.Persistence.AOF.Fsync,
			logger,
		)
		if err != nil {
			return nil, err
		}

		// Restore before the journal starts receiving new writes
		if err := engine.restoreAOF(aof); err != nil {
			aof.Close() //nolint:errcheck
			return nil, err
		}
		engine.aof = aof
	}

	return engine, nil
}

func (e *Engine) restoreAOF(aof *persistence.AOF) error {
	cmds, err := aof.Load()
	if err != nil {
		return err
	}

	e.logger.Info("Restoring AOF...", zap.Int("commands", len(cmds)))

	for _, c := range cmds {
		if cmd, ok := e.commands[strings.ToUpper(c.Name())]; ok {
			cmd.execute(&cmdContext{args: c.Args[1:], storage: e.storage})
		}
	}
	e.logger.Info("AOF restore finished")
	return nil
}

// register adds a new command to the engine. The command name is uppercase
func (e *Engine) register(name string, cmd command) {
	e.commands[strings.ToUpper(name)] = cmd
}

// registerBasicCommand fills the registry with standard commands
func (e *Engine) registerBasicCommand() {
	e.register("PING", commandFunc(ping))
	e.register("ECHO", commandFunc(echo))
	e.register("GET", commandFunc(get))
	e.register("SET", commandFunc(set))
	e.register("DEL", commandFunc(del))
	e.register("COMMAND", commandFunc(cmd))
}

// Execute finds the handler by command name and runs it with the remaining arguments.
// If the command is not found, returns an error reply
func (e *Engine) Execute(c resp.Command) resp.Reply {
	if c.Len() == 0 {
		return resp.MakeError("ERR empty command")
	}
	name := strings.ToUpper(c.Name())

	if e.logger.Core().Enabled(zap.DebugLevel) {
		e.logger.Debug("executing command",
			zap.String("cmd", name),
			zap.Int("args_count", c.Len()-1),
		)
	}

	cmd, ok := e.commands[name]
	if !ok {
		return resp.MakeError("ERR unknown command '" + lineSafe(c.Args[0]) + "'")
	}

	res := cmd.execute(&cmdContext{
		args:    c.Args[1:],
		storage: e.storage,
	})

	if e.aof != nil && res.Type() != resp.TypeError && isWriteCommand(name) {
		if err := e.aof.Write(c); err != nil {
			e.logger.Error("Failed to append command to AOF", zap.Error(err))
		}
	}

	return res
}

// Shutdown flushes and closes the AOF
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		if e.aof != nil {
			if err := e.aof.Close(); err != nil {
				e.logger.Error("AOF close failed", zap.Error(err))
			}
		}
	})
}

// isWriteCommand helper what command change state database
func isWriteCommand(name string) bool {
	switch name {
	case "SET", "DEL":
		return true
	}
	return false
}
