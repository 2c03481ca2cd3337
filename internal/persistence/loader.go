package persistence

import (
	"errors"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/eternalApril/moonwire/internal/resp"
)

// Load reads the journal and returns the commands to be replayed.
// A command cut off at the end of the file (crash during append) is dropped with a warning
func (a *AOF) Load() ([]resp.Command, error) {
	file, err := os.Open(a.filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Fresh start
		}
		return nil, err
	}
	defer file.Close() //nolint:errcheck

	reader := resp.NewDecoder(file)
	var commands []resp.Command

	for {
		cmd, err := reader.ReadCommand()
		if err != nil {
			if err == io.EOF {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				a.logger.Warn("AOF ends with a truncated command, ignoring it",
					zap.Int("loaded", len(commands)))
				break
			}
			return nil, err
		}
		commands = append(commands, cmd)
	}

	return commands, nil
}
