package persistence

import (
	"bufio"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eternalApril/moonwire/internal/resp"
)

// ErrClosed is returned by Write after Close
var ErrClosed = errors.New("aof: closed")

type fsyncStrategy int

const (
	fsyncAlways fsyncStrategy = iota + 1
	fsyncEverySec
	fsyncNo
)

// AOF journals write commands in their RESP form so they can be replayed on start
type AOF struct {
	file     *os.File
	writer   *bufio.Writer
	filename string
	strategy fsyncStrategy

	commandsChan chan []byte

	// mu orders queueing against Close: Write holds it shared while sending,
	// Close takes it exclusively, so every accepted payload is queued before the drain starts
	mu       sync.RWMutex
	closed   bool
	stopChan chan struct{}
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// NewAOF opens (or creates) the journal and starts the background writer
func NewAOF(filename string, strategyStr string, logger *zap.Logger) (*AOF, error) {
	strategy := parseStrategy(strategyStr)

	// open file in Append mode, Create if not exists, Read/Write
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	aof := &AOF{
		file:         f,
		writer:       bufio.NewWriter(f), // default 4KB buffer
		filename:     filename,
		strategy:     strategy,
		commandsChan: make(chan []byte, 10000), // buffer for burst writes
		stopChan:     make(chan struct{}),
		logger:       logger,
	}

	// background disk writer
	aof.wg.Add(1)
	go aof.listen()

	return aof, nil
}

// Write encodes the command and queues it for the background writer
func (a *AOF) Write(cmd resp.Command) error {
	payload, err := resp.SerializeCommand(cmd)
	if err != nil {
		return err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	// if channel is full, this WILL block, providing backpressure
	a.commandsChan <- payload
	return nil
}

func (a *AOF) listen() {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case p := <-a.commandsChan:
			a.writePayload(p)

			if a.strategy == fsyncAlways {
				a.sync()
			}

		case <-ticker.C:
			switch a.strategy {
			case fsyncEverySec:
				a.sync()
			case fsyncNo:
				a.flush()
			}

		case <-a.stopChan:
			// drain what was queued before Close
			for {
				select {
				case p := <-a.commandsChan:
					a.writePayload(p)
				default:
					a.sync()
					return
				}
			}
		}
	}
}

func (a *AOF) writePayload(p []byte) {
	if _, err := a.writer.Write(p); err != nil {
		a.logger.Error("AOF write error", zap.Error(err))
	}
}

func (a *AOF) flush() {
	if err := a.writer.Flush(); err != nil {
		a.logger.Error("AOF flush error", zap.Error(err))
	}
}

func (a *AOF) sync() {
	a.flush()
	if err := a.file.Sync(); err != nil {
		a.logger.Error("AOF fsync error", zap.Error(err))
	}
}

// Close flushes the queued commands and closes the file
func (a *AOF) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.closed = true
	close(a.stopChan)
	a.mu.Unlock()

	a.wg.Wait() // wait for background routine to finish last flush
	return a.file.Close()
}

func parseStrategy(s string) fsyncStrategy {
	switch s {
	case "always":
		return fsyncAlways
	case "no":
		return fsyncNo
	default:
		return fsyncEverySec
	}
}
