package server

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/eternalApril/moonwire/internal/config"
	"github.com/eternalApril/moonwire/internal/resp"
	"github.com/eternalApril/moonwire/internal/session"
)

// Server accepts connections and serves each one with its own session
type Server struct {
	cfg    *config.Config
	engine *Engine
	logger *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool
	sessions map[*session.Session]struct{}
	wg       sync.WaitGroup
}

// New creates a server. It does not listen until ListenAndServe or Serve is called
func New(cfg *config.Config, engine *Engine, logger *zap.Logger) *Server {
	return &Server{
		cfg:      cfg,
		engine:   engine,
		logger:   logger,
		sessions: make(map[*session.Session]struct{}),
	}
}

// ListenAndServe listens on the configured host and port and serves until Shutdown
func (s *Server) ListenAndServe() error {
	address := net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	s.logger.Info("listening on", zap.String("address", l.Addr().String()))

	return s.Serve(l)
}

// Serve accepts connections on l until it is closed. Returns nil after Shutdown
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		l.Close() //nolint:errcheck
		return nil
	}
	s.listener = l
	s.mu.Unlock()

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("Accept error", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// Addr returns the listener address, or nil before Serve
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting and waits for open connections to finish.
// When ctx expires first the remaining connections are closed
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	if s.listener != nil {
		s.listener.Close() //nolint:errcheck
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
	}

	s.mu.Lock()
	for sess := range s.sessions {
		sess.Close() //nolint:errcheck
	}
	s.mu.Unlock()

	<-done
	return ctx.Err()
}

func (s *Server) track(sess *session.Session, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if open {
		s.sessions[sess] = struct{}{}
	} else {
		delete(s.sessions, sess)
	}
}

// handleConnection handles a connection for a single client
func (s *Server) handleConnection(conn net.Conn) {
	log := s.logger.With(zap.String("addr", conn.RemoteAddr().String()))
	log.Debug("client connected")

	sess := session.New(conn, s.cfg.Protocol.Options()...)
	s.track(sess, true)
	defer func() {
		s.track(sess, false)
		sess.Close() //nolint:errcheck
		log.Debug("client disconnected")
	}()

	for {
		cmd, err := sess.Receive()
		if err != nil {
			var perr *resp.ProtocolError
			switch {
			case errors.As(err, &perr):
				log.Warn("protocol error, closing connection", zap.Error(err))
				sess.SendReply(resp.MakeError("ERR Protocol error: " + perr.Msg)) //nolint:errcheck
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			default:
				log.Warn("read command failed", zap.Error(err))
			}
			return
		}

		if strings.EqualFold(cmd.Name(), "QUIT") {
			sess.SendReply(replyOK) //nolint:errcheck
			return
		}

		// an empty command gets no reply, but earlier buffered replies still have to go out
		if cmd.Len() > 0 {
			if err := sess.SendReplyBuffered(s.engine.Execute(cmd)); err != nil {
				log.Error("error writing response", zap.Error(err))
				return
			}
		}

		// replies to pipelined commands go out in one write
		if sess.InputBuffered() == 0 {
			if err := sess.Flush(); err != nil {
				return
			}
		}
	}
}
