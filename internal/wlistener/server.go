// Package wlistener принимает долгоживущие TCP-подключения world node
// процессов, декодирует типизированные события, прогоняет их через
// координатор и пишет обратно ответы.
package wlistener

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/udisondev/worldgate/internal/config"
	"github.com/udisondev/worldgate/internal/coordinator"
)

// Server представляет WorldNode↔Coordinator TCP listener.
type Server struct {
	cfg     config.Coordinator
	handler *coordinator.Handler

	listener net.Listener
	mu       sync.Mutex
}

// NewServer создаёт новый listener server.
func NewServer(cfg config.Coordinator, handler *coordinator.Handler) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
	}
}

// Addr возвращает адрес, на котором слушает сервер.
// Возвращает nil если сервер ещё не запущен.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close закрывает listener и останавливает сервер.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Run начинает прослушивание подключений от world node.
// Создаёт listener на cfg.ListenHost:cfg.ListenPort и запускает accept loop.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.ListenHost, s.cfg.ListenPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return s.Serve(ctx, ln)
}

// Serve принимает готовый listener и запускает accept loop.
// Используется для тестирования с произвольным listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// Graceful shutdown
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	slog.Info("world listener started", "address", ln.Addr())

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				wg.Wait()
				return nil
			default:
			}
			slog.Error("failed to accept world connection", "error", err)
			continue
		}
		wg.Go(func() {
			handleConnection(ctx, s, conn)
		})
	}
}

func handleConnection(ctx context.Context, srv *Server, conn net.Conn) {
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		slog.Error("failed to split host port", "connection", conn.RemoteAddr(), "error", err)
		return
	}

	log := slog.With("conn", uuid.NewString(), "remote", host)
	log.Info("world node connected")

	// Ответы с разных событий одного канала могут гнаться друг с
	// другом, запись сериализуется.
	var writeMu sync.Mutex

	// События одного канала обрабатываются независимо: долгий login
	// не задерживает autosave. Никакого состояния на соединении нет,
	// всё живое лежит в store.
	var wg sync.WaitGroup
	defer wg.Wait()

	reader := bufio.NewReaderSize(conn, 64*1024)
	for {
		line, tooLong, err := readEvent(reader, srv.cfg.MaxEventSize)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Warn("world node read failed", "error", err)
			}
			break
		}
		if tooLong {
			log.Warn("dropping oversized event", "limit", srv.cfg.MaxEventSize)
			continue
		}
		wg.Go(func() {
			handleEvent(ctx, srv, conn, &writeMu, log, line)
		})
	}

	log.Info("world node disconnected")
}

// readEvent читает одну строку-событие до '\n'. Строка длиннее limit
// не убивает канал: хвост дочитывается и отбрасывается, читатель
// встаёт на начало следующего события.
func readEvent(r *bufio.Reader, limit int) ([]byte, bool, error) {
	line := make([]byte, 0, 4096)
	for {
		chunk, err := r.ReadSlice('\n')
		if len(line)+len(chunk) > limit {
			for errors.Is(err, bufio.ErrBufferFull) {
				_, err = r.ReadSlice('\n')
			}
			if err != nil {
				return nil, false, err
			}
			return nil, true, nil
		}
		line = append(line, chunk...)
		switch {
		case err == nil:
			return line[:len(line)-1], false, nil
		case errors.Is(err, bufio.ErrBufferFull):
			// строка длиннее буфера чтения, дочитываем
		default:
			return nil, false, err
		}
	}
}

// handleEvent — граница деградации: любая ошибка декодирования или
// обработки одного события логируется и не трогает ни канал, ни
// остальные события.
func handleEvent(
	ctx context.Context,
	srv *Server,
	conn net.Conn,
	writeMu *sync.Mutex,
	log *slog.Logger,
	line []byte,
) {
	ev, err := DecodeEvent(line)
	if err != nil {
		log.Warn("dropping undecodable event", "error", err)
		return
	}

	reply, err := srv.handler.Handle(ctx, ev)
	if err != nil {
		log.Error("dropping failed event", "type", fmt.Sprintf("%T", ev), "error", err)
		return
	}
	if reply == nil {
		return
	}

	data, err := EncodeReply(reply)
	if err != nil {
		log.Error("failed to encode reply", "error", err)
		return
	}

	writeMu.Lock()
	_, err = conn.Write(data)
	writeMu.Unlock()
	if err != nil {
		log.Warn("failed to write reply", "error", err)
	}
}
