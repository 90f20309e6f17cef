package unifeeder

import (
	"bufio"
	"context"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"quote-relay/src/logger"
	"quote-relay/src/models"
)

// -----------------------------------------------------------------------------
// Wire protocol constants. The banner text is fixed; legacy terminals match
// on it byte for byte.
// -----------------------------------------------------------------------------

const (
	banner = "> Universal DDE Connector 9.00\r\n" +
		"> Copyright 1999 - 2008 MetaQuotes Software Corp.\r\n" +
		"> Login: "
	passwordPrompt = "> Password: "
	accessGranted  = "> Access granted"
	accessDenied   = "> Access denied"

	// A connection that has not authenticated within this window is dropped.
	authTimeout = 5 * time.Second
)

// -----------------------------------------------------------------------------
// Server accepts downstream terminals, runs the login/password handshake
// against the configured allow-list and fans normalized quotes out to every
// authenticated client.
// -----------------------------------------------------------------------------

type Server struct {
	cfg  models.MUniFeederConfig
	term []byte

	listener net.Listener

	mu      sync.RWMutex
	clients map[int]*Client

	log *logger.Logger
}

// -----------------------------------------------------------------------------

// NewServer validates the framing configuration and prepares the listener
// state. Listening starts in Start.
func NewServer(cfg models.MUniFeederConfig) (*Server, error) {
	term, err := ParseTerminator(cfg.Terminator)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:     cfg,
		term:    term,
		clients: make(map[int]*Client),
		log:     logger.NewLogger("UniFeeder"),
	}, nil
}

// -----------------------------------------------------------------------------

// Start binds the listener and launches the accept loop. Cancelling ctx
// closes the listener and every client.
func (s *Server) Start(ctx context.Context, wg *sync.WaitGroup) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Ip, s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("unifeeder: listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.log.Info("listening on %s", addr)

	wg.Add(2)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		s.shutdown()
	}()
	go func() {
		defer wg.Done()
		s.acceptLoop(ctx)
	}()
	return nil
}

// -----------------------------------------------------------------------------

// Addr returns the bound listener address, useful when port 0 was
// configured.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// -----------------------------------------------------------------------------

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error("accept: %v", err)
			return
		}

		go s.handleConn(conn)
	}
}

// -----------------------------------------------------------------------------

// handleConn runs the authentication handshake on a fresh connection and
// promotes it into the broadcast set on success.
func (s *Server) handleConn(conn net.Conn) {
	id := int(rand.Int32())
	s.log.Info("accepted new client %d from %s", id, conn.RemoteAddr())

	br := bufio.NewReader(conn)
	conn.SetDeadline(time.Now().Add(authTimeout))

	if _, err := conn.Write(frame(banner, s.term)); err != nil {
		s.log.Error("client %d: banner send failed: %v", id, err)
		conn.Close()
		return
	}

	login, err := readMessage(br, s.term)
	if err != nil {
		s.log.Info("client %d dropped during login: %v", id, err)
		conn.Close()
		return
	}

	if _, err := conn.Write(frame(passwordPrompt, s.term)); err != nil {
		conn.Close()
		return
	}

	password, err := readMessage(br, s.term)
	if err != nil {
		s.log.Info("client %d dropped during password: %v", id, err)
		conn.Close()
		return
	}

	if !s.authenticate(models.MAuthPair{Login: login, Password: password}) {
		conn.Write(frame(accessDenied, s.term))
		conn.Close()
		s.log.Warning("client %d: access denied for login %q", id, login)
		return
	}

	// Authenticated: no more deadlines on reads, writes get per-send
	// deadlines in the write pump.
	conn.SetDeadline(time.Time{})

	client := newClient(id, conn, s)
	s.mu.Lock()
	s.clients[id] = client
	count := len(s.clients)
	s.mu.Unlock()

	if _, err := conn.Write(frame(accessGranted, s.term)); err != nil {
		client.teardown()
		return
	}
	s.log.Info("client %d authenticated (%d connected)", id, count)

	go client.writePump()
	go client.readPump(br)
}

// -----------------------------------------------------------------------------

// authenticate scans the allow-list for an exact match on both fields.
func (s *Server) authenticate(pair models.MAuthPair) bool {
	if !pair.IsFilled() {
		return false
	}
	for _, allowed := range s.cfg.Authorization {
		if allowed.Login == pair.Login && allowed.Password == pair.Password {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// PublishQuote fans one changed quote out to every authenticated client.
// Each client only receives a channel hand-off here; actual socket writes
// happen in the per-client write pumps, so a failing or slow client never
// delays the rest of the round.
func (s *Server) PublishQuote(q models.MPublishedQuote) {
	payload := frame(q.Line, s.term)

	s.mu.RLock()
	targets := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(payload) {
			s.log.Error("client %d: send queue full, disconnecting", c.id)
			go c.teardown()
		}
	}
}

// -----------------------------------------------------------------------------

// removeClient drops a client from the broadcast set.
func (s *Server) removeClient(id int) {
	s.mu.Lock()
	_, ok := s.clients[id]
	delete(s.clients, id)
	count := len(s.clients)
	s.mu.Unlock()

	if ok {
		s.log.Info("client %d removed (%d connected)", id, count)
	}
}

// -----------------------------------------------------------------------------

// ClientCount returns the size of the broadcast set.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// -----------------------------------------------------------------------------

func (s *Server) shutdown() {
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.RLock()
	targets := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	for _, c := range targets {
		c.teardown()
	}
	s.log.Info("stopped")
}
