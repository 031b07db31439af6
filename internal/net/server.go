package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"fenrir/internal/engine"
	"fenrir/internal/events"
	"fenrir/internal/workerpool"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = 5 * time.Second
)

var ErrImproperConversion = errors.New("improper type conversion")

// clientSession tracks one connected TCP session and the owner it speaks
// for. Together with Server.sessionsByOrder (order id -> owner) it lets
// trade reports be routed back to the right connection without the engine
// knowing transports exist.
type clientSession struct {
	owner string
	conn  net.Conn
}

// Server is the raw-TCP transport. It decodes NewOrder/LogBook messages,
// submits them through the shared Engine Facade, and pushes execution
// reports back to whichever connected owner each trade involves.
type Server struct {
	address string
	port    int
	engine  *engine.Engine
	pool    *workerpool.Pool

	mu             sync.Mutex
	sessionsByAddr map[string]*clientSession
	sessionsByOrder map[string]string // orderID -> owner

	cancel context.CancelFunc
}

// New constructs a Server bound to address:port, driving eng.
func New(address string, port int, eng *engine.Engine) *Server {
	return &Server{
		address:         address,
		port:            port,
		engine:          eng,
		pool:            workerpool.New(defaultNWorkers),
		sessionsByAddr:  make(map[string]*clientSession),
		sessionsByOrder: make(map[string]string),
	}
}

// Send implements events.Sink. The TCP transport only forwards trade
// events; book/BBO fan-out is left to the push-stream (WebSocket)
// transport, which is a better fit for unsolicited depth updates.
func (s *Server) Send(channel events.Channel, event any) error {
	if channel != events.Trade {
		return nil
	}
	evt, ok := event.(events.TradeEvent)
	if !ok {
		return nil
	}
	s.routeTradeReport(evt)
	return nil
}

func (s *Server) routeTradeReport(evt events.TradeEvent) {
	s.mu.Lock()
	makerOwner, makerKnown := s.sessionsByOrder[evt.MakerOrderID]
	takerOwner, takerKnown := s.sessionsByOrder[evt.TakerOrderID]
	s.mu.Unlock()

	makerReport, takerReport := tradeReports(evt)
	if makerKnown {
		s.sendReport(makerOwner, makerReport)
	}
	if takerKnown {
		s.sendReport(takerOwner, takerReport)
	}
}

func (s *Server) sendReport(owner string, report Report) {
	s.mu.Lock()
	session, ok := s.sessionForOwner(owner)
	s.mu.Unlock()
	if !ok {
		return
	}
	if _, err := session.conn.Write(report.Serialize()); err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("failed to deliver report, dropping session")
		s.deleteClientSession(session.conn.RemoteAddr().String())
	}
}

func (s *Server) sessionForOwner(owner string) (*clientSession, bool) {
	for _, sess := range s.sessionsByAddr {
		if sess.owner == owner {
			return sess, true
		}
	}
	return nil, false
}

// Run starts the TCP listener and worker pool and blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start tcp listener")
		return
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})

	log.Info().Str("address", s.address).Int("port", s.port).Msg("tcp transport listening")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}
			log.Info().Str("address", conn.RemoteAddr().String()).Msg("new tcp client")
			s.pool.AddTask(conn)
		}
	}
}

// Shutdown cancels the server's context, stopping Run.
func (s *Server) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
}

// handleConnection reads one message per loop iteration off conn and
// dispatches it, re-enqueuing the connection for its next message. Any
// error returned here is fatal to the worker that returns it, per
// workerpool's contract.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetReadDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Msg("failed to set read deadline")
		conn.Close()
		return nil
	}

	buf := make([]byte, maxRecvSize)
	select {
	case <-t.Dying():
		conn.Close()
		return nil
	default:
	}

	n, err := conn.Read(buf)
	if err != nil {
		s.deleteClientSession(conn.RemoteAddr().String())
		conn.Close()
		return nil
	}

	if err := s.handleMessage(conn, buf[:n]); err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("error handling message")
		conn.Write(errorReport(err).Serialize())
	}

	s.pool.AddTask(conn)
	return nil
}

func (s *Server) handleMessage(conn net.Conn, raw []byte) error {
	msgType, body, err := parseMessage(raw)
	if err != nil {
		return err
	}

	switch msgType {
	case NewOrder:
		m, err := parseNewOrder(body)
		if err != nil {
			return err
		}
		s.registerSession(conn, m.Owner)

		res, err := s.engine.Submit(context.Background(), engine.SubmitRequest{
			Symbol:   m.Symbol,
			Type:     m.OrderType,
			Side:     m.Side,
			Quantity: m.Quantity,
			Price:    m.Price,
			PriceSet: m.PriceSet,
			Owner:    m.Owner,
		})
		if err != nil {
			return err
		}
		s.trackOrder(res.OrderID, m.Owner)
		return nil

	case LogBook:
		log.Info().Msg("log book requested over tcp (see http transport for a structured snapshot)")
		return nil

	case Heartbeat:
		// No-op: a heartbeat only needs to keep the connection's read
		// deadline alive, which handleConnection already resets on every
		// successful read.
		return nil

	default:
		return ErrInvalidMessageType
	}
}

func (s *Server) registerSession(conn net.Conn, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionsByAddr[conn.RemoteAddr().String()] = &clientSession{owner: owner, conn: conn}
}

func (s *Server) trackOrder(orderID, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionsByOrder[orderID] = owner
}

func (s *Server) deleteClientSession(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessionsByAddr, addr)
}
