package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kevinxiao27/ot-delta/attr"
	"github.com/kevinxiao27/ot-delta/delta"
	"github.com/kevinxiao27/ot-delta/internal/config"
	"github.com/kevinxiao27/ot-delta/ol"
	"github.com/kevinxiao27/ot-delta/util"
)

type text = delta.Delta[rune, attr.Map]

type Server struct {
	mu         sync.Mutex
	documents  map[string]*document
	upgrader   websocket.Upgrader
	sendBuffer int
	logger     *slog.Logger
	metrics    *metrics
	gatherer   prometheus.Gatherer
}

// document is one shared document and the connections editing it. mu orders
// submissions and broadcasts so every connection sees revisions in log order.
type document struct {
	mu      sync.Mutex
	name    string
	log     *ol.OpLog[rune, attr.Map]
	clients mapset.Set[*client]
}

type client struct {
	agent  string
	conn   *websocket.Conn
	send   chan WSMessage
	closed bool // guarded by document.mu
}

type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type InitData struct {
	Agent string `json:"agent"`
	Rev   int    `json:"rev"`
	Doc   *text  `json:"doc,omitempty"`
}

type ErrorData struct {
	ID    ol.ID  `json:"id"`
	Error string `json:"error"`
}

type DocumentResponse struct {
	Rev     int    `json:"rev"`
	Doc     text   `json:"doc"`
	Content string `json:"content"`
}

func NewServer(cfg config.Config, logger *slog.Logger, reg *prometheus.Registry) *Server {
	return &Server{
		documents:  make(map[string]*document),
		sendBuffer: cfg.SendBuffer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:   logger,
		metrics:  newMetrics(reg),
		gatherer: reg,
	}
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws/{doc}", s.handleWebSocket)
	r.HandleFunc("/docs/{doc}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/docs/{doc}/revisions", s.handleRevisions).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) getDocument(name string) (*document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, exists := s.documents[name]; exists {
		return doc, nil
	}
	log, err := ol.NewOpLog(text{}, ol.WithLogger(s.logger.With("doc", name)))
	if err != nil {
		return nil, err
	}
	doc := &document{name: name, log: log, clients: mapset.NewThreadUnsafeSet[*client]()}
	s.documents[name] = doc
	s.metrics.documents.Inc()
	return doc, nil
}

// lookupDocument finds an existing document without creating one.
func (s *Server) lookupDocument(w http.ResponseWriter, r *http.Request) (*document, bool) {
	name := mux.Vars(r)["doc"]
	s.mu.Lock()
	doc, exists := s.documents[name]
	s.mu.Unlock()
	if !exists {
		http.Error(w, fmt.Sprintf("document %q not found", name), http.StatusNotFound)
	}
	return doc, exists
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookupDocument(w, r)
	if !ok {
		return
	}

	rev, snapshot := doc.log.Snapshot()
	content, err := snapshot.Content()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, DocumentResponse{Rev: rev, Doc: snapshot, Content: string(content)})
}

func (s *Server) handleRevisions(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookupDocument(w, r)
	if !ok {
		return
	}

	var err error
	since := 0
	if q := r.URL.Query().Get("since"); q != "" {
		if since, err = strconv.Atoi(q); err != nil {
			http.Error(w, fmt.Sprintf("since: %v", err), http.StatusBadRequest)
			return
		}
	}
	revs, err := doc.log.Since(since)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, revs)
}

// handleWebSocket serves one editing session. The connection is given a fresh
// agent id. With ?rev=N the client is caught up from revision N, otherwise it
// receives the current snapshot.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	doc, err := s.getDocument(mux.Vars(r)["doc"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "doc", doc.name, "err", err)
		return
	}

	c := &client{agent: uuid.NewString(), conn: conn, send: make(chan WSMessage, s.sendBuffer)}
	go c.writeLoop()

	if err := s.join(doc, c, r.URL.Query().Get("rev")); err != nil {
		s.logger.Warn("join failed", "doc", doc.name, "agent", c.agent, "err", err)
		doc.mu.Lock()
		s.sendLocked(doc, c, newMessage("error", ErrorData{Error: err.Error()}))
		s.dropLocked(doc, c)
		doc.mu.Unlock()
		return
	}
	s.metrics.clients.Inc()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "submit":
			s.submit(doc, c, msg.Data)
		default:
			s.reject(doc, c, ol.ID{Agent: c.agent}, fmt.Errorf("unknown message type %q", msg.Type))
		}
	}

	doc.mu.Lock()
	s.dropLocked(doc, c)
	remaining := doc.clients.Cardinality()
	doc.mu.Unlock()
	s.metrics.clients.Dec()
	s.logger.Info("client disconnected", "doc", doc.name, "agent", c.agent, "remaining", remaining)
}

func (s *Server) join(doc *document, c *client, since string) error {
	doc.mu.Lock()
	defer doc.mu.Unlock()

	if since == "" {
		rev, snapshot := doc.log.Snapshot()
		s.sendLocked(doc, c, newMessage("init", InitData{Agent: c.agent, Rev: rev, Doc: &snapshot}))
	} else {
		rev, err := strconv.Atoi(since)
		if err != nil {
			return fmt.Errorf("rev: %w", err)
		}
		revs, err := doc.log.Since(rev)
		if err != nil {
			return err
		}
		msgs, err := util.MapN(revs, func(r ol.Revision[rune, attr.Map]) (WSMessage, error) {
			data, err := json.Marshal(r)
			return WSMessage{Type: "revision", Data: data}, err
		})
		if err != nil {
			return err
		}
		s.sendLocked(doc, c, newMessage("init", InitData{Agent: c.agent, Rev: rev}))
		for _, msg := range msgs {
			s.sendLocked(doc, c, msg)
		}
	}

	doc.clients.Add(c)
	s.logger.Info("client connected", "doc", doc.name, "agent", c.agent, "total", doc.clients.Cardinality())
	return nil
}

// submit sequences a submission and broadcasts the revision: an ack to the
// submitter, the revision itself to everyone else.
func (s *Server) submit(doc *document, from *client, data json.RawMessage) {
	var sub ol.Submission[rune, attr.Map]
	if err := json.Unmarshal(data, &sub); err != nil {
		s.reject(doc, from, ol.ID{Agent: from.agent}, err)
		return
	}
	sub.ID.Agent = from.agent

	doc.mu.Lock()
	defer doc.mu.Unlock()

	head := doc.log.Head()
	rev, err := doc.log.Submit(sub.ID, sub.BaseRev, sub.Delta)
	if err != nil {
		s.rejectLocked(doc, from, sub.ID, err)
		return
	}
	payload, err := json.Marshal(rev)
	if err != nil {
		s.rejectLocked(doc, from, sub.ID, err)
		return
	}
	if rev.Rev <= head {
		// Already sequenced; only the submitter missed the ack.
		s.sendLocked(doc, from, WSMessage{Type: "ack", Data: payload})
		return
	}

	s.metrics.accepted.Inc()
	for _, c := range doc.clients.ToSlice() {
		s.sendLocked(doc, c, WSMessage{Type: util.Choose(c == from, "ack", "revision"), Data: payload})
	}
}

func (s *Server) reject(doc *document, c *client, id ol.ID, err error) {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	s.rejectLocked(doc, c, id, err)
}

func (s *Server) rejectLocked(doc *document, c *client, id ol.ID, err error) {
	reason := rejectReason(err)
	s.metrics.rejected.WithLabelValues(reason).Inc()
	s.logger.Warn("submission rejected", "doc", doc.name, "agent", id.Agent, "seq", id.Seq, "reason", reason, "err", err)
	s.sendLocked(doc, c, newMessage("error", ErrorData{ID: id, Error: err.Error()}))
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ol.ErrOutOfOrder):
		return "out_of_order"
	case errors.Is(err, ol.ErrInvalidRevision):
		return "invalid_revision"
	case errors.Is(err, delta.ErrLengthMismatch):
		return "length_mismatch"
	case errors.Is(err, delta.ErrInvalidOperation):
		return "invalid_operation"
	default:
		return "malformed"
	}
}

// sendLocked queues msg without blocking. A client whose queue is full is
// dropped.
func (s *Server) sendLocked(doc *document, c *client, msg WSMessage) {
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		s.logger.Warn("dropping slow client", "doc", doc.name, "agent", c.agent)
		s.dropLocked(doc, c)
	}
}

func (s *Server) dropLocked(doc *document, c *client) {
	if c.closed {
		return
	}
	c.closed = true
	doc.clients.Remove(c)
	close(c.send)
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func newMessage(kind string, data any) WSMessage {
	payload, err := json.Marshal(data)
	if err != nil {
		payload, _ = json.Marshal(ErrorData{Error: err.Error()})
		kind = "error"
	}
	return WSMessage{Type: kind, Data: payload}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
