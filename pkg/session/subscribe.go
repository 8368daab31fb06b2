package session

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mewdb/mew/pkg/logging"
	"github.com/mewdb/mew/pkg/pattern"
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/txn"
)

// Delta is one batch of bindings delivered to a Subscription: the full
// set of matches as of the commit that triggered delivery. This is a
// re-evaluate-on-commit primitive, not a true incremental diff — §6.2
// only requires the match engine to expose *a* primitive for delta
// matching, leaving genuinely incremental evaluation to whatever
// external collaborator needs it.
type Delta struct {
	Bindings []pattern.Binding
}

// Subscription is what subscribe(compiled pattern) hands back: a
// pattern bound to a delivery channel that receives a Delta every time
// a commit might have changed its matches.
type Subscription struct {
	id      string
	pattern *registry.PatternDef
	ch      chan Delta
	ws      *websocket.Conn

	closeOnce sync.Once
}

// Channel returns the in-process delivery channel. Closed when the
// subscription is closed.
func (s *Subscription) Channel() <-chan Delta { return s.ch }

// Close stops delivery. Safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.ch)
		if s.ws != nil {
			_ = s.ws.Close()
		}
	})
}

func (s *Subscription) deliver(d Delta, log logging.Logger) {
	select {
	case s.ch <- d:
	default:
		log.Warn("subscription channel full, dropping delta", logging.Count(len(d.Bindings)))
	}
	if s.ws != nil {
		if err := s.ws.WriteJSON(d); err != nil {
			log.Warn("subscription websocket write failed", logging.Error(err))
		}
	}
}

// Hub tracks every live subscription against one Manager and
// re-evaluates them on Publish. cmd/mewd's commit handler calls
// Kernel.PublishChanges (which calls Publish) after a successful commit,
// once the write lock is released.
type Hub struct {
	mgr *txn.Manager
	log logging.Logger

	mu   sync.Mutex
	subs map[string]*Subscription
	next int
}

func NewHub(mgr *txn.Manager, log logging.Logger) *Hub {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Hub{mgr: mgr, log: log, subs: make(map[string]*Subscription)}
}

// Subscribe registers p for delta delivery. ws is optional; when set,
// every Delta is also pushed over it as JSON (the cmd/mewd HTTP front
// end's websocket upgrade path).
func (h *Hub) Subscribe(p *registry.PatternDef, ws *websocket.Conn) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	sub := &Subscription{
		id:      fmt.Sprintf("sub-%d", h.next),
		pattern: p,
		ch:      make(chan Delta, 16),
		ws:      ws,
	}
	h.subs[sub.id] = sub
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub.id)
	h.mu.Unlock()
	sub.Close()
}

// Publish re-evaluates every live subscription's pattern against the
// Manager's current committed state and delivers a Delta to each. It
// opens and immediately discards a throwaway transaction as its read
// view, so it waits for and briefly holds the writer slot; it does not
// use pkg/kernel's ReadView (pkg/kernel imports this package).
func (h *Hub) Publish() {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	tx := h.mgr.Begin()
	defer tx.Rollback()
	reg := tx.Registry()

	for _, sub := range subs {
		plan, err := pattern.Compile(sub.pattern, reg, tx)
		if err != nil {
			h.log.Warn("subscription re-compile failed", logging.Error(err))
			continue
		}
		bindings, err := pattern.Execute(plan, tx, reg)
		if err != nil {
			h.log.Warn("subscription re-evaluation failed", logging.Error(err))
			continue
		}
		sub.deliver(Delta{Bindings: bindings}, h.log)
	}
}
