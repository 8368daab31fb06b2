package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mewdb/mew/pkg/kernel"
	"github.com/mewdb/mew/pkg/logging"
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/session"
	"github.com/mewdb/mew/pkg/store"
)

// sessionTable holds every open SessionHandle by id, since HTTP gives us
// one request per call rather than a long-lived connection to hang a
// session off of (a persistent DSL REPL or websocket client keeps its id
// across requests instead).
type sessionTable struct {
	mu   sync.Mutex
	byID map[string]*session.SessionHandle
}

func newSessionTable() *sessionTable {
	return &sessionTable{byID: make(map[string]*session.SessionHandle)}
}

func (t *sessionTable) put(s *session.SessionHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID[s.ID()] = s
}

func (t *sessionTable) get(id string) (*session.SessionHandle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.byID[id]
	return s, ok
}

func (t *sessionTable) drop(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byID, id)
}

// api bundles the running Kernel and its in-memory session table behind
// the HTTP handlers below. Each handler does the minimum JSON
// marshaling needed to drive pkg/session's already-compiled-statement
// contract — no DSL parsing, authorization, or query planning lives
// here, matching §6's "front ends talk to the kernel only through these
// entry points" boundary.
type api struct {
	k        *kernel.Kernel
	sessions *sessionTable
	verifier *session.TokenVerifier
	log      logging.Logger
	upgrader websocket.Upgrader
}

func newAPI(k *kernel.Kernel, verifier *session.TokenVerifier, log logging.Logger) *api {
	return &api{
		k:        k,
		sessions: newSessionTable(),
		verifier: verifier,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps a kernel.KernelError's Kind to an HTTP status; anything
// else (a bug, not a rejected request) is a 500.
func statusFor(err error) int {
	var ke *kernel.KernelError
	if !errors.As(err, &ke) {
		return http.StatusInternalServerError
	}
	switch ke.Kind {
	case kernel.NotFoundError:
		return http.StatusNotFound
	case kernel.SyntaxError, kernel.NameResolutionError, kernel.TypeError,
		kernel.RequiredError, kernel.SchemaError:
		return http.StatusBadRequest
	case kernel.UniquenessError, kernel.ConstraintError, kernel.ReferentialError:
		return http.StatusConflict
	case kernel.RuleLimitError:
		return http.StatusUnprocessableEntity
	case kernel.TransactionError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleBeginSession implements begin_session (§6.2): optional bearer
// token in the Authorization header, verified if a TokenVerifier was
// configured.
func (a *api) handleBeginSession(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	s, err := a.k.NewSessionWithToken(a.verifier, token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	a.sessions.put(s)
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": s.ID()})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

func (a *api) session(w http.ResponseWriter, r *http.Request, id string) (*session.SessionHandle, bool) {
	s, ok := a.sessions.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no such session"))
		return nil, false
	}
	return s, true
}

func (a *api) handleBeginTransaction(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := a.session(w, r, id)
	if !ok {
		return
	}
	if err := s.BeginTransaction(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "began"})
}

func (a *api) handleCommit(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := a.session(w, r, id)
	if !ok {
		return
	}
	if err := s.Commit(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	a.k.PublishChanges()
	writeJSON(w, http.StatusOK, map[string]string{"status": "committed"})
}

func (a *api) handleRollback(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := a.session(w, r, id)
	if !ok {
		return
	}
	if err := s.Rollback(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rolled_back"})
}

type savepointReq struct {
	Name string `json:"name"`
}

func (a *api) handleSavepoint(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := a.session(w, r, id)
	if !ok {
		return
	}
	var req savepointReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Savepoint(req.Name); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (a *api) handleRollbackToSavepoint(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := a.session(w, r, id)
	if !ok {
		return
	}
	var req savepointReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.RollbackToSavepoint(req.Name); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rolled_back_to_savepoint"})
}

// runReq is the wire shape for run: exactly one of the statement fields
// is set, matching session.Statement's closed sum type.
type runReq struct {
	Spawn *struct {
		TypeId store.TypeId      `json:"type_id"`
		Attrs  map[string]any    `json:"attrs"`
	} `json:"spawn,omitempty"`
	Kill *struct {
		ID store.EntityId `json:"id"`
	} `json:"kill,omitempty"`
	Link *struct {
		EdgeType store.EdgeTypeId `json:"edge_type"`
		Targets  []store.EntityId `json:"targets"`
		Attrs    map[string]any   `json:"attrs"`
	} `json:"link,omitempty"`
	Unlink *struct {
		ID store.EntityId `json:"id"`
	} `json:"unlink,omitempty"`
	Set *struct {
		ID    store.EntityId `json:"id"`
		Attr  string         `json:"attr"`
		Value any            `json:"value"`
	} `json:"set,omitempty"`
	Match *struct {
		Pattern *registry.PatternDef `json:"pattern"`
	} `json:"match,omitempty"`
}

type runResp struct {
	EntityId store.EntityId   `json:"entity_id,omitempty"`
	Bindings []map[string]any `json:"bindings,omitempty"`
}

func (a *api) handleRun(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := a.session(w, r, id)
	if !ok {
		return
	}
	var req runReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	reg := a.k.Registry()

	stmt, err := req.toStatement(reg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.Run(stmt)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp := runResp{EntityId: result.EntityId}
	for _, b := range result.Bindings {
		row := make(map[string]any, len(b))
		for name, id := range b {
			row[name] = uint64(id)
		}
		resp.Bindings = append(resp.Bindings, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (req runReq) toStatement(reg *registry.Registry) (session.Statement, error) {
	switch {
	case req.Spawn != nil:
		attrs, err := decodeAttrs(reg, req.Spawn.Attrs)
		if err != nil {
			return nil, err
		}
		return session.SpawnStatement{TypeId: req.Spawn.TypeId, Attrs: attrs}, nil
	case req.Kill != nil:
		return session.KillStatement{ID: req.Kill.ID}, nil
	case req.Link != nil:
		attrs, err := decodeAttrs(reg, req.Link.Attrs)
		if err != nil {
			return nil, err
		}
		return session.LinkStatement{EdgeType: req.Link.EdgeType, Targets: req.Link.Targets, Attrs: attrs}, nil
	case req.Unlink != nil:
		return session.UnlinkStatement{ID: req.Unlink.ID}, nil
	case req.Set != nil:
		attrID, ok := reg.AttrByName(req.Set.Attr)
		if !ok {
			return nil, errors.New("unknown attribute " + req.Set.Attr)
		}
		def, err := reg.Attribute(attrID)
		if err != nil {
			return nil, err
		}
		val, err := coerceValue(def.Type, req.Set.Value)
		if err != nil {
			return nil, err
		}
		return session.SetStatement{ID: req.Set.ID, Attr: attrID, Value: val}, nil
	case req.Match != nil:
		return session.MatchStatement{Pattern: req.Match.Pattern}, nil
	default:
		return nil, errors.New("run: no statement field set")
	}
}

// handleLoadOntology decodes the body straight into session.Layer0Bundle.
// Its fields carry only yaml tags, so encoding/json matches keys against
// the Go field names (e.g. "NodeTypes", not the YAML "node_types").
func (a *api) handleLoadOntology(w http.ResponseWriter, r *http.Request) {
	var bundle session.Layer0Bundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.k.LoadOntology(bundle); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded"})
}

// handleSubscribe upgrades to a websocket and registers a pattern with
// the kernel's Hub (§6.2 subscribe); every PublishChanges call after
// that pushes a Delta as JSON over the socket until the client
// disconnects.
func (a *api) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn("subscribe: upgrade failed", logging.Error(err))
		return
	}

	var pat registry.PatternDef
	if err := conn.ReadJSON(&pat); err != nil {
		a.log.Warn("subscribe: failed to read pattern", logging.Error(err))
		_ = conn.Close()
		return
	}

	sub := a.k.SubscribeWithSocket(&pat, conn)
	go func() {
		// Drain the in-process channel so it does not fill up and make
		// deliver drop deltas; the socket write itself happens inside
		// Subscription.deliver. The loop ends when the subscription is
		// closed.
		for range sub.Channel() {
		}
	}()
}
