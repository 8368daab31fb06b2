// Package session implements the §6.2 contract between the kernel and
// everything outside it (DSL REPL, HTTP front end, editor, LLM driver):
// begin_session/run/begin_transaction/commit/rollback/savepoint/
// rollback_to_savepoint/load_ontology/subscribe. Every entry point here
// takes an already-compiled Statement or Layer 0 bundle — no parsing,
// name resolution, or authorization policy lives in this package.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mewdb/mew/pkg/logging"
	"github.com/mewdb/mew/pkg/metrics"
	"github.com/mewdb/mew/pkg/mutation"
	"github.com/mewdb/mew/pkg/pattern"
	"github.com/mewdb/mew/pkg/rule"
	"github.com/mewdb/mew/pkg/store"
	"github.com/mewdb/mew/pkg/txn"
)

var (
	ErrNoActiveTransaction = fmt.Errorf("session: no active transaction")
	ErrTransactionActive   = fmt.Errorf("session: a transaction is already active on this session")
)

// SessionHandle is what begin_session hands back: an opaque id plus the
// single transaction (if any) the session currently has open. A handle
// is not safe for concurrent use from two goroutines at once — the
// kernel serializes on Manager.writeMu anyway, so callers are expected
// to run one statement at a time per session, matching the teacher's
// one-connection-one-request-at-a-time HTTP handler discipline.
type SessionHandle struct {
	id      string
	mgr     *txn.Manager
	limits  rule.Limits
	metrics *metrics.Registry
	log     logging.Logger

	// Claims holds whatever a TokenVerifier surfaced for the bearer
	// token this session began with, if any. Nil unless BeginSession
	// was called with both a verifier and a non-empty token. The
	// kernel never inspects these claims itself; they exist only for
	// an external authz collaborator to read back off the handle.
	Claims jwt.MapClaims

	mu sync.Mutex
	tx *txn.Transaction
}

// New creates a session bound to mgr. metrics and log may be nil, in
// which case metrics are not recorded and logging.NopLogger is used.
func New(mgr *txn.Manager, limits rule.Limits, m *metrics.Registry, log logging.Logger) *SessionHandle {
	if log == nil {
		log = logging.NewNopLogger()
	}
	id := uuid.NewString()
	return &SessionHandle{
		id:      id,
		mgr:     mgr,
		limits:  limits,
		metrics: m,
		log:     log.With(logging.String("session_id", id)),
	}
}

// BeginSession is New plus the optional bearer-token verification hook
// named in §1/§6.2: when verifier is non-nil and token is non-empty, its
// signature is checked and its claims are attached to the returned
// handle as SessionHandle.Claims. A verification failure prevents the
// session from being created at all.
func BeginSession(mgr *txn.Manager, limits rule.Limits, m *metrics.Registry, log logging.Logger, verifier *TokenVerifier, token string) (*SessionHandle, error) {
	s := New(mgr, limits, m, log)
	if verifier == nil || token == "" {
		return s, nil
	}
	claims, err := verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	s.Claims = claims
	s.log.Debug("begin_session: token verified")
	return s, nil
}

func (s *SessionHandle) ID() string { return s.id }

// BeginTransaction opens a new transaction on this session (§4.8
// BEGIN). Returns ErrTransactionActive if one is already open.
func (s *SessionHandle) BeginTransaction() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return ErrTransactionActive
	}
	s.tx = s.mgr.Begin()
	if s.metrics != nil {
		s.metrics.RecordTxnBegin()
	}
	s.log.Debug("begin_transaction", logging.TxnID(s.tx.ID()))
	return nil
}

// Commit drives the active transaction through the commit pipeline
// (§4.8) and clears it from the session. triggered names manually
// triggered rules (§4.6) to seed the fixpoint alongside every auto rule.
func (s *SessionHandle) Commit(triggered ...store.RuleId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return ErrNoActiveTransaction
	}
	start := time.Now()
	err := s.tx.Commit(s.limits, triggered)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordTxnRollback()
		}
		s.log.Warn("commit failed", logging.TxnID(s.tx.ID()), logging.Error(err))
		s.tx = nil
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordTxnCommit(time.Since(start))
	}
	s.log.Debug("commit", logging.TxnID(s.tx.ID()), logging.Latency(time.Since(start)))
	s.tx = nil
	return nil
}

// Rollback discards the active transaction's buffered changes.
func (s *SessionHandle) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return ErrNoActiveTransaction
	}
	err := s.tx.Rollback()
	if s.metrics != nil {
		s.metrics.RecordTxnRollback()
	}
	s.log.Debug("rollback", logging.TxnID(s.tx.ID()))
	s.tx = nil
	return err
}

// Savepoint pushes a named savepoint onto the active transaction's
// buffer stack (§4.10).
func (s *SessionHandle) Savepoint(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return ErrNoActiveTransaction
	}
	s.tx.Savepoint(name)
	if s.metrics != nil {
		s.metrics.RecordSavepoint()
	}
	return nil
}

// RollbackToSavepoint restores the active transaction's buffer to the
// state it had at the named savepoint.
func (s *SessionHandle) RollbackToSavepoint(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return ErrNoActiveTransaction
	}
	return s.tx.RollbackToSavepoint(name)
}

// withTxn runs fn against the session's active transaction, opening an
// implicit auto-commit transaction around it (and committing or rolling
// it back afterward) when the caller hasn't already called
// BeginTransaction — the same "bare statement" convenience the teacher's
// HTTP handlers give single requests outside an explicit BEGIN/COMMIT.
func (s *SessionHandle) withTxn(fn func(*txn.Transaction) error) error {
	s.mu.Lock()
	if s.tx != nil {
		tx := s.tx
		s.mu.Unlock()
		return fn(tx)
	}
	s.mu.Unlock()

	if err := s.BeginTransaction(); err != nil {
		return err
	}
	if err := fn(s.tx); err != nil {
		_ = s.Rollback()
		return err
	}
	return s.Commit()
}

// RunResult is what Run returns: a MATCH statement populates Bindings, a
// mutating statement populates EntityId with whatever it spawned or
// linked (zero otherwise).
type RunResult struct {
	Bindings []pattern.Binding
	EntityId store.EntityId
}

// Run executes a single compiled statement (§6.2 run). MATCH is
// read-only and returns every binding found against the transaction's
// buffer-overlaid view; SPAWN/KILL/LINK/UNLINK/SET buffer their effect
// for the next Commit.
func (s *SessionHandle) Run(stmt Statement) (RunResult, error) {
	var result RunResult
	err := s.withTxn(func(tx *txn.Transaction) error {
		reg := tx.Registry()
		switch v := stmt.(type) {
		case MatchStatement:
			start := time.Now()
			plan, err := pattern.Compile(v.Pattern, reg, tx)
			if err != nil {
				if s.metrics != nil {
					s.metrics.RecordPatternExecution("error", time.Since(start), 0)
				}
				return err
			}
			bindings, err := pattern.Execute(plan, tx, reg)
			status := "ok"
			if err != nil {
				status = "error"
			}
			if s.metrics != nil {
				s.metrics.RecordPatternExecution(status, time.Since(start), len(bindings))
			}
			if err != nil {
				return err
			}
			result.Bindings = bindings
			return nil

		case SpawnStatement:
			id, err := mutation.Spawn(tx, reg, v.TypeId, v.Attrs)
			if err != nil {
				return err
			}
			result.EntityId = id
			return nil

		case KillStatement:
			if v.ID.IsEdge() {
				return mutation.KillEdge(tx, reg, v.ID)
			}
			return mutation.KillNode(tx, reg, v.ID)

		case LinkStatement:
			id, err := mutation.Link(tx, reg, v.EdgeType, v.Targets, v.Attrs)
			if err != nil {
				return err
			}
			result.EntityId = id
			return nil

		case UnlinkStatement:
			return mutation.Unlink(tx, reg, v.ID)

		case SetStatement:
			return mutation.Set(tx, reg, v.ID, v.Attr, v.Value)

		default:
			return fmt.Errorf("session: unknown statement type %T", stmt)
		}
	})

	return result, err
}

// LoadOntology replaces the bound Registry with one built from bundle
// (§6.1 "Ontologies", §9 ambient YAML path). Existing transactions keep
// the Registry pointer they captured at Begin (§9.4); new transactions
// see the new Registry as soon as this returns.
func (s *SessionHandle) LoadOntology(bundle Layer0Bundle) error {
	reg, err := bundle.Build()
	if err != nil {
		return err
	}
	s.mgr.SetRegistry(reg)
	s.log.Info("load_ontology", logging.Count(len(bundle.NodeTypes)))
	return nil
}
