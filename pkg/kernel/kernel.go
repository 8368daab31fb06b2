// Package kernel wires Store, Index, Registry, Txn, Journal, and Rule
// into the single component everything else in this repo talks to: the
// entry point a front end (pkg/session, cmd/mewd) opens once per process
// and shuts down once on exit.
//
// Grounded on the teacher's `storage.NewGraphStorageWithConfig`
// (`pkg/storage/storage.go`): same "create data dir, open the WAL
// variant the config asks for, recover, hand back one struct" shape,
// generalized from a single storage engine to the full component graph
// §5 names.
package kernel

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mewdb/mew/pkg/config"
	"github.com/mewdb/mew/pkg/index"
	"github.com/mewdb/mew/pkg/journal"
	"github.com/mewdb/mew/pkg/logging"
	"github.com/mewdb/mew/pkg/metrics"
	"github.com/mewdb/mew/pkg/mutation"
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/rule"
	"github.com/mewdb/mew/pkg/session"
	"github.com/mewdb/mew/pkg/store"
	"github.com/mewdb/mew/pkg/txn"
)

// journalHandle is satisfied by both journal.Journal and
// journal.CompressedJournal — kept local so Kernel can hold either
// concrete type, plus the recovery/shutdown methods neither's shared
// txn.Journal interface needs, behind one field.
type journalHandle interface {
	txn.Journal
	journal.RecordReader
	Close() error
	Truncate() error
	CurrentLSN() uint64
}

// noopJournal discards every record, backing config.JournalModeNone: a
// kernel that trades durability for not paying any WAL I/O at all,
// useful for ephemeral test instances.
type noopJournal struct{}

func (noopJournal) BeginRecord(uint64) error                        { return nil }
func (noopJournal) AppendPrimitive(uint64, mutation.Primitive) error { return nil }
func (noopJournal) CommitRecord(uint64) error                       { return nil }
func (noopJournal) ReadAll() ([]journal.Record, error)               { return nil, nil }
func (noopJournal) Close() error                                     { return nil }
func (noopJournal) Truncate() error                                  { return nil }
func (noopJournal) CurrentLSN() uint64                               { return 0 }

// Kernel is the opened, running instance: committed state (Store,
// Index), the current Registry, the single-writer Manager, the
// write-ahead journal, and the ambient collaborators (metrics, logging,
// subscription hub) every session shares.
type Kernel struct {
	cfg config.KernelConfig

	store   *store.Store
	idx     *index.Index
	journal journalHandle
	mgr     *txn.Manager

	metrics *metrics.Registry
	log     logging.Logger
	hub     *session.Hub

	closeOnce sync.Once
}

// Open starts a kernel rooted at cfg.DataDir: it creates the directory
// if needed, opens the journal in the configured mode, replays it into a
// fresh Store/Index (§4.9 recovery), and returns the running Kernel. An
// empty ontology (no node/edge types) is bound until a caller loads one
// via LoadOntology.
func Open(cfg config.KernelConfig, log logging.Logger) (*Kernel, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, classify("kernel.Open", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, classify("kernel.Open", &KernelError{Kind: IOError, Op: "create data dir", Cause: err})
	}

	s := store.New()
	idx := index.New()

	jh, err := openJournal(cfg)
	if err != nil {
		return nil, classify("kernel.Open", err)
	}

	start := time.Now()
	records, err := jh.ReadAll()
	if err != nil {
		_ = jh.Close()
		return nil, classify("kernel.Open", &KernelError{Kind: RecoveryError, Cause: err})
	}
	if len(records) > 0 {
		if err := journal.Recover(journalRecords(records), s, idx); err != nil {
			_ = jh.Close()
			return nil, classify("kernel.Open", &KernelError{Kind: RecoveryError, Cause: err})
		}
		log.Info("recovered from journal", logging.LSN(jh.CurrentLSN()), logging.Latency(time.Since(start)))
	}

	reg := registry.New()
	mgr := txn.NewManager(s, idx, reg, jh)

	k := &Kernel{
		cfg:     cfg,
		store:   s,
		idx:     idx,
		journal: jh,
		mgr:     mgr,
		log:     log,
	}
	if cfg.Metrics.Enabled {
		k.metrics = metrics.DefaultRegistry()
	}
	k.hub = session.NewHub(mgr, log)
	return k, nil
}

// journalRecords lets an already-read []journal.Record slice serve
// journal.Recover's RecordReader parameter, so Open only reads the log
// once (the same read tells it whether there is anything to replay)
// instead of twice.
type journalRecords []journal.Record

func (r journalRecords) ReadAll() ([]journal.Record, error) { return r, nil }

func openJournal(cfg config.KernelConfig) (journalHandle, error) {
	path := filepath.Join(cfg.DataDir, "journal.log")
	switch cfg.Journal.Mode {
	case config.JournalModeCompressed:
		j, err := journal.OpenCompressed(path)
		if err != nil {
			return nil, &KernelError{Kind: IOError, Op: "open compressed journal", Cause: err}
		}
		return j, nil
	case config.JournalModeNone:
		return noopJournal{}, nil
	default:
		j, err := journal.Open(path)
		if err != nil {
			return nil, &KernelError{Kind: IOError, Op: "open journal", Cause: err}
		}
		return j, nil
	}
}

// Close shuts the kernel down, flushing and closing the journal. Safe to
// call more than once.
func (k *Kernel) Close() error {
	var err error
	k.closeOnce.Do(func() {
		err = k.journal.Close()
	})
	return err
}

// NewSession opens a session bound to this kernel's Manager, rule
// limits, metrics, and logger (§6.2 begin_session).
func (k *Kernel) NewSession() *session.SessionHandle {
	return session.New(k.mgr, k.cfg.Rules.Limits(), k.metrics, k.log)
}

// NewSessionWithToken is NewSession plus the optional bearer-token
// verification hook.
func (k *Kernel) NewSessionWithToken(verifier *session.TokenVerifier, token string) (*session.SessionHandle, error) {
	return session.BeginSession(k.mgr, k.cfg.Rules.Limits(), k.metrics, k.log, verifier, token)
}

// ReadView returns a snapshot read handle against currently committed
// state, for callers (such as queries) that don't need to buffer
// mutations and shouldn't have to wait on the writer slot to read.
func (k *Kernel) ReadView() *ReadView {
	return newReadView(k.store, k.idx)
}

// Registry returns the currently bound Registry.
func (k *Kernel) Registry() *registry.Registry { return k.mgr.Registry() }

// LoadOntology rebinds the kernel's Registry (§6.1, §9.4).
func (k *Kernel) LoadOntology(bundle session.Layer0Bundle) error {
	reg, err := bundle.Build()
	if err != nil {
		return classify("kernel.LoadOntology", err)
	}
	k.mgr.SetRegistry(reg)
	return nil
}

// Subscribe registers a pattern for delta delivery against this kernel's
// committed state (§6.2 subscribe).
func (k *Kernel) Subscribe(p *registry.PatternDef) *session.Subscription {
	return k.hub.Subscribe(p, nil)
}

// SubscribeWithSocket is Subscribe plus a websocket connection that
// receives every Delta as JSON alongside the in-process channel, for
// cmd/mewd's subscribe front end.
func (k *Kernel) SubscribeWithSocket(p *registry.PatternDef, ws *websocket.Conn) *session.Subscription {
	return k.hub.Subscribe(p, ws)
}

// PublishChanges re-evaluates every live subscription. cmd/mewd calls
// this once per commit, after the writer slot is released.
func (k *Kernel) PublishChanges() { k.hub.Publish() }

// RuleLimits returns the configured rule.Limits, for callers (cmd/mewd,
// cmd/mew-inspect) that need it outside a session.
func (k *Kernel) RuleLimits() rule.Limits { return k.cfg.Rules.Limits() }

// Metrics returns the kernel's Prometheus registry, or nil if metrics
// were not enabled in configuration.
func (k *Kernel) Metrics() *metrics.Registry { return k.metrics }

// WriterAvailable reports whether the single-writer transaction slot is
// currently free, for a health check that wants to ask "is the writer
// stuck" without opening a transaction of its own.
func (k *Kernel) WriterAvailable() bool { return k.mgr.WriterAvailable() }

// JournalReachable probes the write-ahead journal by reading its current
// LSN; this never writes, so it's safe to call from a request-serving
// goroutine without contending with the writer.
func (k *Kernel) JournalReachable() error {
	k.journal.CurrentLSN()
	return nil
}
