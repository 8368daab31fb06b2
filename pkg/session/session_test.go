package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mewdb/mew/pkg/index"
	"github.com/mewdb/mew/pkg/mutation"
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/rule"
	"github.com/mewdb/mew/pkg/store"
	"github.com/mewdb/mew/pkg/txn"
)

// nopJournal discards every record. Good enough for exercising the
// session surface without dragging in pkg/journal's file handling.
type nopJournal struct{}

func (nopJournal) BeginRecord(uint64) error                       { return nil }
func (nopJournal) AppendPrimitive(uint64, mutation.Primitive) error { return nil }
func (nopJournal) CommitRecord(uint64) error                       { return nil }

func buildTestRegistry(t *testing.T) (*registry.Registry, store.TypeId, store.AttrId) {
	t.Helper()
	b := registry.NewBuilder()
	name := b.AddAttribute("name", registry.Scalar(store.TypeString), true, false, false, nil)
	person := b.AddNodeType("Person", nil, []store.AttrId{name}, false, false)
	reg, err := b.Finish()
	if err != nil {
		t.Fatalf("building test registry: %v", err)
	}
	return reg, person, name
}

func newTestManager(t *testing.T) *txn.Manager {
	t.Helper()
	reg, _, _ := buildTestRegistry(t)
	return txn.NewManager(store.New(), index.New(), reg, nopJournal{})
}

func TestNewAssignsIDAndDefaults(t *testing.T) {
	mgr := newTestManager(t)
	s := New(mgr, rule.DefaultLimits(), nil, nil)
	if s.ID() == "" {
		t.Fatal("expected a non-empty session id")
	}
}

func TestBeginCommitTransaction(t *testing.T) {
	mgr := newTestManager(t)
	s := New(mgr, rule.DefaultLimits(), nil, nil)

	if err := s.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if err := s.BeginTransaction(); err != ErrTransactionActive {
		t.Fatalf("expected ErrTransactionActive, got %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := s.Commit(); err != ErrNoActiveTransaction {
		t.Fatalf("expected ErrNoActiveTransaction after commit, got %v", err)
	}
}

func TestRollback(t *testing.T) {
	mgr := newTestManager(t)
	s := New(mgr, rule.DefaultLimits(), nil, nil)

	if err := s.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if err := s.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if err := s.Rollback(); err != ErrNoActiveTransaction {
		t.Fatalf("expected ErrNoActiveTransaction, got %v", err)
	}
}

func TestSavepointRequiresActiveTransaction(t *testing.T) {
	mgr := newTestManager(t)
	s := New(mgr, rule.DefaultLimits(), nil, nil)

	if err := s.Savepoint("s1"); err != ErrNoActiveTransaction {
		t.Fatalf("expected ErrNoActiveTransaction, got %v", err)
	}

	if err := s.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if err := s.Savepoint("s1"); err != nil {
		t.Fatalf("Savepoint: %v", err)
	}
	_ = s.Rollback()
}

func TestRunSpawnAutoCommits(t *testing.T) {
	mgr := newTestManager(t)
	s := New(mgr, rule.DefaultLimits(), nil, nil)

	_, personType, nameAttr := buildTestRegistry(t)
	result, err := s.Run(SpawnStatement{
		TypeId: personType,
		Attrs:  map[store.AttrId]store.Value{nameAttr: store.String("Ada")},
	})
	if err != nil {
		t.Fatalf("Run(Spawn): %v", err)
	}
	if result.EntityId == 0 {
		t.Fatal("expected a non-zero entity id")
	}
	if s.tx != nil {
		t.Fatal("expected the implicit transaction to have auto-committed")
	}
}

func TestRunWithinExplicitTransaction(t *testing.T) {
	mgr := newTestManager(t)
	s := New(mgr, rule.DefaultLimits(), nil, nil)
	_, personType, nameAttr := buildTestRegistry(t)

	if err := s.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	_, err := s.Run(SpawnStatement{
		TypeId: personType,
		Attrs:  map[store.AttrId]store.Value{nameAttr: store.String("Grace")},
	})
	if err != nil {
		t.Fatalf("Run(Spawn): %v", err)
	}
	if s.tx == nil {
		t.Fatal("expected the explicit transaction to still be open")
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestRunUnknownStatement(t *testing.T) {
	mgr := newTestManager(t)
	s := New(mgr, rule.DefaultLimits(), nil, nil)

	if _, err := s.Run(nil); err == nil {
		t.Fatal("expected an error for a nil statement")
	}
}

func TestLoadOntologyRebindsRegistry(t *testing.T) {
	mgr := newTestManager(t)
	s := New(mgr, rule.DefaultLimits(), nil, nil)

	bundle := Layer0Bundle{
		Attributes: []AttrSpec{{Name: "title", Type: "string", Required: true}},
		NodeTypes:  []NodeSpec{{Name: "Book", Attributes: []string{"title"}}},
	}
	if err := s.LoadOntology(bundle); err != nil {
		t.Fatalf("LoadOntology: %v", err)
	}
	if _, ok := mgr.Registry().TypeByName("Book"); !ok {
		t.Fatal("expected the new registry to contain the Book node type")
	}
}

func TestBeginSessionWithoutVerifierSkipsVerification(t *testing.T) {
	mgr := newTestManager(t)
	s, err := BeginSession(mgr, rule.DefaultLimits(), nil, nil, nil, "some-token")
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if s.Claims != nil {
		t.Fatal("expected no claims without a verifier")
	}
}

func TestBeginSessionVerifiesToken(t *testing.T) {
	mgr := newTestManager(t)
	secret := []byte("test-secret")

	claims := jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(time.Hour).Unix()}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(secret)
	if err != nil {
		t.Fatalf("signing fixture token: %v", err)
	}

	verifier := NewTokenVerifier(func(*jwt.Token) (interface{}, error) { return secret, nil })

	s, err := BeginSession(mgr, rule.DefaultLimits(), nil, nil, verifier, signed)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if s.Claims["sub"] != "alice" {
		t.Fatalf("expected sub claim %q, got %v", "alice", s.Claims["sub"])
	}
}

func TestBeginSessionRejectsBadToken(t *testing.T) {
	mgr := newTestManager(t)
	verifier := NewTokenVerifier(func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })

	if _, err := BeginSession(mgr, rule.DefaultLimits(), nil, nil, verifier, "not-a-jwt"); err == nil {
		t.Fatal("expected an error for a malformed token")
	}
}

func TestHubPublishDeliversDelta(t *testing.T) {
	mgr := newTestManager(t)
	s := New(mgr, rule.DefaultLimits(), nil, nil)
	_, personType, nameAttr := buildTestRegistry(t)

	patDef := &registry.PatternDef{
		NodeVars: []registry.NodeVarDecl{{Name: "p", Type: registry.Named(personType)}},
	}

	hub := NewHub(mgr, nil)
	sub := hub.Subscribe(patDef, nil)
	defer hub.Unsubscribe(sub)

	if _, err := s.Run(SpawnStatement{
		TypeId: personType,
		Attrs:  map[store.AttrId]store.Value{nameAttr: store.String("Lin")},
	}); err != nil {
		t.Fatalf("Run(Spawn): %v", err)
	}

	hub.Publish()

	select {
	case delta := <-sub.Channel():
		if len(delta.Bindings) == 0 {
			t.Fatal("expected at least one binding after spawning a Person")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a delta")
	}
}
