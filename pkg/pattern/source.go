// Package pattern compiles PatternDefs into a join-ordered plan, executes
// that plan against a DataSource to produce bindings, and evaluates the
// Expr tree shared by constraint conditions, rule triggers, and query
// WHERE clauses (§4.4).
//
// Grounded on the teacher's query engine: `pkg/query/ast.go` for the
// pattern/clause shape, `pkg/query/optimizer.go` for the sequential
// rule-application optimizer idiom (`applyIndexSelection`,
// `applyJoinOrdering`) and its `ExecutionStep` closed-interface plan
// representation, and `pkg/query/executor.go` for the step-by-step
// binding-set execution loop.
package pattern

import "github.com/mewdb/mew/pkg/store"

// DataSource is everything a plan needs to read, kept as a narrow
// interface so both a plain ReadView (queries) and a transaction's
// buffered overlay (mutation validation, rule triggering, §4.8 "reads
// see buffer first, then the BEGIN snapshot") can serve it without this
// package depending on pkg/txn.
type DataSource interface {
	GetNode(id store.EntityId) (*store.Node, bool)
	GetEdge(id store.EntityId) (*store.Edge, bool)

	NodesByType(t store.TypeId) []store.EntityId
	EdgesByType(t store.EdgeTypeId) []store.EntityId

	// AttrLookup returns entities (nodes or edges) whose attr holds v,
	// per the ByAttr/UniqueAttr indexes (§4.2). Callers intersect with a
	// type/edge-type filter since the index itself is untyped.
	AttrLookup(attr store.AttrId, v store.Value) []store.EntityId
	AttrRange(attr store.AttrId, lo, hi store.Value) []store.EntityId

	// EdgesByTarget returns every edge naming target at any position
	// (§4.2 EdgeByTarget), used for EdgeScanByTarget and transitive
	// expansion.
	EdgesByTarget(target store.EntityId) []store.EntityId

	AllNodeIds() []store.EntityId
	AllEdgeIds() []store.EntityId

	// Cardinality estimates back over for join-order selection (§4.4.1).
	TypeCount(t store.TypeId) int
	EdgeTypeCount(t store.EdgeTypeId) int
}
