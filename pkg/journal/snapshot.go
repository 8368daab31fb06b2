package journal

import "io"

// SnapshotStore archives a point-in-time dump of Store state (taken by
// pkg/kernel's Kernel.Snapshot; the Registry is not included), which
// Kernel.Restore loads back into a Store. Kernel.Open does not read
// snapshots: recovery replays the journal from its start. Kept narrow so the
// journal package stays storage-backend agnostic: LocalSnapshotStore and
// S3SnapshotStore are two interchangeable implementations.
type SnapshotStore interface {
	Save(name string, r io.Reader) error
	Load(name string) (io.ReadCloser, error)
	List() ([]string, error)
}
