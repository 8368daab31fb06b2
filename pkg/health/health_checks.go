package health

import "time"

// Ready-made checks for the kernel daemon. A single-writer, single-process
// kernel has no replication or cluster membership to probe, so unlike the
// teacher's equivalents this file carries only the checks that have
// something local to ask: the write path, the journal store, and the host.

// SimpleCheck creates a health check that always reports healthy, for
// components whose mere presence is the signal (e.g. "process is up").
func SimpleCheck(name string) Check {
	return Check{
		Name:        name,
		Status:      StatusHealthy,
		LastChecked: time.Now(),
	}
}

// WriterCheck reports whether the single-writer transaction manager can
// still accept a new transaction, via a caller-supplied probe. tryBegin
// returns an error when the writer slot is not free (cmd/mewd's probe is
// a non-blocking check of Kernel.WriterAvailable).
func WriterCheck(tryBegin func() error) CheckFunc {
	return func() Check {
		check := Check{Name: "writer"}

		if err := tryBegin(); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "accepting transactions"
		}

		return check
	}
}

// JournalCheck reports whether the write-ahead journal is reachable for
// appends, via a caller-supplied probe (typically a zero-length append or a
// stat of the active segment file).
func JournalCheck(probe func() error) CheckFunc {
	return func() Check {
		check := Check{Name: "journal"}

		if err := probe(); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "appendable"
		}

		return check
	}
}

// DiskSpaceCheck creates a health check for disk space
func DiskSpaceCheck(getUsage func() (used, total uint64)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "disk_space",
			Details: make(map[string]any),
		}

		used, total := getUsage()

		usagePercent := float64(used) / float64(total) * 100

		check.Details["used_bytes"] = used
		check.Details["total_bytes"] = total
		check.Details["usage_percent"] = usagePercent

		if usagePercent > 95 {
			check.Status = StatusUnhealthy
			check.Message = "Critical disk space"
		} else if usagePercent > 80 {
			check.Status = StatusDegraded
			check.Message = "Low disk space"
		} else {
			check.Status = StatusHealthy
			check.Message = "Sufficient disk space"
		}

		return check
	}
}

// MemoryCheck creates a health check for memory usage
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()

		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		// Consider degraded if allocated memory > 90% of system memory
		usagePercent := float64(alloc) / float64(sys) * 100

		if usagePercent > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}
