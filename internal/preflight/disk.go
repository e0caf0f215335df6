package preflight

import (
	"fmt"
	"syscall"
)

// Snapshot rewrites are atomic temp-then-rename, so the state dir
// briefly holds two full copies of the index. The thresholds leave room
// for that plus SQLite WAL growth.
const (
	minDiskBytes = 100 * 1024 * 1024
	lowDiskBytes = 500 * 1024 * 1024
)

// CheckDiskSpace verifies the filesystem holding path has headroom for
// the snapshot and the record store.
func (c *Checker) CheckDiskSpace(path string) CheckResult {
	result := CheckResult{Name: "disk_space", Required: true}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to check disk space: %v", err)
		return result
	}

	free := stat.Bavail * uint64(stat.Bsize)
	result.Message = fmt.Sprintf("%s free (minimum: %s)", formatBytes(free), formatBytes(minDiskBytes))

	switch {
	case free < minDiskBytes:
		result.Status = StatusFail
		result.Details = "The snapshot and record store need headroom to rewrite atomically"
	case free < lowDiskBytes:
		result.Status = StatusWarn
		result.Details = "Snapshot rewrites may fail once the index grows"
	default:
		result.Status = StatusPass
	}
	return result
}

func formatBytes(n uint64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
		tb = 1 << 40
	)
	switch {
	case n >= tb:
		return fmt.Sprintf("%.1f TB", float64(n)/tb)
	case n >= gb:
		return fmt.Sprintf("%.1f GB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.1f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
