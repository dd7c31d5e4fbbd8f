//go:build linux

// Package cgroup probes whether the process runs under a CPU
// bandwidth limit. A throttled cgroup stalls the gauge mid-region and
// distorts every timing sample, so the sensor warns before
// calibrating.
package cgroup

import (
	"os"
	"strconv"
	"strings"
)

// CPUQuota reports whether a cgroup CPU bandwidth limit applies to
// this process, with a human-readable detail string. It checks the
// unified hierarchy's cpu.max first, then the v1 cfs_quota_us
// fallback. A missing controller means unlimited.
func CPUQuota() (limited bool, detail string) {
	// cgroup v2: "<quota|max> <period>"
	if b, err := os.ReadFile("/sys/fs/cgroup/cpu.max"); err == nil {
		fs := strings.Fields(string(b))
		if len(fs) == 2 && fs[0] != "max" {
			quota, _ := strconv.ParseInt(fs[0], 10, 64)
			period, _ := strconv.ParseInt(fs[1], 10, 64)
			if quota > 0 && period > 0 {
				return true, "cpu.max " + fs[0] + "/" + fs[1]
			}
		}
		return false, "cpu.max unlimited"
	}

	// cgroup v1: quota in us, -1 means unlimited.
	if b, err := os.ReadFile("/sys/fs/cgroup/cpu/cpu.cfs_quota_us"); err == nil {
		q := strings.TrimSpace(string(b))
		if v, err := strconv.ParseInt(q, 10, 64); err == nil && v > 0 {
			return true, "cfs_quota_us " + q
		}
		return false, "cfs quota unlimited"
	}

	return false, "no cgroup cpu controller"
}
