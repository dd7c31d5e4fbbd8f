//go:build !linux

package cgroup

// CPUQuota is a no-op off Linux: no cgroup, no limit.
func CPUQuota() (limited bool, detail string) {
	return false, "no cgroup support on this platform"
}
