package ghostfs

import "time"

// MountOptions carries the few mount-time parameters GhostFS needs beyond
// the transport itself. There is no config-file layer (spec.md's Non-goals
// exclude per-entry timestamps and any permission model beyond fixed
// owner read/write), so this is a small value struct rather than a parsed
// configuration format — the same role dargueta-disko's MountFlags
// bitmask plays for its drivers.
type MountOptions struct {
	// UID is reported as the owner of every file and directory.
	UID uint32
	// GID is reported as the group owner of every file and directory.
	GID uint32
	// MountTime is reported as every file's access/modify/change time,
	// since spec.md's Non-goals exclude per-entry timestamps.
	MountTime time.Time
}
