package ghostfs

// Mode bits used by Attr.Mode, trimmed from dargueta-disko's flags.go to
// just the handful GhostFS ever reports: spec.md §4.9 fixes every object
// to owner read/write, directories additionally get owner execute, and
// there is no notion of group/other permissions, setuid, sockets, etc.
const (
	modeIXUSR = 1 << 6
	modeIWUSR = 1 << 7
	modeIRUSR = 1 << 8
	modeIFDIR = 1 << 14
	modeIFREG = 1 << 15
)
