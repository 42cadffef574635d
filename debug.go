package ghostfs

import (
	"fmt"
	"strings"

	"github.com/dargueta/ghostfs/errors"
)

// Debug renders a human-readable recursive dump of the mounted tree,
// rooted at "/", along with the cluster count and free-cluster count. It exists
// purely as a diagnostic aid; nothing in the package depends on its
// output format.
func (fs *Filesystem) Debug() (string, errors.DriverError) {
	var buf strings.Builder

	fmt.Fprintf(&buf, "cluster_count=%d free=%d\n", fs.clusterCount, fs.alloc.FreeClusters())
	fmt.Fprintln(&buf, "/")
	if err := fs.debugDir(&buf, 0, 1); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (fs *Filesystem) debugDir(buf *strings.Builder, clusterIdx uint16, depth int) errors.DriverError {
	indent := strings.Repeat("  ", depth)

	it := fs.initDir(clusterIdx)
	for {
		e, err := it.entry()
		if err != nil {
			return err
		}
		if e.Used() {
			if e.IsDir() {
				fmt.Fprintf(buf, "%s%s/\n", indent, e.Filename)
				if err := fs.debugDir(buf, e.Cluster, depth+1); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(buf, "%s%s (%d bytes)\n", indent, e.Filename, e.ByteSize())
			}
		}

		if err := it.next(); err != nil {
			if err.Kind() == errors.ErrNotFound {
				return nil
			}
			return err
		}
	}
}
