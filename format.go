package ghostfs

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"

	"github.com/dargueta/ghostfs/errors"
	"github.com/dargueta/ghostfs/internal/clustercache"
	"github.com/dargueta/ghostfs/internal/digest"
	"github.com/dargueta/ghostfs/transport"
)

// Format lays down an empty filesystem on tp: an all-clear root directory
// at cluster 0, every other cluster marked free, and a correct integrity
// digest. It does not mount the result.
func Format(tp transport.Transport) errors.DriverError {
	capacity := tp.Capacity()
	if capacity < uint64(clusterAreaOffset+clustercache.Size) {
		return errors.ErrNoSpace.WithMessage("carrier too small for even one cluster")
	}

	count := (capacity - clusterAreaOffset) / clustercache.Size
	if count > maxClusterCount {
		count = maxClusterCount
	}
	clusterCount := uint16(count)

	header := make([]byte, headerSize)
	binary.Write(bytewriter.New(header), binary.LittleEndian, clusterCount)

	cluster0 := make([]byte, clustercache.Size)
	// Every byte is already zero: every directory slot is empty, next=0.
	// Cluster 0 is implicitly allocated regardless of its used bit
	// (spec.md §3 invariant: "Cluster 0 is always considered allocated").

	if err := writeHeaderAndCluster0(tp, header, cluster0); err != nil {
		return err
	}

	empty := make([]byte, clustercache.Size)
	for i := uint16(1); i < clusterCount; i++ {
		if err := tp.WriteAt(empty, clusterOffset(i)); err != nil {
			return err
		}
	}

	return nil
}

// writeHeaderAndCluster0 recomputes the digest over (header ‖ cluster0)
// and writes digest, header, and cluster0, in that order. Every sync
// point in the filesystem funnels through here so invariant 8 (spec.md
// §3) — "writing cluster 0 obliges rewriting D and H" — can't be
// forgotten.
func writeHeaderAndCluster0(tp transport.Transport, header, cluster0 []byte) errors.DriverError {
	d := digest.Compute(header, cluster0)

	if err := tp.WriteAt(d[:], digestOffset); err != nil {
		return err
	}
	if err := tp.WriteAt(header, headerOffset); err != nil {
		return err
	}
	if err := tp.WriteAt(cluster0, clusterAreaOffset); err != nil {
		return err
	}
	return nil
}
