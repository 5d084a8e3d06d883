package main

import (
	"fmt"

	"github.com/banshee-data/handtraj/internal/fsutil"
	"github.com/banshee-data/handtraj/internal/resultlog"
)

// LoadRecords reads a results log. All records must share one length,
// which the overlay relies on to expire them in start order. When
// debugPath is set, that length must also match the one recorded at the
// head of the debug log.
func LoadRecords(fsys fsutil.FileSystem, path, debugPath string) ([]resultlog.Record, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	recs, err := resultlog.ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	for i, r := range recs {
		if r.Length != recs[0].Length {
			return nil, fmt.Errorf("read %s: record %d has length %d, expected %d", path, i+1, r.Length, recs[0].Length)
		}
	}
	if debugPath == "" || len(recs) == 0 {
		return recs, nil
	}

	dbg, err := fsys.Open(debugPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", debugPath, err)
	}
	defer dbg.Close()
	n, err := resultlog.ReadTrackLength(dbg)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", debugPath, err)
	}
	if n != recs[0].Length {
		return nil, fmt.Errorf("%s has length %d, debug log %s says %d", path, recs[0].Length, debugPath, n)
	}
	return recs, nil
}
