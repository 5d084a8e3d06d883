package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/banshee-data/handtraj/internal/fsutil"
	"github.com/banshee-data/handtraj/internal/resultlog"
	"github.com/banshee-data/handtraj/internal/threshold"
)

// OtsuResult is the outcome of thresholding one results log.
type OtsuResult struct {
	Energies  []int
	Threshold int
	Kept      int
}

// RunOtsu reads the log at in, thresholds the record energies and, when
// dst is non-nil, writes the surviving records to it in input order.
func RunOtsu(fsys fsutil.FileSystem, in string, dst io.Writer) (OtsuResult, error) {
	var res OtsuResult

	f, err := fsys.Open(in)
	if err != nil {
		return res, fmt.Errorf("open %s: %w", in, err)
	}
	recs, err := resultlog.ReadRecords(f)
	f.Close()
	if err != nil {
		return res, fmt.Errorf("read %s: %w", in, err)
	}

	res.Energies = make([]int, len(recs))
	for i, r := range recs {
		res.Energies[i] = threshold.Energy(r.Stats)
	}
	res.Threshold = threshold.Otsu(res.Energies)
	keep := threshold.Keep(res.Energies, res.Threshold)
	res.Kept = len(keep)

	if dst == nil {
		return res, nil
	}
	w := bufio.NewWriter(dst)
	for _, i := range keep {
		w.WriteString(resultlog.FormatRecord(recs[i]))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return res, fmt.Errorf("write filtered records: %w", err)
	}
	return res, nil
}
