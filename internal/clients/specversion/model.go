package specversion

import (
	"strconv"

	"go-subxt/internal/errs"
)

type (
	// Range is a run of blocks executed by one runtime spec version.
	Range struct {
		SpecVersion uint32 `json:"spec_version"`
		First       uint64 `json:"first"`
		Last        uint64 `json:"last"`
	}

	RangeList []Range
)

// FillFirst sets each range's first block from the end of the previous one.
func (l RangeList) FillFirst() {
	if len(l) == 0 {
		return
	}
	l[0].First = 0
	for idx := 1; idx < len(l); idx++ {
		l[idx].First = l[idx-1].Last + 1
	}
}

// ForBlock returns the range containing height.
func (l RangeList) ForBlock(height uint64) (*Range, error) {
	for idx, r := range l {
		if height >= r.First && height <= r.Last {
			return &l[idx], nil
		}
	}
	return nil, errs.NotFound("spec version for block", strconv.FormatUint(height, 10))
}
