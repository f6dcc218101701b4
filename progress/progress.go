// Package progress turns processed/total item counts into completion
// percentages.
package progress

// Sink receives a completion percentage in [0, 100].
type Sink func(percent int)

// Reporter emits one percentage per processed item. Values never decrease
// within one run. A nil Sink is allowed.
type Reporter struct {
	sink Sink
	last int
}

func New(sink Sink) *Reporter {
	return &Reporter{sink: sink}
}

// ReportAfterItem emits floor(processed/total*100). It is called once per
// item, whether or not the item was translated.
func (r *Reporter) ReportAfterItem(processed, total int) {
	p := Percent(processed, total)
	if p < r.last {
		p = r.last
	}
	r.last = p
	r.emit(p)
}

// Empty completes a run that had no items: it emits 100 once.
func (r *Reporter) Empty() {
	r.last = 100
	r.emit(100)
}

func (r *Reporter) emit(p int) {
	if r.sink != nil {
		r.sink(p)
	}
}

// Percent returns floor(processed/total*100) clamped to [0, 100]. A zero
// total counts as complete.
func Percent(processed, total int) int {
	if total <= 0 {
		return 100
	}
	p := processed * 100 / total
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
