package classifier

import "sync"

// Budget is a cumulative byte ceiling shared by every file of one digest.
// The first rejected reservation exhausts it permanently. A full budget rejects every further
// reservation, including empty ones.
type Budget struct {
	mutex     sync.Mutex
	limit     int64
	used      int64
	exhausted bool
}

// NewBudget returns a budget of limit bytes. A limit of zero or less is unlimited.
func NewBudget(limit int64) *Budget {
	return &Budget{limit: limit}
}

// Reserve adds size to the running total when it fits and reports whether it did.
func (budget *Budget) Reserve(size int64) bool {
	budget.mutex.Lock()
	defer budget.mutex.Unlock()
	if budget.exhausted {
		return false
	}
	if budget.limit > 0 && (budget.used >= budget.limit || budget.used+size > budget.limit) {
		budget.exhausted = true
		return false
	}
	budget.used += size
	return true
}

// Exhausted reports whether a reservation has already been rejected.
func (budget *Budget) Exhausted() bool {
	budget.mutex.Lock()
	defer budget.mutex.Unlock()
	return budget.exhausted
}

// Used returns the number of reserved bytes.
func (budget *Budget) Used() int64 {
	budget.mutex.Lock()
	defer budget.mutex.Unlock()
	return budget.used
}
