package gdp

import "fmt"

// Key identifies one GDP lookup
type Key struct {
	ISO  string
	Year int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.ISO, k.Year)
}

// Status is the outcome of a lookup
type Status string

const (
	// StatusFound means the source returned a value
	StatusFound Status = "found"
	// StatusUnknown means the source has no value for the key
	StatusUnknown Status = "unknown"
	// StatusFailed means the lookup errored; the key is not retried in the run
	StatusFailed Status = "failed"
)

// Result is a cached lookup outcome
type Result struct {
	Status Status
	Value  float64
}

// Cache holds lookup outcomes for a single run. It is created by the caller and
// discarded when the run ends.
type Cache map[Key]Result

// NewCache returns an empty run cache
func NewCache() Cache {
	return make(Cache)
}

// Get returns the cached result for k
func (c Cache) Get(k Key) (Result, bool) {
	r, ok := c[k]
	return r, ok
}

// Put records the result for k
func (c Cache) Put(k Key, r Result) {
	c[k] = r
}
