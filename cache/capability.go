package cache

// Known cache drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverFile   = "file"
)

// untaggedDrivers lists backends that cannot evict a tag group in one go.
var untaggedDrivers = [...]string{DriverFile}

// UntaggedDrivers returns a copy of the driver deny-list.
func UntaggedDrivers() []string {
	out := make([]string, len(untaggedDrivers))
	copy(out, untaggedDrivers[:])
	return out
}

// SupportsTags reports whether driver supports grouped tag eviction.
func SupportsTags(driver string) bool {
	for _, d := range untaggedDrivers {
		if d == driver {
			return false
		}
	}
	return true
}

// ProbeTags returns the tag capable view of store when both its driver and
// its implementation support tags.
func ProbeTags(store Store) (TaggableStore, bool) {
	if store == nil || !SupportsTags(store.Driver()) {
		return nil, false
	}
	taggable, ok := store.(TaggableStore)
	return taggable, ok
}
