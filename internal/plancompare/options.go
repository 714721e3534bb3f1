package plancompare

// Options controls which differences between two plans count.
type Options struct {
	// IgnoreMeta drops the seed and both fingerprints from the comparison, so
	// plans that differ only in how they were produced compare equal.
	IgnoreMeta bool
	// IgnoreReasons compares decisions without their reason lists.
	IgnoreReasons bool
	// IgnoreAlternativeOrder treats alternatives as a set.
	IgnoreAlternativeOrder bool
	// ScoreTolerance is the largest score difference still considered equal.
	ScoreTolerance float64
}

// DefaultOptions compares everything except the order of alternatives, with
// the same tolerance the engine uses to group tied scores.
func DefaultOptions() Options {
	return Options{
		IgnoreAlternativeOrder: true,
		ScoreTolerance:         0.001,
	}
}
