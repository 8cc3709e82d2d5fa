package block

// Option applies a configuration option to the Index.
type Option func(*Index)

// WithFallbackScanCap bounds the full-scan fallback used when both the
// last-name and department blocks come up empty.
func WithFallbackScanCap(cap int) Option {
	return func(ix *Index) {
		if cap > 0 {
			ix.scanCap = cap
		}
	}
}
