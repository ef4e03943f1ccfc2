package meshfix

// Options controls a single native repair call. Every field is concrete by
// the time it reaches the bridge.
type Options struct {
	// JoinMultipleComponents merges disconnected components into one manifold.
	JoinMultipleComponents bool `json:"join_multiple_components"`
	// STLOutput selects STL output; false writes OFF.
	STLOutput bool `json:"stl_output"`
	// SkipIfFixed lets the native routine no-op on an already repaired mesh.
	SkipIfFixed bool `json:"skip_if_fixed"`
}

// DefaultOptions returns the options used when the caller sets nothing.
func DefaultOptions() Options {
	return Options{
		JoinMultipleComponents: false,
		STLOutput:              true,
		SkipIfFixed:            false,
	}
}

// Extension returns the file extension (without dot) of the selected output format.
func (o Options) Extension() string {
	if o.STLOutput {
		return "stl"
	}
	return "off"
}

// PartialOptions is the caller-facing form of Options where any field may be unset.
type PartialOptions struct {
	JoinMultipleComponents *bool `json:"join_multiple_components,omitempty"`
	STLOutput              *bool `json:"stl_output,omitempty"`
	SkipIfFixed            *bool `json:"skip_if_fixed,omitempty"`
}

// NormalizeOptions fills every unset field of p with its default.
// A nil p yields DefaultOptions.
func NormalizeOptions(p *PartialOptions) Options {
	opts := DefaultOptions()
	if p == nil {
		return opts
	}

	if p.JoinMultipleComponents != nil {
		opts.JoinMultipleComponents = *p.JoinMultipleComponents
	}
	if p.STLOutput != nil {
		opts.STLOutput = *p.STLOutput
	}
	if p.SkipIfFixed != nil {
		opts.SkipIfFixed = *p.SkipIfFixed
	}

	return opts
}

// Bool returns a pointer to v, for building PartialOptions.
func Bool(v bool) *bool {
	return &v
}
