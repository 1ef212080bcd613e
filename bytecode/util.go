package bytecode

// copyStrings returns a copy of the given string slice.
func copyStrings(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

// copyFloats returns a copy of the given float slice.
func copyFloats(src []float64) []float64 {
	if src == nil {
		return nil
	}
	dst := make([]float64, len(src))
	copy(dst, src)
	return dst
}

// copyInstructions returns a copy of the given instruction slice.
// Instructions are plain values, so a shallow copy is a deep copy.
func copyInstructions(src []Instruction) []Instruction {
	if src == nil {
		return nil
	}
	dst := make([]Instruction, len(src))
	copy(dst, src)
	return dst
}

// copyLocations returns a copy of the given location slice.
func copyLocations(src []SourceLocation) []SourceLocation {
	if src == nil {
		return nil
	}
	dst := make([]SourceLocation, len(src))
	copy(dst, src)
	return dst
}
