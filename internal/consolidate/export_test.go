package consolidate

// ForceCopy disables the rename path.
func (c *Consolidator) ForceCopy() {
	c.sameVolume = func(string, string) (bool, error) { return false, nil }
}
