package collection

// SourceFileIndex maps a collection's declared identifier to the file it was
// read from. When two files declare the same identifier, the one scanned last
// wins.
type SourceFileIndex map[string]string

// Path returns the file indexed for id.
func (idx SourceFileIndex) Path(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	path, ok := idx[id]
	return path, ok
}

func (idx SourceFileIndex) add(c *Collection) {
	if c.ID() == "" {
		return
	}
	idx[c.ID()] = c.Path
}
