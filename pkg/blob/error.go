package blob

// ErrNotFound is returned when an asset doesn't exist in the store.
type ErrNotFound struct {
	Name string
}

func (e ErrNotFound) Error() string {
	if e.Name == "" {
		return "asset not found"
	}

	return "asset not found: " + e.Name
}

// Is lets errors.Is(err, ErrNotFound{}) match any missing asset.
func (e ErrNotFound) Is(target error) bool {
	_, ok := target.(ErrNotFound)
	return ok
}
