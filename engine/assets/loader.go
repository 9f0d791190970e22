package assets

// Loader decodes one kind of asset file.
type Loader interface {
	// Load reads the file at path. The concrete type of the result depends on
	// the loader.
	Load(path string) (interface{}, error)
}
