package storage

// Provider abstracts the output tree so synchronizers and the MCP server
// can be exercised against fakes in tests.
type Provider interface {
	Root() string
	Abs(rel string) (string, error)
	List(dir string) ([]string, error)
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
}

var _ Provider = (*FS)(nil)
