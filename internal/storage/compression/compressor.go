// Package compression holds the codecs the account store applies to
// account data before it reaches the key/value backend. Each stored record
// names its codec, so records written under one setting stay readable
// after the setting changes.
package compression

import (
	"fmt"
	"sort"
	"sync"
)

// None is the name of the pass-through codec and the store default.
const None = "none"

// Compressor turns account data into a self-contained frame and back.
type Compressor interface {
	Name() string
	// Compress frames data. level is a hint that codecs may ignore.
	Compress(data []byte, level int) ([]byte, error)
	Decompress(frame []byte) ([]byte, error)
	// MaxCompressedSize bounds the frame produced for n input bytes.
	MaxCompressedSize(n int) int
}

// Factory builds a fresh codec.
type Factory func() Compressor

type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var codecs = &registry{factories: make(map[string]Factory)}

// Register makes a codec available under name. Registering the same name
// twice panics.
func Register(name string, factory Factory) {
	codecs.mu.Lock()
	defer codecs.mu.Unlock()
	if _, dup := codecs.factories[name]; dup {
		panic("compression: codec registered twice: " + name)
	}
	codecs.factories[name] = factory
}

// Get returns the codec registered under name. The empty name selects None.
func Get(name string) (Compressor, error) {
	if name == "" {
		name = None
	}
	codecs.mu.RLock()
	factory, ok := codecs.factories[name]
	codecs.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown account data codec %q (have %v)", name, Available())
	}
	return factory(), nil
}

// Available lists the registered codec names in order.
func Available() []string {
	codecs.mu.RLock()
	defer codecs.mu.RUnlock()
	names := make([]string, 0, len(codecs.factories))
	for name := range codecs.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsAvailable reports whether name is registered.
func IsAvailable(name string) bool {
	codecs.mu.RLock()
	defer codecs.mu.RUnlock()
	_, ok := codecs.factories[name]
	return ok
}

func init() {
	Register(None, func() Compressor { return &NoCompressor{} })
	Register("lz4", func() Compressor { return &LZ4Compressor{} })
}
