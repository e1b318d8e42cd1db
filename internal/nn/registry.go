package nn

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1

	DefaultSquash = "logistic"
)

var (
	ErrSquashExists   = errors.New("squash already registered")
	ErrSquashNotFound = errors.New("squash not found")
	ErrSquashVersion  = errors.New("squash version mismatch")
)

// Squash is a scalar activation function together with its derivative.
type Squash interface {
	Name() string
	Value(x float64) float64
	Derivative(x float64) float64
}

type SquashSpec struct {
	Squash        Squash
	SchemaVersion int
	CodecVersion  int
}

type registeredSquash struct {
	squash        Squash
	schemaVersion int
	codecVersion  int
}

var squashRegistry = struct {
	mu sync.RWMutex
	m  map[string]registeredSquash
}{
	m: make(map[string]registeredSquash),
}

func init() {
	initializeBuiltInSquashes()
}

func initializeBuiltInSquashes() {
	MustRegisterSquash(Logistic{})
	MustRegisterSquash(Tanh{})
	MustRegisterSquash(Identity{})
	MustRegisterSquash(HardLimit{})
	MustRegisterSquash(ReLU{})
}

func RegisterSquash(s Squash) error {
	return RegisterSquashWithSpec(SquashSpec{
		Squash:        s,
		SchemaVersion: SupportedSchemaVersion,
		CodecVersion:  SupportedCodecVersion,
	})
}

func MustRegisterSquash(s Squash) {
	if err := RegisterSquash(s); err != nil {
		panic(err)
	}
}

func RegisterSquashWithSpec(spec SquashSpec) error {
	if spec.Squash == nil {
		return errors.New("squash function is required")
	}
	name := spec.Squash.Name()
	if name == "" {
		return errors.New("squash name is required")
	}
	if spec.SchemaVersion != SupportedSchemaVersion || spec.CodecVersion != SupportedCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrSquashVersion, spec.SchemaVersion, spec.CodecVersion)
	}

	squashRegistry.mu.Lock()
	defer squashRegistry.mu.Unlock()

	if _, exists := squashRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrSquashExists, name)
	}

	squashRegistry.m[name] = registeredSquash{
		squash:        spec.Squash,
		schemaVersion: spec.SchemaVersion,
		codecVersion:  spec.CodecVersion,
	}
	return nil
}

// GetSquash resolves a squash by name. The empty name selects DefaultSquash.
func GetSquash(name string) (Squash, error) {
	if name == "" {
		name = DefaultSquash
	}
	squashRegistry.mu.RLock()
	entry, ok := squashRegistry.m[name]
	squashRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSquashNotFound, name)
	}
	if entry.schemaVersion != SupportedSchemaVersion || entry.codecVersion != SupportedCodecVersion {
		return nil, fmt.Errorf("%w: %s", ErrSquashVersion, name)
	}
	return entry.squash, nil
}

func ListSquashes() []string {
	squashRegistry.mu.RLock()
	defer squashRegistry.mu.RUnlock()

	names := make([]string, 0, len(squashRegistry.m))
	for name := range squashRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetSquashRegistryForTests() {
	squashRegistry.mu.Lock()
	squashRegistry.m = make(map[string]registeredSquash)
	squashRegistry.mu.Unlock()
	initializeBuiltInSquashes()
}
