package tx

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrUnknownInstruction is returned when no factory is registered for a
	// program and instruction name
	ErrUnknownInstruction = errors.New("unknown instruction")

	// ErrUnknownProgram is returned when no instruction is registered for a program
	ErrUnknownProgram = errors.New("unknown program")
)

// Factory returns a zero instruction ready to be decoded into.
type Factory func() Instruction

type registryKey struct {
	program solana.PublicKey
	name    string
}

// Registry maps (program, instruction name) pairs to factories.
// It provides thread-safe registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[registryKey]Factory
	programs  map[solana.PublicKey]string
}

// NewRegistry creates an empty instruction registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[registryKey]Factory),
		programs:  make(map[solana.PublicKey]string),
	}
}

// RegisterProgram names a program id for logs and CLI output.
func (r *Registry) RegisterProgram(program solana.PublicKey, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[program] = name
}

// Register adds a factory. It returns an error if the pair is already taken.
func (r *Registry) Register(program solana.PublicKey, name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey{program: program, name: name}
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("instruction already registered: %s/%s", program, name)
	}
	r.factories[key] = f
	return nil
}

// MustRegister adds a factory and panics if registration fails.
// Useful for init() functions.
func (r *Registry) MustRegister(program solana.PublicKey, name string, f Factory) {
	if err := r.Register(program, name, f); err != nil {
		panic(err)
	}
}

// New returns a fresh instruction for the pair.
func (r *Registry) New(program solana.PublicKey, name string) (Instruction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[registryKey{program: program, name: name}]
	if !ok {
		if _, known := r.programs[program]; !known {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, program)
		}
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownInstruction, r.programs[program], name)
	}
	return f(), nil
}

// ProgramName returns the registered name of program, or its base58 form.
func (r *Registry) ProgramName(program solana.PublicKey) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.programs[program]; ok {
		return name
	}
	return program.String()
}

// Names returns the registered instruction names of program, sorted.
func (r *Registry) Names(program solana.PublicKey) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for key := range r.factories {
		if key.program.Equals(program) {
			names = append(names, key.name)
		}
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global instruction registry.
var DefaultRegistry = NewRegistry()

// Register adds a factory to the default registry, panicking on error.
func Register(program solana.PublicKey, name string, f Factory) {
	DefaultRegistry.MustRegister(program, name, f)
}

// RegisterProgram names a program in the default registry.
func RegisterProgram(program solana.PublicKey, name string) {
	DefaultRegistry.RegisterProgram(program, name)
}

// ProgramName returns the name of program in the default registry.
func ProgramName(program solana.PublicKey) string {
	return DefaultRegistry.ProgramName(program)
}

// instructionEnvelope is the JSON form of an instruction.
type instructionEnvelope struct {
	Program solana.PublicKey `json:"program"`
	Name    string           `json:"name"`
	Args    json.RawMessage  `json:"args"`
}

// InstructionFromJSON decodes {"program", "name", "args"} into a registered
// instruction.
func InstructionFromJSON(data []byte) (Instruction, error) {
	var env instructionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	ix, err := DefaultRegistry.New(env.Program, env.Name)
	if err != nil {
		return nil, err
	}
	if len(env.Args) > 0 {
		if err := json.Unmarshal(env.Args, ix); err != nil {
			return nil, fmt.Errorf("decode %s args: %w", env.Name, err)
		}
	}
	return ix, nil
}

// InstructionToJSON encodes ix in the envelope read by InstructionFromJSON.
func InstructionToJSON(ix Instruction) ([]byte, error) {
	args, err := json.Marshal(ix)
	if err != nil {
		return nil, err
	}
	return json.Marshal(instructionEnvelope{
		Program: ix.ProgramID(),
		Name:    ix.Name(),
		Args:    args,
	})
}
