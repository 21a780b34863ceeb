// Package rt is the model runtime core. A Model owns the constant storage
// and completion tracking for one loaded instance of a pre-compiled model;
// the model-specific kernel body, the tensor library, and the device
// allocator all arrive as injected capabilities.
package rt

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/samcharles93/loom/internal/constants"
	"github.com/samcharles93/loom/internal/device"
	"github.com/samcharles93/loom/internal/logger"
	"github.com/samcharles93/loom/internal/tensor"
	"github.com/samcharles93/loom/internal/weights"
)

// ProxyExecutor dispatches operators the compiled body cannot express
// inline. It is owned and interpreted by the body; the runtime passes it
// through untouched.
type ProxyExecutor any

// Body is the model-specific kernel body, supplied by generated code (or a
// hand-written equivalent). Run consumes the input handles and writes
// output handles whose ownership passes to the caller; ConstFold returns
// the newly materialized constants by name. On asynchronous backends both
// enqueue work on the given stream and return without waiting for it.
type Body interface {
	Run(inputs, outputs []tensor.Handle, stream device.Stream, exec ProxyExecutor) error
	ConstFold(stream device.Stream, exec ProxyExecutor, initialization bool) (map[string]tensor.Handle, error)
}

// Config assembles a Model. Registry, Tensors and Body are required;
// Source is required unless SkipWeights is set or the caller supplies
// constants out of band.
type Config struct {
	InputNames  []string
	OutputNames []string
	InSpec      string
	OutSpec     string

	Registry *constants.Registry

	// Device is a string of the form kind[:index], e.g. "cpu" or "cuda:1".
	Device string
	// Backend overrides the registered backend for the parsed device kind.
	Backend device.Backend

	Source  weights.Source
	Tensors tensor.Factory
	Body    Body

	// SkipWeights loads no constant data; the caller provides weights
	// later through UpdateConstantsMap.
	SkipWeights bool

	// ConstantsMap and ConstantsArray may be shared with other instances
	// using identical weights. Fresh ones are created when nil.
	ConstantsMap   *constants.Map
	ConstantsArray *constants.Array

	Logger logger.Logger
}

// Model is a single loaded instance. It is driven by one controlling
// goroutine at a time; only IsFinished is safe to call concurrently.
type Model struct {
	id  uuid.UUID
	log logger.Logger

	inputNames  []string
	outputNames []string
	inSpec      string
	outSpec     string

	registry *constants.Registry
	desc     device.Descriptor
	backend  device.Backend
	source   weights.Source
	tensors  tensor.Factory
	body     Body

	skipWeights bool

	cmap   *constants.Map
	carr   *constants.Array
	blob   device.Buffer
	loaded bool

	runFinished device.Event
}

// New parses the device string, establishes the device context, and wires
// the instance together. Note the side effect: when the device string
// carries an index, the backend's current device is switched to it.
func New(cfg Config) (*Model, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("rt: config needs a constant registry")
	}
	if cfg.Tensors == nil {
		return nil, fmt.Errorf("rt: config needs a tensor factory")
	}
	if cfg.Body == nil {
		return nil, fmt.Errorf("rt: config needs a model body")
	}

	desc, err := device.Parse(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("rt: %w", err)
	}

	backend := cfg.Backend
	if backend == nil {
		backend, err = device.New(desc.Kind)
		if err != nil {
			return nil, fmt.Errorf("rt: %w", err)
		}
	}

	if desc.Index < 0 {
		idx, err := backend.CurrentDevice()
		if err != nil {
			return nil, fmt.Errorf("rt: query current %s device: %w", desc.Kind, err)
		}
		desc.Index = idx
	} else if err := backend.SetDevice(desc.Index); err != nil {
		return nil, fmt.Errorf("rt: switch to %s: %w", desc, err)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	id := uuid.New()
	log = log.With("model_id", id.String(), "device", desc.String())

	cmap := cfg.ConstantsMap
	if cmap == nil {
		cmap = constants.NewMap(cfg.Registry.Len())
	}
	carr := cfg.ConstantsArray
	if carr == nil {
		carr = constants.NewArray(cfg.Registry.Len())
	}

	return &Model{
		id:          id,
		log:         log,
		inputNames:  cfg.InputNames,
		outputNames: cfg.OutputNames,
		inSpec:      cfg.InSpec,
		outSpec:     cfg.OutSpec,
		registry:    cfg.Registry,
		desc:        desc,
		backend:     backend,
		source:      cfg.Source,
		tensors:     cfg.Tensors,
		body:        cfg.Body,
		skipWeights: cfg.SkipWeights,
		cmap:        cmap,
		carr:        carr,
	}, nil
}

func (m *Model) ID() uuid.UUID             { return m.id }
func (m *Model) Device() device.Descriptor { return m.desc }
func (m *Model) Loaded() bool              { return m.loaded }

func (m *Model) NumInputs() int    { return len(m.inputNames) }
func (m *Model) NumOutputs() int   { return len(m.outputNames) }
func (m *Model) NumConstants() int { return m.registry.Len() }

func (m *Model) InputName(i int) (string, error) {
	if i < 0 || i >= len(m.inputNames) {
		return "", fmt.Errorf("rt: input index %d out of range (have %d)", i, len(m.inputNames))
	}
	return m.inputNames[i], nil
}

func (m *Model) OutputName(i int) (string, error) {
	if i < 0 || i >= len(m.outputNames) {
		return "", fmt.Errorf("rt: output index %d out of range (have %d)", i, len(m.outputNames))
	}
	return m.outputNames[i], nil
}

// InSpec and OutSpec expose the serialized input/output structure verbatim
// for external validation; the runtime never parses them.
func (m *Model) InSpec() string  { return m.inSpec }
func (m *Model) OutSpec() string { return m.outSpec }

// ConstantsArray exposes the shared registry-ordered handle table.
func (m *Model) ConstantsArray() *constants.Array { return m.carr }

// UpdateConstantsMap swaps the shared constants map. Replacement must be
// serialized externally against in-flight runs on every instance sharing
// the map.
func (m *Model) UpdateConstantsMap(cm *constants.Map, remap bool) error {
	m.cmap = cm
	if remap {
		return m.UpdateConstantsArrayFromMap()
	}
	return nil
}

// UpdateConstantsArrayFromMap rebuilds the array to registry length and
// fills each slot from the current map; names absent from the map leave
// their slot nil.
func (m *Model) UpdateConstantsArrayFromMap() error {
	if m.cmap == nil {
		return ErrNoConstantsMap
	}
	if m.carr == nil {
		m.carr = constants.NewArray(m.registry.Len())
	} else {
		m.carr.Resize(m.registry.Len())
	}
	for i := 0; i < m.registry.Len(); i++ {
		d, err := m.registry.At(i)
		if err != nil {
			return err
		}
		if h, ok := m.cmap.Get(d.Name); ok {
			if err := m.carr.Set(i, h); err != nil {
				return err
			}
		}
	}
	return nil
}

// UpdateConstantsArray replaces the handle table directly, bypassing the
// map. Used when an external owner maintains one array across a pool of
// instances with the same weights.
func (m *Model) UpdateConstantsArray(a *constants.Array) {
	m.carr = a
}

// ReleaseConstantBlob transfers ownership of the device blob to the caller,
// who becomes responsible for freeing it. Returns nil for host-only models
// or when the blob was already released.
func (m *Model) ReleaseConstantBlob() device.Buffer {
	b := m.blob
	m.blob = nil
	return b
}

// Close destroys the completion event and frees the constant blob if this
// instance still owns it.
func (m *Model) Close() error {
	var first error
	if m.runFinished != nil {
		if err := m.runFinished.Destroy(); err != nil {
			m.log.Warn("failed to destroy completion event", "error", err)
			first = err
		}
		m.runFinished = nil
	}
	if m.blob != nil {
		if err := m.blob.Free(); err != nil {
			m.log.Warn("failed to free constant blob", "error", err)
			if first == nil {
				first = err
			}
		}
		m.blob = nil
	}
	return first
}
