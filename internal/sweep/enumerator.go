package sweep

import "path/filepath"

// terminal marks an exhausted cursor.
const terminal = -1

// State is the enumerator cursor: a dataset index and a combined
// parameter index. Dataset is -1 once the sweep is exhausted.
type State struct {
	Dataset  int `json:"dataset"`
	Combined int `json:"combined"`
}

// Enumerator walks the argument sets of one sweep.
//
// The cursor is owned by the Enumerator instance; callers pass the
// instance around explicitly. An Enumerator is not safe for concurrent use.
type Enumerator struct {
	root      string
	policy    Policy
	overrides Overrides

	// params holds the reconciled parameter axes, indexed like ParameterKeys.
	params   [][]string
	datasets []string
	width    int

	state State
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithPolicy selects the axis reconciliation policy (default PolicyPad).
func WithPolicy(p Policy) Option {
	return func(e *Enumerator) {
		if p != "" {
			e.policy = p
		}
	}
}

// New creates an enumerator over datasetRoot using overrides for the axes.
// Keys missing from overrides, or mapped to an empty slice, use the
// built-in default. The cursor starts at the first argument set.
func New(datasetRoot string, overrides Overrides, opts ...Option) *Enumerator {
	e := &Enumerator{
		root:   datasetRoot,
		policy: PolicyPad,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.load(overrides)
	return e
}

// load recomputes the axes and rewinds the cursor.
func (e *Enumerator) load(overrides Overrides) {
	e.overrides = overrides.clone()

	raw := make([][]string, len(ParameterKeys))
	for i, key := range ParameterKeys {
		raw[i] = ExpandValues(e.overrides.axis(key))
	}
	e.width, e.params = Reconcile(raw, e.policy)
	e.datasets = e.overrides.axis(Path)
	e.state = State{}
}

// Reconfigure replaces the overrides, recomputes every axis and rewinds.
func (e *Enumerator) Reconfigure(overrides Overrides) {
	e.load(overrides)
}

// Reset rewinds the cursor to the first argument set. Axes are unchanged.
func (e *Enumerator) Reset() {
	e.state = State{}
}

// Advance moves to the next argument set. The combined index moves first;
// on overflow it wraps to zero and the dataset index moves. Advance
// returns false once the dataset axis is exhausted and leaves the cursor
// at the terminal sentinel.
func (e *Enumerator) Advance() bool {
	if e.state.Dataset == terminal {
		return false
	}

	e.state.Combined++
	if e.state.Combined >= e.width {
		e.state.Combined = 0
		e.state.Dataset++
	}
	if e.state.Dataset >= len(e.datasets) {
		e.state.Dataset = terminal
		return false
	}
	return true
}

// Current returns the argument set under the cursor.
func (e *Enumerator) Current() (ArgumentSet, error) {
	if e.Exhausted() {
		return ArgumentSet{}, &InvalidStateError{Op: "current argument set"}
	}

	name := e.datasets[e.state.Dataset]
	c := e.state.Combined
	return ArgumentSet{
		Position:    e.state.Dataset*e.width + c,
		Dataset:     name,
		DatasetPath: filepath.Join(e.root, name),
		MaxDist:     e.params[0][c],
		MinDensity:  e.params[1][c],
		MaxAngle:    e.params[2][c],
		SegmentSize: e.params[3][c],
	}, nil
}

// ValueAsText returns the text of the current value for key. Unknown keys
// fail with UnknownKeyError in every state. Parameter values stay readable
// after exhaustion; the path key needs a live cursor.
func (e *Enumerator) ValueAsText(key Key) (string, error) {
	if !IsKnown(key) {
		return "", &UnknownKeyError{Key: string(key)}
	}
	if key == Path {
		return e.DatasetName()
	}
	for i, k := range ParameterKeys {
		if k == key {
			return e.params[i][e.state.Combined], nil
		}
	}
	return "", &UnknownKeyError{Key: string(key)}
}

// DatasetName returns the dataset identifier under the cursor.
func (e *Enumerator) DatasetName() (string, error) {
	if e.Exhausted() {
		return "", &InvalidStateError{Op: "dataset name"}
	}
	return e.datasets[e.state.Dataset], nil
}

// DatasetPath returns the dataset root joined with the current dataset name.
func (e *Enumerator) DatasetPath() (string, error) {
	name, err := e.DatasetName()
	if err != nil {
		return "", err
	}
	return filepath.Join(e.root, name), nil
}

// Exhausted reports whether the cursor is at the terminal sentinel.
func (e *Enumerator) Exhausted() bool {
	return e.state.Dataset == terminal
}

// State returns a copy of the cursor.
func (e *Enumerator) State() State {
	return e.state
}

// Policy returns the reconciliation policy in use.
func (e *Enumerator) Policy() Policy {
	return e.policy
}

// Root returns the dataset root directory.
func (e *Enumerator) Root() string {
	return e.root
}

// Width returns the combined parameter axis length.
func (e *Enumerator) Width() int {
	return e.width
}

// Datasets returns a copy of the dataset axis.
func (e *Enumerator) Datasets() []string {
	return append([]string(nil), e.datasets...)
}

// Total returns the number of argument sets in a full sweep.
func (e *Enumerator) Total() int {
	return e.width * len(e.datasets)
}

// Axis returns a copy of the reconciled axis for key.
func (e *Enumerator) Axis(key Key) ([]string, error) {
	if key == Path {
		return e.Datasets(), nil
	}
	for i, k := range ParameterKeys {
		if k == key {
			return append([]string(nil), e.params[i]...), nil
		}
	}
	return nil, &UnknownKeyError{Key: string(key)}
}

// All rewinds the enumerator and collects every argument set in order.
// The cursor is left at the terminal sentinel.
func (e *Enumerator) All() []ArgumentSet {
	e.Reset()
	sets := make([]ArgumentSet, 0, e.Total())
	for {
		set, err := e.Current()
		if err != nil {
			break
		}
		sets = append(sets, set)
		if !e.Advance() {
			break
		}
	}
	return sets
}
