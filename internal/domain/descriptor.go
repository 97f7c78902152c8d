package domain

import "encoding/json"

// Mode is the execution path chosen for one invocation.
type Mode string

const (
	ModeMerge  Mode = "merge"
	ModeSplit  Mode = "split"
	ModeNormal Mode = "normal"
)

// FieldKeys names the record keys carrying the aliased fields, so that a
// record leaves the worker in the dialect it arrived in.
//
// In the legacy dialect the temp* keys name local staged files and the
// canonical keys name remote objects owned by the runner, which the worker
// passes through untouched.
type FieldKeys struct {
	Input    string
	Output   string
	Children string
}

var (
	CanonicalKeys = FieldKeys{Input: "inputPath", Output: "outputPath", Children: "children"}
	LegacyKeys    = FieldKeys{Input: "tempInput", Output: "tempOutput", Children: "childrenArray"}
)

// Legacy reports whether the keys belong to the tempInput dialect.
func (k FieldKeys) Legacy() bool {
	return k.Input == LegacyKeys.Input || k.Output == LegacyKeys.Output || k.Children == LegacyKeys.Children
}

// OrDefault fills empty keys with the canonical names.
func (k FieldKeys) OrDefault() FieldKeys {
	if k.Input == "" {
		k.Input = CanonicalKeys.Input
	}
	if k.Output == "" {
		k.Output = CanonicalKeys.Output
	}
	if k.Children == "" {
		k.Children = CanonicalKeys.Children
	}
	return k
}

// ChildRef is a handle to one child fragment of a split descriptor.
// A child has no back-reference to its parent.
type ChildRef struct {
	// ID is the identifier assigned by the id naming scheme.
	// It is empty under the convention scheme.
	ID string

	InputPath  string
	OutputPath string

	// Extra holds keys the worker does not understand, verbatim.
	Extra map[string]json.RawMessage

	Keys FieldKeys
}

// ReferencePath is the path that identifies the child for naming purposes:
// its input path when known, otherwise its output path.
func (c ChildRef) ReferencePath() string {
	if c.InputPath != "" {
		return c.InputPath
	}
	return c.OutputPath
}

// TaskDescriptor is the unit of work exchanged with the scheduler.
//
// The worker mutates a descriptor in place on success: normal and merge
// set OutputPath, split sets Children. Everything else is carried through.
type TaskDescriptor struct {
	// ID is an optional scheduler-assigned identifier.
	ID string

	// Name is the logical task identity. The name split policy inspects it.
	// It is only set when the record carries a string name; any other value
	// stays in Extra.
	Name *string

	InputPath  string
	OutputPath string

	// Children is order significant: merge concatenates in this order.
	Children []ChildRef

	// ChildrenCompleted and ChildrenTotal are maintained by the scheduler.
	// Both must be present and equal for the descriptor to be mergeable.
	ChildrenCompleted *int
	ChildrenTotal     *int

	// Extra holds keys the worker does not understand, verbatim. Opaque
	// scheduler fields such as user and status live here.
	Extra map[string]json.RawMessage

	Keys FieldKeys
}

// TaskName returns the name, or the empty string when absent.
func (d *TaskDescriptor) TaskName() string {
	if d.Name == nil {
		return ""
	}
	return *d.Name
}

// Mergeable reports whether both counters are present and equal.
// Over-reported completion is not mergeable.
func (d *TaskDescriptor) Mergeable() bool {
	if d.ChildrenCompleted == nil || d.ChildrenTotal == nil {
		return false
	}
	return *d.ChildrenCompleted == *d.ChildrenTotal
}

// Clone returns a deep copy, so a failed operation never leaves a
// half-mutated descriptor behind.
func (d *TaskDescriptor) Clone() *TaskDescriptor {
	c := *d
	c.Name = cloneString(d.Name)
	c.ChildrenCompleted = cloneInt(d.ChildrenCompleted)
	c.ChildrenTotal = cloneInt(d.ChildrenTotal)
	c.Extra = cloneExtra(d.Extra)
	if d.Children != nil {
		c.Children = make([]ChildRef, len(d.Children))
		for i, ch := range d.Children {
			ch.Extra = cloneExtra(ch.Extra)
			c.Children[i] = ch
		}
	}
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func cloneExtra(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	c := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		c[k] = append(json.RawMessage(nil), v...)
	}
	return c
}
