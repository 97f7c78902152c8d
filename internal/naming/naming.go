// Package naming derives the file locations that let a split's children be
// found again at merge time.
package naming

import (
	"fmt"
	"regexp"
	"strings"

	"go-fanout/internal/domain"
)

const (
	SchemeConvention = "convention"
	SchemeID         = "id"

	partSuffix   = ".part"
	outputSuffix = ".out"
)

// Namer derives fragment and result paths. Implementations must be
// deterministic: the same inputs always give the same path.
type Namer interface {
	// Child returns the reference for the index-th child of parent.
	Child(parent *domain.TaskDescriptor, index int) domain.ChildRef

	// Output returns where a normal invocation of d writes its result.
	Output(d *domain.TaskDescriptor) string

	// ChildOutput returns where the result of c is expected when c does
	// not carry an output path of its own.
	ChildOutput(c domain.ChildRef) string

	// MergeOutput returns where a merge of d writes its result.
	// d must have at least one child.
	MergeOutput(d *domain.TaskDescriptor) string
}

// New returns the namer registered under scheme.
func New(scheme string) (Namer, error) {
	switch scheme {
	case "", SchemeConvention:
		return Convention{}, nil
	case SchemeID:
		return NewIDNamer(DefaultNamespace), nil
	default:
		return nil, fmt.Errorf("unknown naming scheme %q", scheme)
	}
}

// Base returns the substring of path before its first '.'.
// The whole path is scanned, directories included.
func Base(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

var partPattern = regexp.MustCompile(`^[^.]*\.[0-9]+\.part$`)

// IsPart reports whether path is a fragment produced by the convention scheme.
func IsPart(path string) bool {
	return partPattern.MatchString(path)
}

// Convention is the string convention shared by every worker in a job tree:
//
//	child fragment   {base}.{index}.part
//	normal output    {base}.out, or {base}.{index}.part.out for a fragment
//	merge output     {base of first child's reference path}.out
//
// It supports a single level of splitting.
type Convention struct{}

func (Convention) Child(parent *domain.TaskDescriptor, index int) domain.ChildRef {
	return domain.ChildRef{InputPath: ChildPath(parent.InputPath, index)}
}

func (Convention) Output(d *domain.TaskDescriptor) string {
	return outputFor(d.InputPath)
}

func (Convention) ChildOutput(c domain.ChildRef) string {
	return outputFor(c.InputPath)
}

func (Convention) MergeOutput(d *domain.TaskDescriptor) string {
	return Base(d.Children[0].ReferencePath()) + outputSuffix
}

// ChildPath returns {base}.{index}.part for a parent input path.
func ChildPath(parentInput string, index int) string {
	return fmt.Sprintf("%s.%d%s", Base(parentInput), index, partSuffix)
}

func outputFor(input string) string {
	if input == "" {
		return ""
	}
	if IsPart(input) {
		return input + outputSuffix
	}
	return Base(input) + outputSuffix
}
