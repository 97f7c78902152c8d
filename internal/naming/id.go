package naming

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"go-fanout/internal/domain"
)

// DefaultNamespace seeds the name-based UUIDs of the id scheme.
var DefaultNamespace = uuid.MustParse("6f1c3a52-8d0e-5b7a-9c41-2e7d9f0b6a13")

// IDNamer gives every child an explicit identifier carried in the
// descriptor instead of encoding the relationship in the file name.
// Identifiers are UUIDv5 values, so naming stays deterministic and nested
// splits never collide.
type IDNamer struct {
	namespace uuid.UUID
}

func NewIDNamer(namespace uuid.UUID) IDNamer {
	return IDNamer{namespace: namespace}
}

func (n IDNamer) Child(parent *domain.TaskDescriptor, index int) domain.ChildRef {
	id := n.derive(parentKey(parent) + "/" + strconv.Itoa(index))
	return domain.ChildRef{
		ID:        id,
		InputPath: filepath.Join(filepath.Dir(parent.InputPath), id+partSuffix),
	}
}

func (IDNamer) Output(d *domain.TaskDescriptor) string {
	if d.InputPath == "" {
		return ""
	}
	return d.InputPath + outputSuffix
}

func (IDNamer) ChildOutput(c domain.ChildRef) string {
	if c.InputPath == "" {
		return ""
	}
	return c.InputPath + outputSuffix
}

func (n IDNamer) MergeOutput(d *domain.TaskDescriptor) string {
	first := d.Children[0]
	dir := filepath.Dir(first.ReferencePath())
	if d.ID != "" {
		if plainName(d.ID) {
			return filepath.Join(dir, d.ID+outputSuffix)
		}
		return filepath.Join(dir, n.derive("merge/"+d.ID)+outputSuffix)
	}
	key := first.ID
	if key == "" {
		key = first.ReferencePath()
	}
	return filepath.Join(dir, n.derive("merge/"+key)+outputSuffix)
}

func (n IDNamer) derive(key string) string {
	return uuid.NewSHA1(n.namespace, []byte(key)).String()
}

// plainName reports whether id can be used as a file name inside the
// children's directory without leaving it.
func plainName(id string) bool {
	return id != "." && id != ".." && !strings.ContainsAny(id, `/\`) && filepath.Base(id) == id
}

func parentKey(d *domain.TaskDescriptor) string {
	if d.ID != "" {
		return d.ID
	}
	return d.InputPath
}
