package naming

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-fanout/internal/domain"
)

func TestBase(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"doc.txt", "doc"},
		{"doc.0.part", "doc"},
		{"archive.tar.gz", "archive"},
		{"noext", "noext"},
		{"data/in.txt", "data/in"},
		{"./doc.txt", ""},
		{"v1.2/doc.txt", "v1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Base(tt.path), tt.path)
	}
}

func TestIsPart(t *testing.T) {
	assert.True(t, IsPart("doc.0.part"))
	assert.True(t, IsPart("doc.12.part"))
	assert.True(t, IsPart(".3.part"))
	assert.False(t, IsPart("doc.txt"))
	assert.False(t, IsPart("doc.x.part"))
	assert.False(t, IsPart("doc.0.part.out"))
	assert.False(t, IsPart("a.b.0.part"))
}

func TestChildPath(t *testing.T) {
	assert.Equal(t, "doc.0.part", ChildPath("doc.txt", 0))
	assert.Equal(t, "doc.2.part", ChildPath("doc.txt", 2))
	assert.Equal(t, ChildPath("doc.txt", 1), ChildPath("doc.txt", 1))
	assert.Equal(t, "doc.1.part", ChildPath("doc", 1))
}

func TestConvention(t *testing.T) {
	var n Namer = Convention{}

	assert.Equal(t, domain.ChildRef{InputPath: "doc.1.part"}, n.Child(&domain.TaskDescriptor{InputPath: "doc.txt"}, 1))

	assert.Equal(t, "doc.out", n.Output(&domain.TaskDescriptor{InputPath: "doc.txt"}))
	assert.Equal(t, "doc.0.part.out", n.Output(&domain.TaskDescriptor{InputPath: "doc.0.part"}))
	assert.Equal(t, "", n.Output(&domain.TaskDescriptor{}))

	assert.Equal(t, "doc.2.part.out", n.ChildOutput(domain.ChildRef{InputPath: "doc.2.part"}))

	merge := &domain.TaskDescriptor{Children: []domain.ChildRef{{InputPath: "doc.0.part"}, {InputPath: "other.1.part"}}}
	assert.Equal(t, "doc.out", n.MergeOutput(merge))

	byOutput := &domain.TaskDescriptor{Children: []domain.ChildRef{{OutputPath: "report.0.part.out"}}}
	assert.Equal(t, "report.out", n.MergeOutput(byOutput))
}

func TestIDNamer_Deterministic(t *testing.T) {
	n := NewIDNamer(DefaultNamespace)
	parent := &domain.TaskDescriptor{ID: "job-1", InputPath: "data/doc.txt"}

	a := n.Child(parent, 0)
	b := n.Child(parent, 0)
	c := n.Child(parent, 1)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a.ID, c.ID)
	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "data/"+a.ID+".part", a.InputPath)

	other := NewIDNamer(uuid.New())
	assert.NotEqual(t, a.ID, other.Child(parent, 0).ID)
}

func TestIDNamer_NestedSplitsDoNotCollide(t *testing.T) {
	n := NewIDNamer(DefaultNamespace)
	root := &domain.TaskDescriptor{InputPath: "doc.txt"}
	first := n.Child(root, 0)

	nested := n.Child(&domain.TaskDescriptor{ID: first.ID, InputPath: first.InputPath}, 0)
	assert.NotEqual(t, first.InputPath, nested.InputPath)
	assert.NotEqual(t, first.ID, nested.ID)
}

func TestIDNamer_Outputs(t *testing.T) {
	n := NewIDNamer(DefaultNamespace)

	assert.Equal(t, "x.part.out", n.Output(&domain.TaskDescriptor{InputPath: "x.part"}))
	assert.Equal(t, "x.part.out", n.ChildOutput(domain.ChildRef{InputPath: "x.part"}))
	assert.Equal(t, "", n.ChildOutput(domain.ChildRef{}))

	children := []domain.ChildRef{{ID: "c0", InputPath: "data/c0.part"}}
	assert.Equal(t, "data/job.out", n.MergeOutput(&domain.TaskDescriptor{ID: "job", Children: children}))

	anon := n.MergeOutput(&domain.TaskDescriptor{Children: children})
	assert.Equal(t, anon, n.MergeOutput(&domain.TaskDescriptor{Children: children}))
	assert.Equal(t, "data/"+n.derive("merge/c0")+".out", anon)
}

func TestIDNamer_MergeOutputStaysInChildDir(t *testing.T) {
	n := NewIDNamer(DefaultNamespace)
	children := []domain.ChildRef{{ID: "c0", InputPath: "data/c0.part"}}

	for _, id := range []string{"../evil", "a/b", `a\b`, "..", "."} {
		got := n.MergeOutput(&domain.TaskDescriptor{ID: id, Children: children})
		assert.Equal(t, "data/"+n.derive("merge/"+id)+".out", got, id)
		assert.Equal(t, "data", filepath.Dir(got), id)
	}
}

func TestNew(t *testing.T) {
	n, err := New("")
	require.NoError(t, err)
	assert.IsType(t, Convention{}, n)

	n, err = New(SchemeID)
	require.NoError(t, err)
	assert.IsType(t, IDNamer{}, n)

	_, err = New("random")
	assert.Error(t, err)
}
