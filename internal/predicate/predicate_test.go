package predicate

import (
	"testing"

	"github.com/biopragmatics/semra-go/internal/reference"
	"github.com/stretchr/testify/assert"
)

func TestDefault_ExactMatch(t *testing.T) {
	reg := Default()
	m := reg.Lookup(ExactMatch)
	assert.True(t, m.Symmetric)
	assert.True(t, m.Transitive)

	inv, ok := reg.Inverse(ExactMatch)
	assert.True(t, ok)
	assert.Equal(t, ExactMatch, inv)
}

func TestDefault_BroadNarrowAreInverses(t *testing.T) {
	reg := Default()

	inv, ok := reg.Inverse(BroadMatch)
	assert.True(t, ok)
	assert.Equal(t, NarrowMatch, inv)

	inv, ok = reg.Inverse(NarrowMatch)
	assert.True(t, ok)
	assert.Equal(t, BroadMatch, inv)

	assert.False(t, reg.IsTransitive(BroadMatch))
	assert.False(t, reg.IsSymmetric(BroadMatch))
}

func TestDefault_Generalization(t *testing.T) {
	reg := Default()

	g, ok := reg.GeneralizesTo(EquivalentTo)
	assert.True(t, ok)
	assert.Equal(t, ExactMatch, g)

	g, ok = reg.GeneralizesTo(CloseMatch)
	assert.True(t, ok)
	assert.Equal(t, RelatedMatch, g)

	_, ok = reg.GeneralizesTo(RelatedMatch)
	assert.False(t, ok)
}

func TestDbXref_SymmetricNotTransitive(t *testing.T) {
	reg := Default()
	assert.True(t, reg.IsSymmetric(DbXref))
	assert.False(t, reg.IsTransitive(DbXref))
}

func TestUnknownPredicate_IsOpaque(t *testing.T) {
	reg := Default()
	unknown := reference.New("custom", "myPredicate")

	assert.False(t, reg.Known(unknown))
	assert.False(t, reg.IsSymmetric(unknown))
	assert.False(t, reg.IsTransitive(unknown))

	_, ok := reg.Inverse(unknown)
	assert.False(t, ok)
	_, ok = reg.GeneralizesTo(unknown)
	assert.False(t, ok)
}

func TestRegister_NewPredicate(t *testing.T) {
	reg := NewRegistry()
	custom := reference.New("custom", "sameAs")
	reg.Register(custom, Metadata{Symmetric: true, Transitive: true})

	assert.True(t, reg.Known(custom))
	assert.True(t, reg.IsSymmetric(custom))
	assert.True(t, reg.IsTransitive(custom))
}
