package recipients

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesting-console/internal/models"
)

type staticContacts []models.Worker

func (s staticContacts) Contacts() []models.Worker {
	return s
}

func TestSelector_OptionsMarkSelection(t *testing.T) {
	source := staticContacts{contact("a", addrA), contact("b", addrB)}
	c := NewComposer()
	c.SelectContact(source[1])

	options := NewSelector(source, c).Options("")
	require.Len(t, options, 2)
	assert.False(t, options[0].Selected)
	assert.True(t, options[1].Selected)
}

func TestSelector_FuzzyFilter(t *testing.T) {
	source := staticContacts{
		{ID: "1", FullName: "Alice Martin", Label: "Design", WalletAddress: addrA},
		{ID: "2", FullName: "Bob Stone", Label: "Backend", WalletAddress: addrB},
	}
	selector := NewSelector(source, NewComposer())

	options := selector.Options("ALICE")
	require.Len(t, options, 1)
	assert.Equal(t, "1", options[0].ID)

	options = selector.Options("backend")
	require.Len(t, options, 1)
	assert.Equal(t, "2", options[0].ID)

	assert.Empty(t, selector.Options("zzzz"))
	assert.Len(t, source, 2, "filtering leaves the source alone")
}

func TestSelector_Toggle(t *testing.T) {
	c := NewComposer()
	selector := NewSelector(staticContacts{}, c)
	a := contact("a", addrA)

	assert.True(t, selector.Toggle(a))
	assert.Equal(t, 2, c.Len())

	assert.False(t, selector.Toggle(a))
	assert.Equal(t, 1, c.Len())
}
