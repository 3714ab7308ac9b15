package recipients

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/vesting-console/internal/models"
)

// ContactSource supplies the contacts a selector offers
type ContactSource interface {
	Contacts() []models.Worker
}

// Option is a contact as shown in the picker
type Option struct {
	models.Worker
	Selected bool `json:"selected"`
}

// Selector joins saved contacts with a composer's selection state
type Selector struct {
	source   ContactSource
	composer *Composer
}

// NewSelector creates a selector for composer over source
func NewSelector(source ContactSource, composer *Composer) *Selector {
	return &Selector{source: source, composer: composer}
}

// Options lists the contacts, best fuzzy match first when query is set. The
// filtering is local and does not change the source list.
func (s *Selector) Options(query string) []Option {
	contacts := s.source.Contacts()

	query = strings.ToLower(strings.TrimSpace(query))
	if query != "" {
		matches := fuzzy.FindFrom(query, contactIndex(contacts))
		filtered := make([]models.Worker, 0, len(matches))
		for _, m := range matches {
			filtered = append(filtered, contacts[m.Index])
		}
		contacts = filtered
	}

	options := make([]Option, 0, len(contacts))
	for _, c := range contacts {
		options = append(options, Option{Worker: c, Selected: s.composer.IsSelected(c.ID)})
	}
	return options
}

// Toggle selects contact when it is not selected and deselects it otherwise.
// It reports whether the contact ends up selected.
func (s *Selector) Toggle(contact models.Worker) bool {
	if s.composer.SelectContact(contact) {
		return true
	}
	s.composer.DeselectContact(contact.ID)
	return false
}

// contactIndex is the fuzzy.Source over name, label and wallet
type contactIndex []models.Worker

func (c contactIndex) Len() int {
	return len(c)
}

func (c contactIndex) String(i int) string {
	w := c[i]
	return strings.ToLower(strings.Join([]string{w.FullName, w.Label, w.WalletAddress}, " "))
}
