// Package recipients builds the recipient list of a payroll or vesting batch,
// either typed in by hand or picked from saved contacts.
package recipients

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	apperrors "github.com/vesting-console/internal/errors"
	"github.com/vesting-console/internal/models"
)

// MaxDecimals bounds the token decimals Batch accepts
const MaxDecimals = 36

// Composer holds the editable recipient entries of one batch. It always has at
// least one entry.
type Composer struct {
	mu       sync.Mutex
	entries  []models.Recipient
	selected []string // contact ids, in selection order
}

// Batch is a composed recipient list converted to on-chain units
type Batch struct {
	Recipients []common.Address `json:"recipients"`
	Amounts    []*big.Int       `json:"amounts"`
	Total      *big.Int         `json:"total"`
}

// NewComposer starts with a single empty entry
func NewComposer() *Composer {
	return &Composer{entries: []models.Recipient{{}}}
}

// Entries returns a copy of the entries
func (c *Composer) Entries() []models.Recipient {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Recipient, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries
func (c *Composer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// AddEntry appends an empty entry and returns its index
func (c *Composer) AddEntry() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, models.Recipient{})
	return len(c.entries) - 1
}

// UpdateEntry overwrites address and amount of entry i. The contact link is
// kept only while the address still matches it.
func (c *Composer) UpdateEntry(i int, address, amount string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.entries) {
		return apperrors.NewValidationError("index", fmt.Sprintf("entry %d does not exist", i))
	}
	entry := &c.entries[i]
	if !strings.EqualFold(entry.Address, address) {
		entry.ContactID = ""
	}
	entry.Address = address
	entry.Amount = amount
	return nil
}

// RemoveEntry deletes entry i. The last remaining entry is never removed and
// an out of range index does nothing.
func (c *Composer) RemoveEntry(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) <= 1 || i < 0 || i >= len(c.entries) {
		return
	}
	c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
}

// SelectContact appends an entry for the contact's wallet and marks it
// selected. Returns false when the contact is already selected.
func (c *Composer) SelectContact(contact models.Worker) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isSelected(contact.ID) {
		return false
	}
	c.entries = append(c.entries, models.Recipient{Address: contact.WalletAddress, ContactID: contact.ID})
	c.selected = append(c.selected, contact.ID)
	return true
}

// DeselectContact unmarks contact id and removes the entry its selection
// created. Entries typed by hand are never touched, even when they hold the
// same address. Once the user edits the selected entry's address the link is
// gone and nothing is removed. A sole remaining entry is blanked rather than
// removed.
func (c *Composer) DeselectContact(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, selected := range c.selected {
		if selected == id {
			c.selected = append(c.selected[:i:i], c.selected[i+1:]...)
			break
		}
	}
	if id == "" {
		return
	}

	for i, entry := range c.entries {
		if entry.ContactID != id {
			continue
		}
		if len(c.entries) == 1 {
			c.entries[0] = models.Recipient{}
		} else {
			c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
		}
		return
	}
}

// IsSelected reports whether the contact id is marked selected
func (c *Composer) IsSelected(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isSelected(id)
}

func (c *Composer) isSelected(id string) bool {
	for _, selected := range c.selected {
		if selected == id {
			return true
		}
	}
	return false
}

// SelectedIDs returns the selected contact ids in selection order
func (c *Composer) SelectedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.selected))
	copy(out, c.selected)
	return out
}

// Reset goes back to one empty entry and no selection
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = []models.Recipient{{}}
	c.selected = nil
}

// Batch converts the entries to addresses and base-unit amounts for a token
// with the given decimals. Every entry must be complete.
func (c *Composer) Batch(decimals int32) (*Batch, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return nil, apperrors.NewValidationError("decimals", fmt.Sprintf("must be between 0 and %d", MaxDecimals))
	}

	entries := c.Entries()
	batch := &Batch{
		Recipients: make([]common.Address, 0, len(entries)),
		Amounts:    make([]*big.Int, 0, len(entries)),
		Total:      new(big.Int),
	}

	for i, entry := range entries {
		address := strings.TrimSpace(entry.Address)
		if !common.IsHexAddress(address) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("entries[%d].address", i), "not a valid address")
		}

		amount, err := ParseAmount(entry.Amount, decimals)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("entries[%d].amount", i), err.Error())
		}

		batch.Recipients = append(batch.Recipients, common.HexToAddress(address))
		batch.Amounts = append(batch.Amounts, amount)
		batch.Total.Add(batch.Total, amount)
	}

	return batch, nil
}

// ParseAmount converts a human amount like "1.5" to base units
func ParseAmount(amount string, decimals int32) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("amount is required")
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", amount)
	}
	if !value.IsPositive() {
		return nil, fmt.Errorf("must be greater than zero")
	}

	units := value.Shift(decimals)
	if !units.IsInteger() {
		return nil, fmt.Errorf("more than %d decimal places", decimals)
	}
	return units.BigInt(), nil
}

// FormatAmount renders base units as a human amount
func FormatAmount(units *big.Int, decimals int32) string {
	if units == nil {
		return "0"
	}
	return decimal.NewFromBigInt(units, -decimals).String()
}
