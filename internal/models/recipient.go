package models

import "strings"

// Recipient is one row of a batch being composed. Address and amount stay free
// text until the batch is built; recipients are never persisted.
type Recipient struct {
	Address   string `json:"address"`
	Amount    string `json:"amount"`
	ContactID string `json:"contactId,omitempty"` // set when added by selecting a contact
}

// IsBlank reports whether neither address nor amount has been filled in
func (r Recipient) IsBlank() bool {
	return strings.TrimSpace(r.Address) == "" && strings.TrimSpace(r.Amount) == ""
}
