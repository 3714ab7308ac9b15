// Package models provides data models for the vesting console.
package models

import (
	"strings"
	"time"
)

// Worker is a saved contact: a wallet address with metadata, owned by the
// wallet that saved it. The remote API calls contacts "workers".
type Worker struct {
	ID            string    `json:"id"`
	FullName      string    `json:"fullName,omitempty"`
	WalletAddress string    `json:"walletAddress"`
	Email         string    `json:"email,omitempty"`
	Label         string    `json:"label,omitempty"`
	SavedBy       string    `json:"savedBy"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DisplayName returns the full name, falling back to the wallet address
func (w *Worker) DisplayName() string {
	if name := strings.TrimSpace(w.FullName); name != "" {
		return name
	}
	return w.WalletAddress
}

// WorkerInput is the create body: every worker field minus id and timestamps.
// SavedBy is stamped by the contact store.
type WorkerInput struct {
	FullName      string `json:"fullName,omitempty"`
	WalletAddress string `json:"walletAddress"`
	Email         string `json:"email,omitempty"`
	Label         string `json:"label,omitempty"`
	SavedBy       string `json:"savedBy"`
	IsActive      *bool  `json:"isActive,omitempty"` // nil keeps the server default (true)
}

// WorkerPatch is a partial update. Nil fields are left untouched by the server.
type WorkerPatch struct {
	FullName      *string `json:"fullName,omitempty"`
	WalletAddress *string `json:"walletAddress,omitempty"`
	Email         *string `json:"email,omitempty"`
	Label         *string `json:"label,omitempty"`
	IsActive      *bool   `json:"isActive,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p *WorkerPatch) IsEmpty() bool {
	return p == nil || (p.FullName == nil && p.WalletAddress == nil && p.Email == nil &&
		p.Label == nil && p.IsActive == nil)
}
