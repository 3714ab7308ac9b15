// Package types provides common type definitions for the vesting console.
package types

import "time"

// ChainID represents supported blockchain networks
type ChainID string

const (
	// ChainEthereum represents the Ethereum mainnet
	ChainEthereum ChainID = "ethereum"
	// ChainSepolia represents the Sepolia testnet used by the faucet panel
	ChainSepolia ChainID = "sepolia"
	// ChainPolygon represents the Polygon network
	ChainPolygon ChainID = "polygon"
	// ChainArbitrum represents the Arbitrum network
	ChainArbitrum ChainID = "arbitrum"
	// ChainBase represents the Base network
	ChainBase ChainID = "base"
)

// ParseChainID maps a configured chain name to a ChainID.
func ParseChainID(name string) (ChainID, bool) {
	switch ChainID(name) {
	case ChainEthereum, ChainSepolia, ChainPolygon, ChainArbitrum, ChainBase:
		return ChainID(name), true
	default:
		return "", false
	}
}

// NotificationLevel is the severity of a user-visible notification
type NotificationLevel string

const (
	// NotificationSuccess marks a completed user action
	NotificationSuccess NotificationLevel = "success"
	// NotificationError marks a failed user action
	NotificationError NotificationLevel = "error"
)

// Notification is a transient, user-visible message produced by a store operation.
type Notification struct {
	ID        string            `json:"id"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Envelope is the response body shape of the contacts API: { data, message }.
type Envelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message"`
}
