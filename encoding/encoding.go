// Package encoding provides utilities for encoding and decoding signed bids.
// Bids travel off-chain from bidder to seller before settlement; the base64
// JSON form is the transport-neutral handoff format.
package encoding

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	rfq "github.com/rfqlabs/rfq-go"
)

// EncodeBid converts a signed bid to a base64-encoded JSON string.
//
// Returns an error if JSON marshaling fails.
func EncodeBid(bid *rfq.Bid) (string, error) {
	bidJSON, err := json.Marshal(bid)
	if err != nil {
		return "", fmt.Errorf("failed to marshal bid: %w", err)
	}
	return base64.StdEncoding.EncodeToString(bidJSON), nil
}

// DecodeBid converts a base64-encoded JSON string back to a bid.
//
// Returns an error if base64 decoding or JSON unmarshaling fails.
func DecodeBid(encoded string) (*rfq.Bid, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	var bid rfq.Bid
	if err := json.Unmarshal(decoded, &bid); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bid: %w", err)
	}

	return &bid, nil
}

// EncodeSettlement converts a settlement event to a base64-encoded JSON
// string, for relaying settlement notifications out of process.
func EncodeSettlement(event rfq.SettlementEvent) (string, error) {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal settlement: %w", err)
	}
	return base64.StdEncoding.EncodeToString(eventJSON), nil
}

// DecodeSettlement converts a base64-encoded JSON string back to a settlement
// event.
func DecodeSettlement(encoded string) (rfq.SettlementEvent, error) {
	var event rfq.SettlementEvent

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return event, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(decoded, &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal settlement: %w", err)
	}

	return event, nil
}
