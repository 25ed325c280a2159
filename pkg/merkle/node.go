// Package merkle is a content-addressed log of conversation messages.
// Each message is a node whose hash covers its content and its parent's
// hash, so a node identifies the whole conversation leading up to it.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Bucket is the hashed payload of a node: one message of a conversation.
type Bucket struct {
	Type    string `json:"type"`           // Always "message" for now
	UserID  string `json:"user_id"`        // Conversation owner
	Role    string `json:"role"`           // "user" or "assistant"
	Content string `json:"content"`        // Message text
	Tool    string `json:"tool,omitempty"` // Tool that produced an assistant message
}

// Node represents a single content-addressed node in a Merkle DAG
type Node struct {
	// Hash is the content-addressed identifier (SHA-256, hex-encoded)
	Hash string `json:"hash"`

	// ParentHash links to the previous node hash.
	// This will be nil for root nodes.
	ParentHash *string `json:"parent_hash"`

	// Bucket is the hashable content for the node
	Bucket Bucket `json:"bucket"`
}

// NewNode creates a new node with the computed hash for the provided bucket
func NewNode(bucket Bucket, parent *Node) *Node {
	n := &Node{
		Bucket: bucket,
	}

	if parent != nil {
		n.ParentHash = &parent.Hash
	}

	n.Hash = n.computeHash()
	return n
}

type input struct {
	Bucket Bucket `json:"bucket"`
	Parent string `json:"parent,omitempty"`
}

// computeHash calculates the content-addressed hash for a node
func (n *Node) computeHash() string {
	i := &input{
		Bucket: n.Bucket,
	}

	if n.ParentHash != nil {
		i.Parent = *n.ParentHash
	}

	// Struct field order makes the encoding deterministic
	data, err := json.Marshal(i)
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
