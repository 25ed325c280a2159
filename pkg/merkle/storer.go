package merkle

import "context"

// Storer persists and retrieves nodes. De-duplication happens
// automatically via content-addressing: identical content with an
// identical parent produces an identical hash and is stored once.
type Storer interface {
	// Put stores a node and reports whether it was new.
	// Storing an existing hash is a no-op.
	Put(ctx context.Context, node *Node) (bool, error)

	// Get retrieves a node by its hash. Returns ErrNotFound if the node doesn't exist.
	Get(ctx context.Context, hash string) (*Node, error)

	// Has checks if a node exists by its hash.
	Has(ctx context.Context, hash string) (bool, error)

	// List returns all nodes in insertion order.
	List(ctx context.Context) ([]*Node, error)

	// Leaves returns all leaf nodes (nodes with no children) in insertion order.
	Leaves(ctx context.Context) ([]*Node, error)

	// Ancestry returns the path from a node back to its root (node first, root last).
	Ancestry(ctx context.Context, hash string) ([]*Node, error)

	// Close closes the store and releases any resources.
	Close() error
}

// ErrNotFound is returned when a node doesn't exist in the store.
type ErrNotFound struct {
	Hash string
}

func (e ErrNotFound) Error() string {
	if e.Hash == "" {
		return "node not found"
	}

	return "node not found: " + e.Hash
}

// ancestry walks parent links with get until a root is reached.
func ancestry(ctx context.Context, hash string, get func(context.Context, string) (*Node, error)) ([]*Node, error) {
	var path []*Node
	for current := &hash; current != nil; {
		node, err := get(ctx, *current)
		if err != nil {
			return nil, err
		}
		path = append(path, node)
		current = node.ParentHash
	}
	return path, nil
}
