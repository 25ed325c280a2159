package merkle_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tapechat/pkg/merkle"
)

func storerContract(open func() merkle.Storer) {
	var (
		storer merkle.Storer
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		storer = open()
	})

	AfterEach(func() {
		storer.Close()
	})

	Describe("Put and Get", func() {
		It("stores and retrieves a node", func() {
			node := merkle.NewNode(msg("user", "test content"), nil)

			isNew, err := storer.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeTrue())

			retrieved, err := storer.Get(ctx, node.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Hash).To(Equal(node.Hash))
			Expect(retrieved.Bucket).To(Equal(node.Bucket))
			Expect(retrieved.ParentHash).To(BeNil())
		})

		It("stores and retrieves a node with parent", func() {
			parent := merkle.NewNode(msg("user", "parent"), nil)
			child := merkle.NewNode(msg("assistant", "child"), parent)

			_, err := storer.Put(ctx, parent)
			Expect(err).NotTo(HaveOccurred())
			_, err = storer.Put(ctx, child)
			Expect(err).NotTo(HaveOccurred())

			retrieved, err := storer.Get(ctx, child.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.ParentHash).To(HaveValue(Equal(parent.Hash)))
		})

		It("returns ErrNotFound for non-existent hash", func() {
			_, err := storer.Get(ctx, "nonexistent")

			var notFoundErr merkle.ErrNotFound
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
		})

		It("is idempotent for duplicate puts", func() {
			node := merkle.NewNode(msg("user", "test"), nil)

			_, err := storer.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())

			isNew, err := storer.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeFalse())

			nodes, _ := storer.List(ctx)
			Expect(nodes).To(HaveLen(1))
		})

		It("rejects nil nodes", func() {
			_, err := storer.Put(ctx, nil)
			Expect(err).To(MatchError(ContainSubstring("nil node")))
		})
	})

	Describe("Has", func() {
		It("reports stored and missing nodes", func() {
			node := merkle.NewNode(msg("user", "test"), nil)
			storer.Put(ctx, node)

			exists, err := storer.Has(ctx, node.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())

			exists, err = storer.Has(ctx, "nonexistent")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})
	})

	Describe("List", func() {
		It("returns all nodes in insertion order", func() {
			node1 := merkle.NewNode(msg("user", "node1"), nil)
			node2 := merkle.NewNode(msg("assistant", "node2"), node1)

			storer.Put(ctx, node1)
			storer.Put(ctx, node2)

			nodes, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(HaveLen(2))
			Expect(nodes[0].Hash).To(Equal(node1.Hash))
			Expect(nodes[1].Hash).To(Equal(node2.Hash))
		})

		It("returns empty slice for empty store", func() {
			nodes, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(BeEmpty())
		})
	})

	Describe("Leaves", func() {
		It("returns the end of every chain", func() {
			root := merkle.NewNode(msg("user", "root"), nil)
			child := merkle.NewNode(msg("assistant", "child"), root)
			other := merkle.NewNode(msg("user", "other root"), nil)

			storer.Put(ctx, root)
			storer.Put(ctx, child)
			storer.Put(ctx, other)

			leaves, err := storer.Leaves(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(leaves).To(HaveLen(2))
			Expect(leaves[0].Hash).To(Equal(child.Hash))
			Expect(leaves[1].Hash).To(Equal(other.Hash))
		})
	})

	Describe("Ancestry", func() {
		It("returns path from node to root", func() {
			root := merkle.NewNode(msg("user", "root"), nil)
			child := merkle.NewNode(msg("assistant", "child"), root)
			grandchild := merkle.NewNode(msg("user", "grandchild"), child)

			storer.Put(ctx, root)
			storer.Put(ctx, child)
			storer.Put(ctx, grandchild)

			path, err := storer.Ancestry(ctx, grandchild.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(HaveLen(3))
			Expect(path[0].Bucket.Content).To(Equal("grandchild"))
			Expect(path[1].Bucket.Content).To(Equal("child"))
			Expect(path[2].Bucket.Content).To(Equal("root"))
		})

		It("fails for unknown nodes", func() {
			_, err := storer.Ancestry(ctx, "nonexistent")
			Expect(err).To(HaveOccurred())
		})
	})
}

var _ = Describe("MemoryStorer", func() {
	storerContract(func() merkle.Storer { return merkle.NewMemoryStorer() })
})

var _ = Describe("SQLiteStorer", func() {
	storerContract(func() merkle.Storer {
		s, err := merkle.NewSQLiteStorer(":memory:")
		Expect(err).NotTo(HaveOccurred())
		return s
	})

	It("creates a file database that survives reopening", func() {
		ctx := context.Background()
		dbPath := filepath.Join(GinkgoT().TempDir(), "test.db")

		s, err := merkle.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		node := merkle.NewNode(msg("user", "persisted"), nil)
		_, err = s.Put(ctx, node)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Close()).To(Succeed())

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())

		reopened, err := merkle.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer reopened.Close()

		exists, err := reopened.Has(ctx, node.Hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue())
	})
})
