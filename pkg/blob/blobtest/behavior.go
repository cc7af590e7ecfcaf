// Package blobtest holds the ginkgo specs every blob.Store driver must pass.
package blobtest

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
)

// DescribeStore registers the shared driver tests. newStore is called once
// per test and its store is closed afterwards.
func DescribeStore(newStore func() blob.Store) {
	var (
		store blob.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newStore()
	})

	AfterEach(func() {
		if store != nil {
			Expect(store.Close()).To(Succeed())
			store = nil
		}
	})

	It("stores and retrieves an asset", func() {
		Expect(store.Put(ctx, blob.NewAsset("paper.pdf", []byte("%PDF-1.4"), "application/pdf"))).To(Succeed())

		got, err := store.Get(ctx, "paper.pdf")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("paper.pdf"))
		Expect(got.Data).To(Equal([]byte("%PDF-1.4")))
		Expect(got.Size).To(Equal(int64(8)))
		Expect(got.MimeType).To(Equal("application/pdf"))
		Expect(got.SavedAt).NotTo(BeZero())
	})

	It("returns ErrNotFound for a missing asset", func() {
		_, err := store.Get(ctx, "nope.pdf")
		Expect(err).To(MatchError(blob.ErrNotFound{}))
		Expect(blob.IsNotFound(err)).To(BeTrue())

		ok, err := store.Has(ctx, "nope.pdf")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("lists assets by name and sums their sizes", func() {
		Expect(store.Put(ctx, blob.NewAsset("b.pdf", []byte("bb"), ""))).To(Succeed())
		Expect(store.Put(ctx, blob.NewAsset("a.pdf", []byte("a"), ""))).To(Succeed())

		infos, err := store.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(infos).To(HaveLen(2))
		Expect(infos[0].Name).To(Equal("a.pdf"))
		Expect(infos[1].Name).To(Equal("b.pdf"))

		size, err := store.Size(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(size).To(Equal(int64(3)))
	})

	It("deletes and clears", func() {
		Expect(store.Put(ctx, blob.NewAsset("a.pdf", []byte("a"), ""))).To(Succeed())
		Expect(store.Put(ctx, blob.NewAsset("b.pdf", []byte("b"), ""))).To(Succeed())

		Expect(store.Delete(ctx, "a.pdf")).To(Succeed())
		Expect(store.Delete(ctx, "a.pdf")).To(Succeed())
		ok, err := store.Has(ctx, "a.pdf")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		Expect(store.Clear(ctx)).To(Succeed())
		infos, err := store.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(infos).To(BeEmpty())
	})

	It("keeps settings", func() {
		_, ok, err := store.GetSetting(ctx, "never-saved")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		Expect(store.SaveSetting(ctx, blob.SettingLastExportDir, "/tmp/out")).To(Succeed())
		Expect(store.SaveSetting(ctx, blob.SettingLastExportDir, "/tmp/out2")).To(Succeed())

		v, ok, err := store.GetSetting(ctx, blob.SettingLastExportDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("/tmp/out2"))
	})

	It("never overwrites on register", func() {
		first, err := blob.Register(ctx, store, blob.NewAsset("paper.pdf", []byte("one"), ""))
		Expect(err).NotTo(HaveOccurred())
		second, err := blob.Register(ctx, store, blob.NewAsset("paper.pdf", []byte("two"), ""))
		Expect(err).NotTo(HaveOccurred())

		Expect(first).To(Equal("paper.pdf"))
		Expect(second).To(Equal("paper-1.pdf"))

		a, err := store.Get(ctx, first)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Data).To(Equal([]byte("one")))
		b, err := store.Get(ctx, second)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Data).To(Equal([]byte("two")))
	})
}
