package fsblob_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hack-pad/hackpadfs/mem"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/blob/blobtest"
	"github.com/Ben-Eze/BibWeb/pkg/blob/fsblob"
)

var _ = Describe("Driver", func() {
	Context("on a memory file system", func() {
		blobtest.DescribeStore(func() blob.Store {
			fsys, err := mem.NewFS()
			Expect(err).NotTo(HaveOccurred())
			d, err := fsblob.NewDriver(fsys)
			Expect(err).NotTo(HaveOccurred())
			return d
		})

		It("rejects names with separators", func() {
			fsys, err := mem.NewFS()
			Expect(err).NotTo(HaveOccurred())
			d, err := fsblob.NewDriver(fsys)
			Expect(err).NotTo(HaveOccurred())

			err = d.Put(context.Background(), blob.NewAsset("../escape.pdf", []byte("x"), ""))
			Expect(err).To(HaveOccurred())
		})
	})

	Context("on the host file system", func() {
		blobtest.DescribeStore(func() blob.Store {
			d, err := fsblob.NewOSDriver(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())
			return d
		})

		It("writes asset contents under data/", func() {
			dir := GinkgoT().TempDir()
			d, err := fsblob.NewOSDriver(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Put(context.Background(), blob.NewAsset("paper.pdf", []byte("pdf"), ""))).To(Succeed())

			data, err := os.ReadFile(filepath.Join(dir, "data", "paper.pdf"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("pdf"))
		})
	})
})
