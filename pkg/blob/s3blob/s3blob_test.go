package s3blob_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/blob/blobtest"
	"github.com/Ben-Eze/BibWeb/pkg/blob/s3blob"
)

var _ = Describe("Driver", func() {
	blobtest.DescribeStore(func() blob.Store {
		d, err := s3blob.NewDriver(newFakeS3(), &s3blob.Config{Bucket: "papers", Prefix: "bibweb"})
		Expect(err).NotTo(HaveOccurred())
		return d
	})

	It("requires a bucket", func() {
		_, err := s3blob.NewDriver(newFakeS3(), &s3blob.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("keys assets under the prefix", func() {
		fake := newFakeS3()
		d, err := s3blob.NewDriver(fake, &s3blob.Config{Bucket: "papers", Prefix: "bibweb"})
		Expect(err).NotTo(HaveOccurred())

		Expect(d.Put(context.Background(), blob.NewAsset("a.pdf", []byte("a"), ""))).To(Succeed())
		Expect(fake.objects).To(HaveKey("bibweb/assets/a.pdf"))
	})

	It("does not trip the breaker on missing assets", func() {
		d, err := s3blob.NewDriver(newFakeS3(), &s3blob.Config{Bucket: "papers"})
		Expect(err).NotTo(HaveOccurred())

		for range 10 {
			_, err := d.Get(context.Background(), "missing.pdf")
			Expect(blob.IsNotFound(err)).To(BeTrue())
		}
		_, err = d.List(context.Background())
		Expect(err).NotTo(HaveOccurred())
	})

	It("fails fast once the bucket keeps failing", func() {
		fake := newFakeS3()
		d, err := s3blob.NewDriver(fake, &s3blob.Config{Bucket: "papers", BreakerTimeout: time.Hour})
		Expect(err).NotTo(HaveOccurred())

		fake.setFailure(errUnreachable)
		for range 5 {
			_, err := d.Has(context.Background(), "a.pdf")
			Expect(err).To(MatchError(errUnreachable))
		}

		fake.setFailure(nil)
		_, err = d.Has(context.Background(), "a.pdf")
		Expect(err).To(MatchError(ContainSubstring("s3 unavailable")))
	})
})
