package sqlblob_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/blob/blobtest"
	"github.com/Ben-Eze/BibWeb/pkg/blob/sqlblob"
)

var _ = Describe("SQLite driver", func() {
	blobtest.DescribeStore(func() blob.Store {
		d, err := sqlblob.NewSQLiteDriver(":memory:")
		Expect(err).NotTo(HaveOccurred())
		return d
	})

	It("creates a database file and keeps assets across reopen", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "assets.db")
		ctx := context.Background()

		d, err := sqlblob.NewSQLiteDriver(dbPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Put(ctx, blob.NewAsset("a.pdf", []byte("a"), ""))).To(Succeed())
		Expect(d.Close()).To(Succeed())

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())

		reopened, err := sqlblob.NewSQLiteDriver(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer reopened.Close()
		ok, err := reopened.Has(ctx, "a.pdf")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})
})

var _ = Describe("PostgreSQL driver", func() {
	BeforeEach(func() {
		if os.Getenv("BIBWEB_TEST_POSTGRES_DSN") == "" {
			Skip("BIBWEB_TEST_POSTGRES_DSN not set")
		}
	})

	blobtest.DescribeStore(func() blob.Store {
		d, err := sqlblob.NewPostgresDriver(context.Background(), os.Getenv("BIBWEB_TEST_POSTGRES_DSN"))
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Clear(context.Background())).To(Succeed())
		return d
	})
})
