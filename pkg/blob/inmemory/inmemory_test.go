package inmemory_test

import (
	. "github.com/onsi/ginkgo/v2"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/blob/blobtest"
	"github.com/Ben-Eze/BibWeb/pkg/blob/inmemory"
)

var _ = Describe("Driver", func() {
	blobtest.DescribeStore(func() blob.Store {
		return inmemory.NewDriver()
	})
})
