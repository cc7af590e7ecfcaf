package sse_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Ben-Eze/BibWeb/pkg/sse"
)

var _ = Describe("Writer", func() {
	var (
		buf *bytes.Buffer
		w   *sse.Writer
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		w = sse.NewWriter(buf)
	})

	It("frames an event", func() {
		Expect(w.Write(sse.Event{ID: "1", Type: "update", Data: "hello"})).To(Succeed())
		Expect(buf.String()).To(Equal("id: 1\nevent: update\ndata: hello\n\n"))
	})

	It("omits empty id and type", func() {
		Expect(w.Write(sse.Event{Data: "x"})).To(Succeed())
		Expect(buf.String()).To(Equal("data: x\n\n"))
	})

	It("splits multi-line data", func() {
		Expect(w.Write(sse.Event{Data: "a\nb"})).To(Succeed())
		Expect(buf.String()).To(Equal("data: a\ndata: b\n\n"))
	})

	It("rejects newlines in the type or id", func() {
		Expect(w.Write(sse.Event{Type: "a\nb", Data: "x"})).To(HaveOccurred())
		Expect(w.Write(sse.Event{ID: "1\r", Data: "x"})).To(HaveOccurred())
		Expect(buf.Len()).To(BeZero())
	})

	It("writes comments readers skip", func() {
		Expect(w.Comment("ping")).To(Succeed())
		Expect(w.Write(sse.Event{Data: "after"})).To(Succeed())

		r := sse.NewReader(buf)
		ev, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Data).To(Equal("after"))
	})

	It("round trips through Reader", func() {
		events := []sse.Event{
			{ID: "a", Type: "bibweb.graph.changed", Data: `{"k":1}`},
			{Data: "line one\nline two"},
			{Type: "reset", Data: ""},
		}
		for _, ev := range events {
			Expect(w.Write(ev)).To(Succeed())
		}

		r := sse.NewReader(buf)
		for _, want := range events {
			got, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(*got).To(Equal(want))
		}
	})
})
