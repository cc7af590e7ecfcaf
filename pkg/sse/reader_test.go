package sse_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Ben-Eze/BibWeb/pkg/sse"
)

var _ = Describe("Reader", func() {
	next := func(r *sse.Reader) *sse.Event {
		ev, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		return ev
	}

	Describe("Next", func() {
		Context("with standard SSE events", func() {
			It("parses a single event", func() {
				r := sse.NewReader(strings.NewReader("data: hello world\n\n"))

				ev := next(r)
				Expect(ev.Data).To(Equal("hello world"))
				Expect(ev.Type).To(BeEmpty())
				Expect(ev.ID).To(BeEmpty())

				Expect(next(r)).To(BeNil())
			})

			It("parses multiple events", func() {
				r := sse.NewReader(strings.NewReader("data: first\n\ndata: second\n\n"))

				Expect(next(r).Data).To(Equal("first"))
				Expect(next(r).Data).To(Equal("second"))
				Expect(next(r)).To(BeNil())
			})

			It("parses event type and id", func() {
				r := sse.NewReader(strings.NewReader("id: 7\nevent: bibweb.graph.changed\ndata: {\"change\":{\"kind\":\"add\"}}\n\n"))

				ev := next(r)
				Expect(ev.ID).To(Equal("7"))
				Expect(ev.Type).To(Equal("bibweb.graph.changed"))
				Expect(ev.Data).To(Equal(`{"change":{"kind":"add"}}`))
			})

			It("joins multiple data lines with newline", func() {
				r := sse.NewReader(strings.NewReader("data: line1\ndata: line2\ndata: line3\n\n"))
				Expect(next(r).Data).To(Equal("line1\nline2\nline3"))
			})

			It("keeps empty data lines", func() {
				r := sse.NewReader(strings.NewReader("data:\ndata: after\n\n"))
				Expect(next(r).Data).To(Equal("\nafter"))
			})
		})

		Context("with SSE comments", func() {
			It("skips keep-alive comments", func() {
				r := sse.NewReader(strings.NewReader(": ping\n\n: ping\n\ndata: real\n\n"))
				Expect(next(r).Data).To(Equal("real"))
				Expect(next(r)).To(BeNil())
			})
		})

		Context("with data field variations", func() {
			It("handles data field with no space after colon", func() {
				r := sse.NewReader(strings.NewReader("data:no-space\n\n"))
				Expect(next(r).Data).To(Equal("no-space"))
			})

			It("strips only one leading space", func() {
				r := sse.NewReader(strings.NewReader("data:  two\n\n"))
				Expect(next(r).Data).To(Equal(" two"))
			})
		})

		Context("edge cases", func() {
			It("returns nil on empty input", func() {
				Expect(next(sse.NewReader(strings.NewReader("")))).To(BeNil())
			})

			It("returns nil on input with only blank lines", func() {
				Expect(next(sse.NewReader(strings.NewReader("\n\n\n")))).To(BeNil())
			})

			It("yields event when stream ends without trailing blank line", func() {
				r := sse.NewReader(strings.NewReader("data: trailing"))
				Expect(next(r).Data).To(Equal("trailing"))
				Expect(next(r)).To(BeNil())
			})

			It("ignores unknown fields and retry", func() {
				r := sse.NewReader(strings.NewReader("retry: 3000\nfoo: bar\ndata: kept\n\n"))
				Expect(next(r).Data).To(Equal("kept"))
			})

			It("treats a lone unknown field as no event", func() {
				r := sse.NewReader(strings.NewReader("retry: 3000\n\n"))
				Expect(next(r)).To(BeNil())
			})
		})
	})
})
