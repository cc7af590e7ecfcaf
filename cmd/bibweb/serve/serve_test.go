package servecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdtest"
	servecmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/serve"
)

var _ = Describe("NewServeCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
	})

	It("registers the listen and backup flags", func() {
		cmd := servecmder.NewServeCmd()

		listen := cmd.Flags().Lookup("listen")
		Expect(listen).NotTo(BeNil())
		Expect(listen.Shorthand).To(Equal("l"))
		Expect(listen.DefValue).To(Equal(":8090"))

		Expect(cmd.Flags().Lookup("backup-schedule")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("backup-dir")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("assets-provider")).NotTo(BeNil())
	})

	It("rejects any arguments", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})
})

var _ = Describe("Serve command execution", func() {
	var ws *cmdtest.Workspace

	BeforeEach(func() {
		ws = cmdtest.Setup()
	})

	AfterEach(func() {
		ws.Teardown()
	})

	It("fails fast on an invalid backup schedule", func() {
		_, err := ws.Run(servecmder.NewServeCmd(), "--backup-schedule", "whenever")
		Expect(err).To(MatchError(ContainSubstring("invalid backup schedule")))
	})

	It("fails fast on an unknown assets provider", func() {
		_, err := ws.Run(servecmder.NewServeCmd(), "--assets-provider", "floppy")
		Expect(err).To(MatchError(ContainSubstring("unknown assets provider")))
	})
})
