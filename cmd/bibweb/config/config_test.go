package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bibweb-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .bibweb dir so the manager picks it up
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".bibweb"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	run := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetOut(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(run("set", "assets.provider", "sqlite")).To(Succeed())
			Expect(filepath.Join(tmpDir, ".bibweb", "config.toml")).To(BeARegularFile())
		})

		It("rejects unknown keys", func() {
			Expect(run("set", "invalid_key", "value")).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			Expect(run("set", "assets.provider")).To(HaveOccurred())
		})

		It("rejects an unknown assets provider", func() {
			Expect(run("set", "assets.provider", "floppy")).To(HaveOccurred())
		})

		It("rejects invalid durations", func() {
			Expect(run("set", "restore.settle_delay", "soon")).To(HaveOccurred())
		})

		It("rejects a non-numeric quota", func() {
			Expect(run("set", "storage.quota_bytes", "lots")).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(run("set", "restore.fallback_delay", "2s")).To(Succeed())
			out.Reset()

			Expect(run("get", "restore.fallback_delay")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("2s"))
		})

		It("reports defaults when no config file exists", func() {
			Expect(run("get", "api.listen")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(":8090"))
		})

		It("shows unset keys", func() {
			Expect(run("get", "backup.schedule")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			Expect(run("get", "nope")).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			Expect(run("set", "events.brokers", "a:9092, b:9092")).To(Succeed())
			out.Reset()

			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("assets.provider"))
			Expect(out.String()).To(ContainSubstring(`"a:9092,b:9092"`))
			Expect(out.String()).To(ContainSubstring("backup.dir"))
		})

		It("rejects arguments", func() {
			Expect(run("list", "extra")).To(HaveOccurred())
		})
	})
})
