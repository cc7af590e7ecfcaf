// Package cmdtest runs bibweb subcommands against a throwaway workspace in
// ginkgo specs.
package cmdtest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/pkg/session"
)

// Workspace is a temporary working directory holding a local .bibweb/.
type Workspace struct {
	Root string
	Dir  string

	origDir string
}

// Setup creates the workspace and changes into it. Call Teardown from an
// AfterEach.
func Setup() *Workspace {
	root, err := os.MkdirTemp("", "bibweb-cmd-test-*")
	Expect(err).NotTo(HaveOccurred())

	origDir, err := os.Getwd()
	Expect(err).NotTo(HaveOccurred())

	dir := filepath.Join(root, ".bibweb")
	Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
	Expect(os.Chdir(root)).To(Succeed())

	return &Workspace{Root: root, Dir: dir, origDir: origDir}
}

// Teardown restores the working directory and removes the workspace.
func (w *Workspace) Teardown() {
	Expect(os.Chdir(w.origDir)).To(Succeed())
	os.RemoveAll(w.Root)
}

// Run executes cmd with args and returns everything it printed.
func (w *Workspace) Run(cmd *cobra.Command, args ...string) (string, error) {
	return w.RunWithInput(cmd, "", args...)
}

// RunWithInput is Run with stdin.
func (w *Workspace) RunWithInput(cmd *cobra.Command, stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// Open opens the workspace the way the commands do. The session is closed
// when the test ends.
func (w *Workspace) Open() *session.Session {
	s, err := session.Open(context.Background(), session.Options{Dir: w.Dir})
	Expect(err).NotTo(HaveOccurred())
	ginkgo.DeferCleanup(s.Close)
	return s
}

// Seed opens the workspace, lets fn change it and closes it again so the
// changes are on disk before a command runs.
func (w *Workspace) Seed(fn func(s *session.Session)) {
	s, err := session.Open(context.Background(), session.Options{Dir: w.Dir})
	Expect(err).NotTo(HaveOccurred())
	fn(s)
	Expect(s.Close()).To(Succeed())
}
