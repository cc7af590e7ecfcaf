package dotdir_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Ben-Eze/BibWeb/pkg/dotdir"
)

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	chdir := func(dir string) {
		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(func() { os.Chdir(origDir) })
	}

	Describe("Target", func() {
		It("creates the directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("returns the override dir even when a local .bibweb dir exists", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".bibweb"), 0o755)).To(Succeed())
			chdir(tmpDir)

			overrideDir := filepath.Join(tmpDir, "override")
			result, err := m.Target(overrideDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(overrideDir))
		})

		It("returns the local .bibweb dir when it exists and no override is provided", func() {
			local := filepath.Join(tmpDir, ".bibweb")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())
			chdir(tmpDir)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("falls back to the home directory", func() {
			emptyDir := filepath.Join(tmpDir, "empty")
			Expect(os.Mkdir(emptyDir, 0o755)).To(Succeed())
			chdir(emptyDir)

			origHome := os.Getenv("HOME")
			Expect(os.Setenv("HOME", tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Setenv("HOME", origHome) })

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, ".bibweb")))
		})
	})

	Describe("InitLocal", func() {
		It("creates .bibweb in the working directory", func() {
			chdir(tmpDir)
			result, err := m.InitLocal()
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, ".bibweb")))
			Expect(filepath.Join(tmpDir, ".bibweb")).To(BeADirectory())
		})
	})

	Describe("backup state", func() {
		It("returns nil when nothing has been recorded", func() {
			state, err := m.LoadBackupState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("round-trips a saved state", func() {
			at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			Expect(m.SaveBackupState(&dotdir.BackupState{LastBackupAt: at, Path: "/b/web.zip", Format: "zip"}, tmpDir)).To(Succeed())

			state, err := m.LoadBackupState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state.LastBackupAt.Equal(at)).To(BeTrue())
			Expect(state.Path).To(Equal("/b/web.zip"))
			Expect(state.Format).To(Equal("zip"))
		})

		It("rejects a nil state", func() {
			Expect(m.SaveBackupState(nil, tmpDir)).To(HaveOccurred())
		})

		It("reports a corrupt file", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "backup.json"), []byte("{"), 0o600)).To(Succeed())
			_, err := m.LoadBackupState(tmpDir)
			Expect(err).To(HaveOccurred())
		})
	})
})
