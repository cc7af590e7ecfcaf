package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/bibweb/internal/dagger"
)

// Build and return directory of go binaries
func (b *BibWeb) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	// CGO rules out cross compiling from one container, so each
	// architecture builds on its own platform.
	goarches := []string{"amd64", "arm64"}

	outputs := dag.Directory()

	for _, goarch := range goarches {
		path := fmt.Sprintf("linux/%s/", goarch)

		build := b.goContainer(dagger.Platform("linux/"+goarch)).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/bibweb"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (b *BibWeb) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/Ben-Eze/BibWeb/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/Ben-Eze/BibWeb/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/Ben-Eze/BibWeb/pkg/utils.Buildtime=%s'", buildtime),
	}

	return b.Build(ctx, strings.Join(ldflags, " "))
}
