package policy

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"

	"github.com/viant/afs"
)

// ModulePath resolves the module path declared in the go.mod found at or
// above dir, the same technique inspector/repository/detector.go uses to
// name a detected Go project. cmd/callguard-instrument calls this to stamp
// Artifact.ModulePath with the module the analyzed package belongs to.
func ModulePath(dir string) (string, error) {
	goModPath, err := findGoMod(dir)
	if err != nil {
		return "", err
	}
	fs := afs.New()
	if content, err := fs.DownloadWithURL(context.Background(), goModPath); err == nil && len(content) > 0 {
		if mod, err := modfile.Parse(goModPath, content, nil); err == nil && mod != nil && mod.Module != nil {
			return mod.Module.Mod.Path, nil
		}
	}
	data, err := os.ReadFile(goModPath)
	if err != nil {
		return "", err
	}
	mod, err := modfile.Parse(goModPath, data, nil)
	if err != nil || mod.Module == nil {
		return "", &ErrMalformedArtifact{Reason: "go.mod has no module directive: " + goModPath}
	}
	return mod.Module.Mod.Path, nil
}

// findGoMod walks up from dir looking for go.mod, stopping at the
// filesystem root.
func findGoMod(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &ErrMalformedArtifact{Reason: "no go.mod found above " + dir}
		}
		dir = parent
	}
}
