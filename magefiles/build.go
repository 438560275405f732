//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
)

const (
	shaderSources = "assets/shaders"
	// Must match resources.shaders_dir and resources.manifest in vulcan.toml.
	shaderOutput   = "Shaders"
	shaderManifest = "index.lst"
	binary         = "bin/vulcan"
)

type Build mg.Namespace

// Compiles every GLSL stage with glslc and writes the shader manifest.
func (Build) Shaders() error {
	sources, err := shaderFiles(shaderSources)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no shader sources in %s", shaderSources)
	}
	if err := os.MkdirAll(shaderOutput, 0o755); err != nil {
		return err
	}

	var manifest strings.Builder
	seen := make(map[string]string, len(sources))
	for _, src := range sources {
		name := shaderName(src)
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("%s and %s both compile to shader %q", prev, src, name)
		}
		seen[name] = src

		out := name + ".spv"
		if _, err := executeCmd("glslc", withArgs(src, "-o", filepath.Join(shaderOutput, out)), withStream()); err != nil {
			return err
		}
		fmt.Fprintf(&manifest, "%s %s\n", name, out)
	}
	return os.WriteFile(filepath.Join(shaderOutput, shaderManifest), []byte(manifest.String()), 0o644)
}

// Compiles the shaders and builds the binary into bin/.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", binary, "."), withStream())
	return err
}

// Runs the package tests.
func Test() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

// Removes the binary and the compiled shaders.
func Clean() error {
	for _, p := range []string{"bin", shaderOutput} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return nil
}

// shaderFiles lists the vertex and fragment sources in dir, sorted.
func shaderFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.vert", "*.frag"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// shaderName is the manifest name of a source file: its base name without
// the stage extension.
func shaderName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
