//go:build ignore
// +build ignore

// Build "script" for the platconf release packages
// Use by executing "go run build.go"
// Every archive ships the binary together with the sample boards, and the
// headers generated for those boards are left in dist/headers as a smoke test.

package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const dist = "dist"

func main() {
	version := strings.TrimSpace(ExecCommand("git", "describe", "--tags"))
	version = strings.TrimPrefix(version, "v")

	if err := os.MkdirAll(filepath.Join(dist, "headers"), 0755); err != nil {
		fail(err)
	}

	GenerateHeaders()

	targets := []struct{ os, arch string }{
		{"linux", "386"}, {"linux", "amd64"}, {"linux", "arm"}, {"linux", "arm64"},
		{"darwin", "amd64"}, {"darwin", "arm64"},
		{"windows", "386"}, {"windows", "amd64"}, {"windows", "arm64"},
	}

	defer func() {
		_ = os.Remove("platconf")
		_ = os.Remove("platconf.exe")
	}()

	for _, target := range targets {
		ExecBuild(target.arch, target.os)
		arName := fmt.Sprintf("platconf_%s_%s_%s", version, target.os, target.arch)
		if target.os == "windows" {
			arName += ".zip"
			ExecCommand("zip", "-r", arName, "platconf.exe", "boards")
		} else {
			arName += ".tar.gz"
			ExecCommand("tar", "-czvf", arName, "platconf", "boards")
		}

		if err := os.Rename(arName, filepath.Join(dist, arName)); err != nil {
			fail(err)
		}
	}
}

// GenerateHeaders runs the generator on every sample board.
func GenerateHeaders() {
	entries, err := os.ReadDir("boards")
	if err != nil {
		fail(err)
	}

	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		out := filepath.Join(dist, "headers", name+".h")
		ExecCommand("go", "run", ".", "-quiet", "-verify", "-o", out, name)
	}
}

func ExecCommand(c string, args ...string) string {
	cmd := exec.Command(c, args...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		fail(err)
	}
	return buf.String()
}

func ExecBuild(arch, osName string) {
	cmd := exec.Command("go", "build", "-o", binaryName(osName))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "GOARCH="+arch, "GOOS="+osName, "CGO_ENABLED=0")

	if err := cmd.Run(); err != nil {
		fail(err)
	}
}

func binaryName(osName string) string {
	if osName == "windows" {
		return "platconf.exe"
	}
	return "platconf"
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %s\n", err)
	os.Exit(1)
}
