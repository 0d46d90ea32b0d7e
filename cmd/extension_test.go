package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtensionMechanism(t *testing.T) {
	tempDir := t.TempDir()

	// pitc-hello prints the environment it received.
	helloCmdSource := fmt.Sprintf(`
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("args=%%v\n", os.Args[1:])
}
`, EnvCacheDir, EnvCacheDir, EnvVerbose, EnvVerbose)

	helloCmdPath := filepath.Join(tempDir, "pitc-hello")
	srcFile := helloCmdPath + ".go"
	if err := os.WriteFile(srcFile, []byte(helloCmdSource), 0644); err != nil {
		t.Fatalf("Failed to write pitc-hello source: %v", err)
	}
	build := exec.Command("go", "build", "-o", helloCmdPath, srcFile)
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("Failed to compile pitc-hello: %v", err)
	}

	pitcBinaryPath := filepath.Join(tempDir, "pitc")
	build = exec.Command("go", "build", "-o", pitcBinaryPath, "../pitc")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("Failed to compile pitc binary: %v", err)
	}

	expectedCacheDir := filepath.Join(tempDir, "rates")
	pitcCmd := exec.Command(pitcBinaryPath, "-cache-dir", expectedCacheDir, "-v", "hello", "world")
	pitcCmd.Dir = tempDir
	pitcCmd.Env = []string{"PATH=" + tempDir + string(os.PathListSeparator) + os.Getenv("PATH")}

	var stdout, stderr bytes.Buffer
	pitcCmd.Stdout = &stdout
	pitcCmd.Stderr = &stderr
	if err := pitcCmd.Run(); err != nil {
		t.Fatalf("pitc command failed: %v\nStdout: %s\nStderr: %s", err, stdout.String(), stderr.String())
	}

	output := stdout.String()
	for _, expectedLine := range []string{
		EnvCacheDir + "=" + expectedCacheDir,
		EnvVerbose + "=true",
		"args=[world]",
	} {
		if !strings.Contains(output, expectedLine) {
			t.Errorf("Expected output to contain %q, but got:\n%s", expectedLine, output)
		}
	}
}
