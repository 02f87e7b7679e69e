package framework

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/onsi/gomega"
)

func GetTimeout() time.Duration {
	if runtime.GOOS == "windows" {
		return 600 * time.Second
	}

	return 60 * time.Second
}

func ExpectNoError(err error) {
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())
}

func CreateTempDir() (string, error) {
	dir, err := os.MkdirTemp("", "easytier-e2e-*")
	if err != nil {
		return "", err
	}

	// Make sure temp dir path is an absolute path
	return filepath.EvalSymlinks(dir)
}
