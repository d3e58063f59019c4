package task

import (
	"io"
	"os"
)

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func copyAll(dst io.Writer, src io.Reader) {
	_, _ = io.Copy(dst, src)
}
