package sandbox

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ChallengeBox is a per-challenge scratch directory: a "file" subdirectory
// holding staged inputs and copied-out artifacts, and a "fifo" subdirectory
// for named pipes. Filenames inside it are generated by the engine and must
// be unique per challenge.
type ChallengeBox struct {
	Root       string
	FIFOFolder string
	FileFolder string
}

// NewChallengeBox creates and returns a scratch directory rooted at
// baseTmpPath/<id>. The caller owns calling Cleanup once the challenge ends.
func NewChallengeBox(baseTmpPath string, id int64) (*ChallengeBox, error) {
	root := filepath.Join(baseTmpPath, fmt.Sprint(id))
	b := &ChallengeBox{
		Root:       root,
		FIFOFolder: filepath.Join(root, "fifo"),
		FileFolder: filepath.Join(root, "file"),
	}
	if err := os.Mkdir(b.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}
	if err := os.Mkdir(b.FileFolder, 0o755); err != nil {
		return nil, fmt.Errorf("create file folder: %w", err)
	}
	if err := os.Mkdir(b.FIFOFolder, 0o755); err != nil {
		return nil, fmt.Errorf("create fifo folder: %w", err)
	}
	return b, nil
}

// GenFilePath returns the path a file named name would have in the file
// store, whether or not it currently exists.
func (b *ChallengeBox) GenFilePath(name string) string {
	return filepath.Join(b.FileFolder, name)
}

// GenFIFOPath returns the path a named pipe named name would have.
func (b *ChallengeBox) GenFIFOPath(name string) string {
	return filepath.Join(b.FIFOFolder, name)
}

// GetFile returns the path to name in the file store, or "" if it doesn't
// exist.
func (b *ChallengeBox) GetFile(name string) string {
	path := b.GenFilePath(name)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// DeleteFile removes name from the file store if present. Missing files are
// not an error.
func (b *ChallengeBox) DeleteFile(name string) {
	_ = os.Remove(b.GenFilePath(name))
}

// Cleanup removes the entire scratch directory, including any leftover
// named pipes.
func (b *ChallengeBox) Cleanup() error {
	return os.RemoveAll(b.Root)
}

// allocWorkdir reserves a fresh per-invocation working directory tagged with
// a random uuid, mirroring the original's ChallengeBox.__alloc_workdir.
func (b *ChallengeBox) allocWorkdir() (string, error) {
	workdir := filepath.Join(b.Root, "sandbox_"+uuid.NewString())
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return "", fmt.Errorf("alloc workdir: %w", err)
	}
	return workdir, nil
}
