package engine

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/pkg/errors"
)

const slotExt = ".slot"

// FileSlots keeps each durable slot in its own file under a data directory.
type FileSlots struct {
	DataDir string
	mu      sync.Mutex // Protects concurrent writes to the filesystem
}

// NewFileSlots initializes a file-backed slot store.
func NewFileSlots(dir string) (*FileSlots, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dir)
	}
	return &FileSlots{DataDir: dir}, nil
}

func (p *FileSlots) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errors.Errorf("invalid slot name %q", name)
	}
	return filepath.Join(p.DataDir, name+slotExt), nil
}

// Save writes a slot atomically.
func (p *FileSlots) Save(_ context.Context, name string, data []byte) error {
	filePath, err := p.path(name)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return errors.Wrapf(err, "write slot %s", name)
	}
	// Rename replaces the file in one step: a crash leaves the old or the new content, never a mix.
	if err := os.Rename(tempPath, filePath); err != nil {
		return errors.Wrapf(err, "commit slot %s", name)
	}
	return nil
}

func (p *FileSlots) Load(_ context.Context, name string) ([]byte, error) {
	filePath, err := p.path(name)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil, pkgengine.ErrSlotNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read slot %s", name)
	}
	return data, nil
}

func (p *FileSlots) Remove(_ context.Context, name string) error {
	filePath, err := p.path(name)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove slot %s", name)
	}
	return nil
}

// Names lists every slot found in the data directory.
func (p *FileSlots) Names(_ context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	files, err := os.ReadDir(p.DataDir)
	if err != nil {
		return nil, errors.Wrapf(err, "list data dir %s", p.DataDir)
	}

	var names []string
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != slotExt {
			continue
		}
		names = append(names, strings.TrimSuffix(file.Name(), slotExt))
	}
	sort.Strings(names)
	return names, nil
}

func (p *FileSlots) Close() error { return nil }
