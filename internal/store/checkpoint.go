package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Checkpoint is the persisted sync cursor for one gateway.
type Checkpoint struct {
	Name      string    `json:"name"`
	Cursor    uint64    `json:"cursor"`
	Timestamp time.Time `json:"timestamp"`
}

type Checkpointer interface {
	// Load the last checkpoint, or nil when none was saved
	Load(ctx context.Context, name string) (*Checkpoint, error)

	// Save a checkpoint
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Delete checkpoint data
	Delete(ctx context.Context, name string) error
}

type NoopCheckpointer struct{}

func (n *NoopCheckpointer) Load(ctx context.Context, name string) (*Checkpoint, error) {
	return nil, nil
}
func (n *NoopCheckpointer) Save(ctx context.Context, checkpoint *Checkpoint) error {
	return nil
}
func (n *NoopCheckpointer) Delete(ctx context.Context, name string) error {
	return nil
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// CheckpointName derives a stable checkpoint name from a gateway URL.
func CheckpointName(baseURL string) string {
	name := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		name = u.Host + u.Path
	}
	name = strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
	if name == "" {
		return "default"
	}
	return name
}

// FileCheckpointer keeps one JSON file per checkpoint name under baseDir.
type FileCheckpointer struct {
	baseDir string
	logger  *zap.Logger
	mu      sync.Mutex
}

func NewFileCheckpointer(baseDir string, logger *zap.Logger) *FileCheckpointer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileCheckpointer{
		baseDir: baseDir,
		logger:  logger,
	}
}

func (f *FileCheckpointer) path(name string) string {
	return filepath.Join(f.baseDir, name+".checkpoint")
}

func (f *FileCheckpointer) Load(ctx context.Context, name string) (*Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path(name))
	if os.IsNotExist(err) {
		f.logger.Info("no checkpoint found", zap.String("name", name))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal(raw, &checkpoint); err != nil {
		return nil, fmt.Errorf("decoding checkpoint: %w", err)
	}

	f.logger.Info("checkpoint loaded",
		zap.String("name", name),
		zap.Uint64("cursor", checkpoint.Cursor),
		zap.Time("timestamp", checkpoint.Timestamp),
	)
	return &checkpoint, nil
}

func (f *FileCheckpointer) Save(ctx context.Context, checkpoint *Checkpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.baseDir, 0755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}

	raw, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}

	if err := writeFileAtomic(f.path(checkpoint.Name), raw, 0644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}

	f.logger.Debug("checkpoint saved",
		zap.String("name", checkpoint.Name),
		zap.Uint64("cursor", checkpoint.Cursor),
	)
	return nil
}

func (f *FileCheckpointer) Delete(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it into place.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
