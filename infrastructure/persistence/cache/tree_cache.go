// Package cache holds the optional invalidate-on-write cache in front of the
// knowledge tree scanner.
package cache

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"famorg/application/ports"
	"famorg/domain/core/entities"
	domainevents "famorg/domain/events"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Observer counts cache hits and misses
type Observer interface {
	CacheHit()
	CacheMiss()
}

// TreeCache memoizes the scanned tree until a write invalidates it.
// Writes made through this process invalidate via domain events; changes
// made behind our back are picked up by an optional fsnotify watcher.
type TreeCache struct {
	scanner  ports.TreeScanner
	logger   *zap.Logger
	observer Observer

	mu         sync.RWMutex
	tree       []*entities.TreeNode
	valid      bool
	generation uint64

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

var _ ports.TreeScanner = (*TreeCache)(nil)

// NewTreeCache wraps scanner
func NewTreeCache(scanner ports.TreeScanner, logger *zap.Logger) *TreeCache {
	return &TreeCache{
		scanner: scanner,
		logger:  logger,
	}
}

// WithObserver attaches a hit/miss observer
func (c *TreeCache) WithObserver(o Observer) *TreeCache {
	c.observer = o
	return c
}

// Scan returns the cached tree or rescans. The returned nodes are shared
// between callers and must be treated as read-only.
func (c *TreeCache) Scan(ctx context.Context) ([]*entities.TreeNode, error) {
	c.mu.RLock()
	if c.valid {
		tree := c.tree
		c.mu.RUnlock()
		if c.observer != nil {
			c.observer.CacheHit()
		}
		return tree, nil
	}
	gen := c.generation
	c.mu.RUnlock()

	if c.observer != nil {
		c.observer.CacheMiss()
	}

	tree, err := c.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	// Only keep the result if nothing was invalidated while scanning.
	if c.generation == gen {
		c.tree = tree
		c.valid = true
	}
	c.mu.Unlock()
	return tree, nil
}

// Invalidate drops the cached tree
func (c *TreeCache) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.valid = false
	c.tree = nil
	c.mu.Unlock()
}

// HandleEvent invalidates on any event that changes the tree
func (c *TreeCache) HandleEvent(_ context.Context, evt domainevents.DomainEvent) {
	if domainevents.ChangesTree(evt) {
		c.Invalidate()
	}
}

// Watch starts watching root (recursively) for external changes.
// fsnotify watches single directories, so new subdirectories are added as
// they appear.
func (c *TreeCache) Watch(root string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries we can't access
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				c.logger.Warn("Failed to watch directory", zap.String("path", path), zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		w.Close()
		return fmt.Errorf("failed to walk knowledge root: %w", err)
	}

	c.watcher = w
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.watchLoop()

	c.logger.Info("Knowledge tree watcher started", zap.String("root", root))
	return nil
}

func (c *TreeCache) watchLoop() {
	defer close(c.doneCh)
	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue // temporary files of in-flight writes
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := c.watcher.Add(event.Name); err != nil {
						c.logger.Warn("Failed to watch directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			c.logger.Debug("Knowledge tree changed on disk",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)
			c.Invalidate()

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("Knowledge tree watcher error", zap.Error(err))

		case <-c.stopCh:
			return
		}
	}
}

// Close stops the watcher if one is running
func (c *TreeCache) Close() error {
	if c.watcher == nil {
		return nil
	}
	close(c.stopCh)
	<-c.doneCh
	err := c.watcher.Close()
	c.watcher = nil
	return err
}
