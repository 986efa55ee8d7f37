// Package icons lists the SVG icons available to feed templates.
package icons

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const ext = ".svg"

// Icon is one entry of the listing.
type Icon struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Catalog caches the listing of an icon directory.
type Catalog struct {
	dir string

	mu    sync.RWMutex
	icons []Icon
}

// New scans dir once. A missing directory yields an empty listing.
func New(dir string) (*Catalog, error) {
	c := &Catalog{dir: dir}
	if err := c.Refresh(); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the cached listing sorted by name.
func (c *Catalog) List() []Icon {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.icons)
}

// Refresh rescans the directory.
func (c *Catalog) Refresh() error {
	icons, err := scan(c.dir)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.icons = icons
	c.mu.Unlock()
	return nil
}

// Watch refreshes the listing whenever an SVG in the directory changes.
// It blocks until ctx is done.
func (c *Catalog) Watch(ctx context.Context, log *zap.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(c.dir); err != nil {
		return fmt.Errorf("watch %s: %w", c.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ext) || ev.Has(fsnotify.Chmod) {
				continue
			}
			if err := c.Refresh(); err != nil {
				log.Warn("icon refresh failed", zap.Error(err))
				continue
			}
			log.Debug("icons refreshed", zap.String("event", ev.String()))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("icon watcher error", zap.Error(err))
		}
	}
}

func scan(dir string) ([]Icon, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []Icon{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read icon dir: %w", err)
	}

	icons := make([]Icon, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		icons = append(icons, Icon{Label: name, Value: name})
	}
	slices.SortFunc(icons, func(a, b Icon) int { return strings.Compare(a.Value, b.Value) })
	return icons, nil
}
