package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/xxh3"
	"gopkg.in/yaml.v3"
)

// entry is one record in a list file: either a plain string or a mapping
// with text, key and detail.
type entry struct {
	Key    string `yaml:"key"`
	Text   string `yaml:"text"`
	Detail string `yaml:"detail"`
}

func (e *entry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		e.Text = value.Value
		return nil
	}
	type plain entry
	return value.Decode((*plain)(e))
}

// ReadFile parses a YAML or JSON list file into items of one group named
// after the file. Items without a key get one derived from the file path
// and their text.
func ReadFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	group := GroupName(path)
	seen := make(map[string]bool, len(entries))
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		base := e.Key
		if base == "" {
			base = DeriveKey(path, e.Text)
		}
		key := base
		for n := 1; seen[key]; n++ {
			key = base + "#" + strconv.Itoa(n)
		}
		seen[key] = true
		items = append(items, Item{Key: key, Group: group, Text: e.Text, Detail: e.Detail})
	}
	return items, nil
}

// GroupName returns the group key used for a file.
func GroupName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// DeriveKey hashes a path and an item text into a stable key.
func DeriveKey(path, text string) string {
	return strconv.FormatUint(xxh3.HashString(path+"\x00"+text), 16)
}

// File is a grouped source backed by list files, one group per file.
type File struct {
	*Memory

	mu     sync.Mutex
	paths  []string
	counts map[string]int
}

// OpenFiles loads every path into one grouped source.
func OpenFiles(paths []string, opts ...MemoryOption) (*File, error) {
	f := &File{counts: make(map[string]int, len(paths))}
	var all []Item
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		items, err := ReadFile(abs)
		if err != nil {
			return nil, err
		}
		f.paths = append(f.paths, abs)
		f.counts[abs] = len(items)
		all = append(all, items...)
	}
	mem, err := NewMemory(all, append(opts, WithGrouping())...)
	if err != nil {
		return nil, err
	}
	f.Memory = mem
	return f, nil
}

// Paths returns the absolute paths of the files.
func (f *File) Paths() []string { return f.paths }

// Refresh re-reads path and replaces its group in one batch.
func (f *File) Refresh(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := 0
	found := false
	for _, p := range f.paths {
		if p == path {
			found = true
			break
		}
		start += f.counts[p]
	}
	if !found {
		return fmt.Errorf("refresh %s: not part of the source", path)
	}
	items, err := ReadFile(path)
	if err != nil {
		return err
	}
	if err := f.Replace(start, f.counts[path], items...); err != nil {
		return fmt.Errorf("refresh %s: %w", path, err)
	}
	f.counts[path] = len(items)
	return nil
}

// Watch refreshes files when they change on disk until ctx is done. Every
// refresh runs through apply so that it happens on the caller's turn.
func (f *File) Watch(ctx context.Context, apply func(func())) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	dirs := make(map[string]bool)
	for _, p := range f.paths {
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	tracked := make(map[string]bool, len(f.paths))
	for _, p := range f.paths {
		tracked[p] = true
	}
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !tracked[ev.Name] || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				path := ev.Name
				apply(func() {
					if err := f.Refresh(path); err != nil {
						slog.Warn("Failed to refresh list file", "path", path, "error", err)
					}
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if !errors.Is(err, fsnotify.ErrEventOverflow) {
					slog.Error("File watcher error", "error", err)
				}
			}
		}
	}()
	return nil
}
