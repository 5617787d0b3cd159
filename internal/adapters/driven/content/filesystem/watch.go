package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/logger"
)

// debounce is how long the watcher waits for a burst of events to settle.
const debounce = 250 * time.Millisecond

// Watch implements driven.ContentWatcher. It returns nil once ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func(section domain.SectionID)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := s.addTree(watcher, s.root); err != nil {
		return err
	}

	pending := make(map[domain.SectionID]bool)
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			section, ok := s.handleFsEvent(watcher, event)
			if !ok {
				continue
			}
			pending[section] = true
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("content watcher: %v", err)

		case <-timer.C:
			for _, section := range domain.AllSections() {
				if pending[section] {
					logger.Debug("content changed in section %s", section)
					onChange(section)
				}
			}
			clear(pending)
		}
	}
}

// handleFsEvent maps an event to the section it affects. New directories
// are added to the watch list so nested documents are seen too.
func (s *Store) handleFsEvent(watcher *fsnotify.Watcher, event fsnotify.Event) (domain.SectionID, bool) {
	if event.Op == fsnotify.Chmod || isHidden(event.Name) {
		return "", false
	}

	section, ok := s.sectionOf(event.Name)
	if !ok {
		return "", false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := s.addTree(watcher, event.Name); err != nil {
				logger.Warn("content watcher: %v", err)
			}
			return section, true
		}
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return section, true
	}
	if !hasContentExt(event.Name) {
		return "", false
	}
	return section, true
}

// sectionOf returns the section whose directory contains path.
func (s *Store) sectionOf(path string) (domain.SectionID, bool) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	section := domain.SectionID(first)
	if !section.IsValid() {
		return "", false
	}
	return section, true
}

// addTree watches dir and every non-hidden directory below it.
func (s *Store) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func hasContentExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
