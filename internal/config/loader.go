// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
)

// Loader resolves the configuration once at startup and re-resolves it
// whenever the config file changes on disk. The watch covers the file's
// directory rather than the file itself so atomic replaces (rename onto
// the path, as editors and configmap mounts do) keep delivering events
// after the original inode goes away.
type Loader struct {
	path    string
	logger  logr.Logger
	watcher *fsnotify.Watcher

	mu      sync.RWMutex
	current Config

	subs subscriptions

	done chan struct{}
	wg   sync.WaitGroup
}

// NewLoader loads the file at path and starts watching it for changes.
// The initial load must succeed; later reload failures keep the previous
// configuration and are only logged.
func NewLoader(path string, logger logr.Logger) (*Loader, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	l := &Loader{
		path:    filepath.Clean(path),
		logger:  logger.WithName("config-loader"),
		watcher: watcher,
		current: cfg,
		done:    make(chan struct{}),
	}

	l.wg.Add(1)
	go l.processEvents()

	return l, nil
}

// Current returns the most recently resolved configuration.
func (l *Loader) Current() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current.Copy()
}

// Watch returns a channel primed with the current configuration that then
// receives each successfully reloaded one. The channel holds only the
// newest value: a slow subscriber misses intermediate states but always
// observes the latest. Close closes it.
func (l *Loader) Watch() <-chan Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.subs.add(l.current)
}

func (l *Loader) Close() error {
	close(l.done)
	l.wg.Wait()
	l.subs.close()
	return l.watcher.Close()
}

func (l *Loader) processEvents() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			l.handleEvent(event)
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error(err, "filesystem watcher error")
		}
	}
}

func (l *Loader) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != l.path {
		return
	}

	l.logger.V(1).Info("received file event", "file", event.Name, "op", event.Op)

	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
		l.reload()
	}
}

func (l *Loader) reload() {
	cfg, err := Load(l.path)
	if err != nil {
		l.logger.Error(err, "failed to reload config, keeping previous", "path", l.path)
		return
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()

	l.logger.Info("configuration reloaded", "path", l.path)
	l.subs.send(cfg)
}

// subscriptions fans resolved configs out to Watch subscribers. All sends
// happen under mu, so evicting the undelivered value before sending keeps
// the cap-1 channels from ever blocking.
type subscriptions struct {
	mu     sync.Mutex
	subs   []chan Config
	closed bool
}

func (s *subscriptions) add(seed Config) chan Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	ch := make(chan Config, 1)
	ch <- seed.Copy()
	s.subs = append(s.subs, ch)
	return ch
}

func (s *subscriptions) send(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- cfg.Copy()
	}
}

func (s *subscriptions) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	for _, ch := range s.subs {
		close(ch)
	}
	s.closed = true
}
