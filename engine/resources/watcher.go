package resources

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/vulcan/engine/core"
)

// ShaderChange reports a manifest shader modified on disk.
type ShaderChange struct {
	Name    string
	Path    string
	Removed bool
}

// Watcher observes the shader directory of a Store. Pipelines are built
// once, so changes are only reported.
type Watcher struct {
	store  *Store
	logger *core.Logger

	fsnotify *fsnotify.Watcher
	changes  chan ShaderChange
	done     chan struct{}
	stopped  chan struct{}
}

func NewWatcher(store *Store, logger *core.Logger) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating shader watcher")
	}
	if err := fsWatch.Add(store.Dir()); err != nil {
		fsWatch.Close()
		return nil, errors.Wrapf(err, "watching %s", store.Dir())
	}

	w := &Watcher{
		store:    store,
		logger:   logger,
		fsnotify: fsWatch,
		changes:  make(chan ShaderChange, 16),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go w.start()
	return w, nil
}

// Changes delivers shader changes. Changes are dropped when the buffer is full.
func (w *Watcher) Changes() <-chan ShaderChange {
	return w.changes
}

// Drain logs every pending change without blocking and returns how many
// there were.
func (w *Watcher) Drain() int {
	n := 0
	for {
		select {
		case c, ok := <-w.changes:
			if !ok {
				return n
			}
			n++
			if c.Removed {
				w.logger.Warn("Shader %s (%s) was removed; the loaded copy stays in use.", c.Name, c.Path)
			} else {
				w.logger.Warn("Shader %s (%s) changed on disk; restart to pick it up.", c.Name, c.Path)
			}
		default:
			return n
		}
	}
}

func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	<-w.stopped
	return nil
}

// start forwards fsnotify events until Close or until fsnotify shuts its
// channels. Either way the fsnotify watcher is closed and Changes ends.
func (w *Watcher) start() {
	defer func() {
		if err := w.fsnotify.Close(); err != nil {
			w.logger.Error("shader watcher: %s", err)
		}
		close(w.changes)
		close(w.stopped)
	}()
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name, known := w.store.ShaderByPath(filepath.Clean(e.Name))
			if !known {
				continue
			}
			c := ShaderChange{
				Name:    name,
				Path:    e.Name,
				Removed: e.Op&(fsnotify.Remove|fsnotify.Rename) != 0,
			}
			select {
			case w.changes <- c:
			default:
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			w.logger.Error("shader watcher: %s", err)

		case <-w.done:
			return
		}
	}
}
