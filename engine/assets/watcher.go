package assets

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/platform"
)

// Watcher evicts cached assets whose backing file changes on disk, so the next
// Load picks up the new content. Instances already handed out are left alone.
type Watcher struct {
	loader *Loader
	files  *platform.FileFetcher

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	isClosed bool
	onChange func(src string, op fsnotify.Op)
}

// NewWatcher watches for l. files maps identifiers to paths, its BasePath must
// match the one used to load them.
func NewWatcher(l *Loader, files *platform.FileFetcher) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = &platform.FileFetcher{}
	}
	w := &Watcher{
		loader:   l,
		files:    files,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.start()
	return w, nil
}

// OnChange installs a callback invoked after an asset was evicted because its
// file changed.
func (w *Watcher) OnChange(fn func(src string, op fsnotify.Op)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// AddRecursive starts watching the named directory and all sub-directories.
func (w *Watcher) AddRecursive(name string) error {
	if w.closed() {
		return errors.New("watcher already closed")
	}
	return w.watchRecursive(name, false)
}

// RemoveRecursive stops watching the named directory and all sub-directories.
func (w *Watcher) RemoveRecursive(name string) error {
	if w.closed() {
		return errors.New("watcher already closed")
	}
	return w.watchRecursive(name, true)
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.isClosed {
		w.mu.Unlock()
		return nil
	}
	w.isClosed = true
	w.mu.Unlock()

	close(w.done)
	w.wg.Wait()
	return w.fsnotify.Close()
}

func (w *Watcher) closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isClosed
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&fsnotify.Create != 0 {
				if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
					if err := w.watchRecursive(e.Name, false); err != nil {
						core.LogError("failed to watch '%s': %s", e.Name, err)
					}
					continue
				}
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.invalidate(e.Name, e.Op)
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("%s", err)

		case <-w.done:
			return
		}
	}
}

// watchRecursive adds (or removes) all directories under path to the watch list.
func (w *Watcher) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			return nil
		}
		if unWatch {
			return w.fsnotify.Remove(walkPath)
		}
		return w.fsnotify.Add(walkPath)
	})
}

// invalidate evicts every cached identifier backed by the changed file.
func (w *Watcher) invalidate(name string, op fsnotify.Op) {
	changed := absPath(name)
	for _, src := range w.loader.Keys() {
		if platform.IsRemote(src) || absPath(w.files.Path(src)) != changed {
			continue
		}
		if w.loader.Evict(src) {
			core.LogInfo("asset '%s' changed on disk (%s), evicted", src, op)
			w.mu.Lock()
			fn := w.onChange
			w.mu.Unlock()
			if fn != nil {
				fn(src, op)
			}
		}
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
