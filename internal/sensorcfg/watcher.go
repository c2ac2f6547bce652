package sensorcfg

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of filesystem events editors
// produce when saving a file.
const watchDebounce = 250 * time.Millisecond

// Watcher reloads the sensor catalog when the sensors file changes.
// A file that fails to parse leaves the current catalog untouched.
type Watcher struct {
	path    string
	catalog *Catalog
}

// NewWatcher creates a watcher for the given sensors file.
func NewWatcher(path string, catalog *Catalog) *Watcher {
	return &Watcher{path: path, catalog: catalog}
}

// Run watches the file until ctx is cancelled. Watch setup failure is
// returned; reload failures are logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors typically rename a temp file over
	// the target, which drops a watch set on the file itself.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	var pending *time.Timer
	reloads := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(watchDebounce, func() {
				select {
				case reloads <- struct{}{}:
				default:
				}
			})

		case <-reloads:
			w.reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("sensorcfg: watch error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	configs, err := LoadFile(w.path)
	if err != nil {
		log.Printf("sensorcfg: reload %s: %v", w.path, err)
		return
	}
	w.catalog.Replace(configs)
	log.Printf("sensorcfg: reloaded %d sensors from %s", len(configs), w.path)
}
