package snapshot

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads path with load each time it is written or replaced and
// passes the result to onChange. A failed reload is reported through the
// error argument; the previous snapshot stays with the caller. Watch blocks
// until ctx is cancelled.
//
// The parent directory is watched rather than the file, so editors that save
// by renaming a temp file over path keep triggering reloads.
func Watch(ctx context.Context, path string, load Loader, onChange func(*File, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			// A rename over path arrives as Create; Remove and Rename of
			// path itself leave nothing to load until the next Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			onChange(load(path))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onChange(nil, err)
		}
	}
}
