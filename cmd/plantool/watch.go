package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/crypto/blake2b"
)

// watch converts the plan again each time its file changes, until ctx is
// cancelled. Conversion errors are reported and watching continues.
// The parent directory is watched so that files replaced on save are seen.
func (j *convertJob) watch(ctx context.Context, stdout, stderr io.Writer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	target, err := filepath.Abs(j.path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	var last [blake2b.Size256]byte
	if data, err := os.ReadFile(target); err == nil {
		last = blake2b.Sum256(data)
	}
	// The first write already had its chance to confirm.
	j.force = true

	fmt.Fprintf(stderr, "watching %s (Ctrl-C to stop)\n", j.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			data, err := os.ReadFile(target)
			if err != nil {
				logger.Debug("plan not readable", "path", target, "err", err)
				continue
			}
			sum := blake2b.Sum256(data)
			if sum == last {
				logger.Debug("plan unchanged", "path", target)
				continue
			}
			last = sum

			src, err := j.convert(data)
			if err != nil {
				fmt.Fprintln(stderr, renderError("Error: "+err.Error()))
				continue
			}
			if err := j.write(src, stdout); err != nil {
				fmt.Fprintln(stderr, renderError("Error: "+err.Error()))
				continue
			}
			fmt.Fprintln(stderr, styleOK.Render("converted "+j.name))
		}
	}
}
