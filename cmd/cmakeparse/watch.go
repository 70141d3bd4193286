package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const debounceDelay = 500 * time.Millisecond

// watch checks paths once, then again whenever one of them changes, until
// the context is cancelled or the process is interrupted.
func (a *app) watch(cmd *cobra.Command, paths []string) error {
	targets := make(map[string]string, len(paths))
	for _, path := range paths {
		if path == "-" {
			return &CLIError{Type: ErrUsage, Message: "cannot watch standard input", Hint: "pass file paths to --watch"}
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return &CLIError{Type: ErrInput, Message: fmt.Sprintf("cannot resolve %s", path), Cause: err}
		}
		targets[abs] = path
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Directories are watched so that editors which replace files on save
	// keep being followed.
	dirs := map[string]bool{}
	for abs := range targets {
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return &CLIError{Type: ErrInput, Message: fmt.Sprintf("cannot watch %s", dir), Cause: err}
		}
		dirs[dir] = true
	}

	if _, err := a.check(cmd, paths); err != nil {
		return err
	}
	a.logger.Info("watching for changes", "files", len(paths))
	return a.watchLoop(ctx, cmd, watcher, targets)
}

func (a *app) watchLoop(ctx context.Context, cmd *cobra.Command, watcher *fsnotify.Watcher, targets map[string]string) error {
	debounce := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("stopping watcher", "reason", ctx.Err())
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			path, watched := targets[event.Name]
			if !watched || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if last, seen := debounce[event.Name]; seen && time.Since(last) < debounceDelay {
				continue
			}
			debounce[event.Name] = time.Now()

			a.logger.Debug("file changed", "file", path, "op", event.Op.String())
			if _, err := a.check(cmd, []string{path}); err != nil {
				FormatError(cmd.ErrOrStderr(), err, a.useColor(cmd.ErrOrStderr()))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("watcher error", "error", err)
		}
	}
}
