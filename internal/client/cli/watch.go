package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/mediagate/internal/client/widget"
)

const defaultSettle = 500 * time.Millisecond

func newWatchCommand(o *rootOptions) *cobra.Command {
	var settle time.Duration

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Upload every file created in DIR",
		Long: `Watch DIR and drop each newly created file on the widget. A file is
dropped once it has not changed for --settle. Files arriving while an upload
is in flight wait for it to finish. Hidden files are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var mu sync.Mutex
			app, err := NewApp(o.cfg, "", cmd.ErrOrStderr(), func(url string) {
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintln(out, url)
			})
			if err != nil {
				return err
			}
			defer app.Close()

			return app.watch(cmd.Context(), args[0], settle)
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", defaultSettle, "quiet period before a new file is uploaded")
	return cmd
}

// watch drops files created in dir until ctx ends.
func (a *App) watch(ctx context.Context, dir string, settle time.Duration) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	if settle <= 0 {
		settle = defaultSettle
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("error watching %s: %w", dir, err)
	}
	a.logger.Info(ctx, "watching", "dir", dir)

	var wg sync.WaitGroup
	defer wg.Wait()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[ev.Name] = time.Now()
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, ev.Name)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn(ctx, "watcher error", "error", err)

		case now := <-ticker.C:
			for path, seen := range pending {
				if now.Sub(seen) < settle {
					continue
				}
				if st, err := os.Stat(path); err != nil || st.IsDir() {
					delete(pending, path)
					continue
				}

				at, f, err := a.uploadPath(ctx, path, true)
				if errors.Is(err, widget.ErrBusy) {
					continue
				}
				delete(pending, path)
				if err != nil {
					a.logger.Warn(ctx, "drop failed", "path", path, "error", err)
					continue
				}

				wg.Add(1)
				go func() {
					defer wg.Done()
					defer f.Close()
					if r := <-at.Done(); r.Err != nil {
						a.logger.Debug(ctx, "attempt finished", "path", path, "error", r.Err)
					}
				}()
			}
		}
	}
}
