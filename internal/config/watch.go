package config

import (
	"context"
	"os"
	"time"

	"camrent/internal/pricing"
)

// promotionsWatcher remembers the last applied file version.
type promotionsWatcher struct {
	path    string
	modTime time.Time
	size    int64
}

// changed reports whether the file differs from the last applied version.
func (w *promotionsWatcher) changed() (os.FileInfo, bool) {
	info, err := os.Stat(w.path)
	if err != nil {
		return nil, false
	}
	return info, !info.ModTime().Equal(w.modTime) || info.Size() != w.size
}

func (w *promotionsWatcher) mark(info os.FileInfo) {
	w.modTime, w.size = info.ModTime(), info.Size()
}

// WatchPromotions loads the promotions file, hands it to onUpdate and then
// polls it every interval, reloading whenever its mtime or size changes.
// Invalid versions are reported to onError (which may be nil) and the
// previous set stays in effect. Only the initial load error is returned.
func WatchPromotions(ctx context.Context, path string, interval time.Duration, onUpdate func([]pricing.Promotion), onError func(error)) error {
	if path == "" {
		path = "configs/promotions.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	w := &promotionsWatcher{path: path}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	promos, err := LoadPromotions(path)
	if err != nil {
		return err
	}
	w.mark(info)
	onUpdate(promos)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			info, changed := w.changed()
			if !changed {
				continue
			}
			// Marked before parsing so a broken file is reported once, not every tick.
			w.mark(info)
			promos, err := LoadPromotions(path)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onUpdate(promos)
		}
	}()
	return nil
}
