package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/phuslu/log"
)

// InboxWatcher ingests files dropped into a directory. Each accepted file replaces the index,
// exactly like an upload.
type InboxWatcher struct {
	dir      string
	ingestor *Ingestor
	debounce time.Duration

	mu     sync.Mutex
	hashes map[string]string
	timers map[string]*time.Timer
}

func NewInboxWatcher(dir string, ingestor *Ingestor) *InboxWatcher {
	return &InboxWatcher{
		dir:      dir,
		ingestor: ingestor,
		debounce: 500 * time.Millisecond,
		hashes:   make(map[string]string),
		timers:   make(map[string]*time.Timer),
	}
}

// Watch blocks until ctx is cancelled.
func (w *InboxWatcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	log.Info().Str("component", "watcher").Str("dir", w.dir).Msg("watching inbox")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Str("component", "watcher").Err(err).Msg("watch error")
		case <-ctx.Done():
			w.stopTimers()
			log.Info().Str("component", "watcher").Msg("context cancelled, stopping watcher")
			return nil
		}
	}
}

func (w *InboxWatcher) handle(ctx context.Context, event fsnotify.Event) {
	if !w.ingestor.Supports(event.Name) {
		return
	}
	switch {
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		w.schedule(ctx, event.Name)
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.mu.Lock()
		delete(w.hashes, event.Name)
		w.mu.Unlock()
		// The index keeps serving the last ingested document until another one replaces it.
		log.Info().Str("component", "watcher").Str("file", event.Name).Msg("file removed from inbox")
	}
}

// schedule coalesces the burst of events editors emit for a single save.
func (w *InboxWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.ingestFile(ctx, path)
	})
}

func (w *InboxWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *InboxWatcher) ingestFile(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Str("component", "watcher").Str("file", path).Err(err).Msg("could not read file")
		return
	}
	hash := contentHash(data)

	w.mu.Lock()
	unchanged := w.hashes[path] == hash
	w.mu.Unlock()
	if unchanged {
		log.Debug().Str("component", "watcher").Str("file", path).Msg("file unchanged, skipping")
		return
	}

	res, err := w.ingestor.Ingest(ctx, filepath.Base(path), data)
	if err != nil {
		// Ingest already logged the failure.
		return
	}
	w.mu.Lock()
	w.hashes[path] = hash
	w.mu.Unlock()
	log.Info().Str("component", "watcher").Str("file", res.File).Int("chunks", res.Chunks).Uint64("generation", res.Generation).Msg("inbox file ingested")
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
