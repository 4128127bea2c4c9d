package delay

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/semihalev/zlog/v2"
)

// State of a Watcher.
type State int32

const (
	// Unarmed means no filesystem watch is active.
	Unarmed State = iota
	// Armed means the file is watched for changes.
	Armed
	// RetryBackoff means arming failed and the watcher waits before the next try.
	RetryBackoff
)

func (s State) String() string {
	switch s {
	case Unarmed:
		return "unarmed"
	case Armed:
		return "armed"
	case RetryBackoff:
		return "retry-backoff"
	}

	return "unknown"
}

// DefaultRetryInterval between two arming attempts.
const DefaultRetryInterval = time.Second

var errMalformed = errors.New("malformed delay value")

// Watcher keeps a Store in sync with a file holding the delay in milliseconds.
type Watcher struct {
	path  string
	store *Store

	// RetryInterval is the wait after a failed arming attempt.
	RetryInterval time.Duration

	state  atomic.Int32
	logged bool
}

// NewWatcher returns a watcher for path feeding store.
func NewWatcher(path string, store *Store) *Watcher {
	return &Watcher{
		path:          path,
		store:         store,
		RetryInterval: DefaultRetryInterval,
	}
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// State returns the current watcher state.
func (w *Watcher) State() State {
	return State(w.state.Load())
}

func (w *Watcher) setState(s State) {
	w.state.Store(int32(s))
}

// Load reads the file once. A missing file is logged only when reportNotFound
// is set. It reports whether the file was readable.
func (w *Watcher) Load(reportNotFound bool) bool {
	err := w.read()
	if err == nil || errors.Is(err, errMalformed) {
		return true
	}

	if errors.Is(err, fs.ErrNotExist) {
		if reportNotFound {
			zlog.Error("Configuration file not found", "path", w.path)
		}
		return false
	}

	zlog.Error("Unable to read configuration file", "path", w.path, "error", err.Error())

	return false
}

func (w *Watcher) read() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}

	ms, err := parse(data)
	if err != nil {
		zlog.Debug("Ignoring delay file content", "path", w.path, "error", err.Error())
		return err
	}

	w.store.Set(ms)

	return nil
}

func parse(data []byte) (int64, error) {
	text := strings.TrimSpace(string(data))
	if line, _, ok := strings.Cut(text, "\n"); ok {
		text = strings.TrimSpace(line)
	}

	ms, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errMalformed, text)
	}

	if ms < 0 {
		return 0, fmt.Errorf("%w: negative %d", errMalformed, ms)
	}

	return ms, nil
}

// Run arms the watch and follows the file until ctx is done. The file may be
// missing, removed or replaced at any time; arming is retried forever.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.setState(Unarmed)

	for {
		fw, err := w.arm()
		if err != nil {
			w.setState(RetryBackoff)
			zlog.Debug("Config file watch failed, retrying", "path", w.path, "error", err.Error())

			timer := time.NewTimer(w.RetryInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}

			continue
		}

		w.setState(Armed)

		// read after arming so a change racing the watch setup is not lost
		w.Load(false)

		if !w.logged {
			w.logged = true
			zlog.Info("Watching config file for changes", "path", w.path)
		}

		done := w.follow(ctx, fw)

		if err := fw.Close(); err != nil {
			zlog.Warn("Config file watch close failed", "path", w.path, "error", err.Error())
		}

		w.setState(Unarmed)

		if done {
			return nil
		}
	}
}

func (w *Watcher) arm() (*fsnotify.Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fw.Add(w.path); err != nil {
		_ = fw.Close()
		return nil, err
	}

	return fw, nil
}

// follow handles events of one watch. It returns true when ctx is done and
// false when the watch must be replaced.
func (w *Watcher) follow(ctx context.Context, fw *fsnotify.Watcher) bool {
	for {
		select {
		case <-ctx.Done():
			return true

		case event, ok := <-fw.Events:
			if !ok {
				return false
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				zlog.Debug("Config file moved away, rearming watch", "event", event.String())
				return false
			}

			w.Load(false)

		case err, ok := <-fw.Errors:
			if !ok {
				return false
			}

			zlog.Error("Config file watcher error", "path", w.path, "error", err.Error())
		}
	}
}
