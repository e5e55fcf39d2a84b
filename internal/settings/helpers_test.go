package settings

import (
	"errors"

	"github.com/muurk/musikremote/internal/prefs"
)

// recorder implements all three collaborators and records calls in order
type recorder struct {
	calls   []string
	volumes []float64

	volumeErr     error
	reloadErr     error
	disconnectErr error
}

func (r *recorder) SetVolume(level float64) error {
	r.calls = append(r.calls, "set_volume")
	r.volumes = append(r.volumes, level)
	return r.volumeErr
}

func (r *recorder) Reload() error {
	r.calls = append(r.calls, "reload")
	return r.reloadErr
}

func (r *recorder) Disconnect() error {
	r.calls = append(r.calls, "disconnect")
	return r.disconnectErr
}

func (r *recorder) count(call string) int {
	n := 0
	for _, c := range r.calls {
		if c == call {
			n++
		}
	}
	return n
}

// failingStore serves reads from a MemoryStore but rejects every commit
type failingStore struct {
	*prefs.MemoryStore
	commits int
}

var errDiskFull = errors.New("disk full")

func (s *failingStore) CommitBatch(entries []prefs.Entry) error {
	s.commits++
	return errDiskFull
}

func newTestReconciler(store prefs.Store) (*Reconciler, *recorder) {
	rec := &recorder{}
	return NewReconciler(Options{
		Store:      store,
		Volume:     rec,
		Proxy:      rec,
		Connection: rec,
	}), rec
}
