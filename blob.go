package indicore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rickbassham/logging"
	"github.com/spf13/afero"
)

// blobFileRef records where the most recently received BLOB for a given
// device/property/element was spooled.
type blobFileRef struct {
	path string
	size int64
}

// BlobStore spools received BLOB bytes to a filesystem and fans them out to
// any live stream readers, against the decoded BlobItem bytes vector.go
// already produces rather than re-decoding base64 itself.
type BlobStore struct {
	fs  afero.Fs
	log logging.Logger

	mu      sync.Mutex
	files   map[string]blobFileRef
	streams map[string]map[string]io.WriteCloser
}

// NewBlobStore creates a BlobStore writing through fs.
func NewBlobStore(fs afero.Fs, log logging.Logger) *BlobStore {
	return &BlobStore{
		fs:      fs,
		log:     log,
		files:   map[string]blobFileRef{},
		streams: map[string]map[string]io.WriteCloser{},
	}
}

func blobKey(device, prop, name string) string {
	return fmt.Sprintf("%s_%s_%s", device, prop, name)
}

// Spool persists item's bytes for device/prop to the filesystem and writes
// the same bytes to every live stream registered via OpenStream. A size==0
// placeholder (INDI's "still busy" frame) carries nothing and is skipped.
func (b *BlobStore) Spool(device, prop string, item BlobItem) (int, error) {
	if item.Size == 0 || len(item.Value) == 0 {
		return 0, nil
	}

	key := blobKey(device, prop, item.Name)
	fname := fmt.Sprintf("%s%s", key, item.Format)

	f, err := b.fs.OpenFile(fname, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o666)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	b.mu.Lock()
	var writers []io.Writer
	for _, w := range b.streams[key] {
		writers = append(writers, w)
	}
	b.mu.Unlock()
	writers = append(writers, f)

	n, err := io.Copy(io.MultiWriter(writers...), bytes.NewReader(item.Value))
	if err != nil {
		if b.log != nil {
			b.log.WithField("file", fname).WithError(err).Warn("error spooling blob")
		}
		return int(n), err
	}

	b.mu.Lock()
	b.files[key] = blobFileRef{path: fname, size: n}
	b.mu.Unlock()

	return int(n), nil
}

// Get opens the most recently spooled file for device/prop/name.
func (b *BlobStore) Get(device, prop, name string) (io.ReadCloser, string, int64, error) {
	key := blobKey(device, prop, name)

	b.mu.Lock()
	ref, ok := b.files[key]
	b.mu.Unlock()
	if !ok {
		return nil, "", 0, ErrItemNotFound
	}

	f, err := b.fs.Open(ref.path)
	if err != nil {
		return nil, "", 0, err
	}
	return f, filepath.Base(ref.path), ref.size, nil
}

// OpenStream registers a new live reader for device/prop/name: every
// subsequent Spool call writes to it until CloseStream is called. Returns
// the reader and an opaque id for CloseStream.
func (b *BlobStore) OpenStream(device, prop, name string) (io.ReadCloser, string, error) {
	key := blobKey(device, prop, name)
	id := uuid.New().String()

	r, w := io.Pipe()

	b.mu.Lock()
	if b.streams[key] == nil {
		b.streams[key] = map[string]io.WriteCloser{}
	}
	b.streams[key][id] = w
	b.mu.Unlock()

	return r, id, nil
}

// CloseStream closes and unregisters the stream opened under id.
func (b *BlobStore) CloseStream(device, prop, name, id string) error {
	key := blobKey(device, prop, name)

	b.mu.Lock()
	defer b.mu.Unlock()

	ws, ok := b.streams[key]
	if !ok {
		return nil
	}
	if w, ok := ws[id]; ok {
		err := w.Close()
		delete(ws, id)
		return err
	}
	return nil
}
