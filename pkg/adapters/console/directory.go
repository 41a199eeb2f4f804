package console

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/google/uuid"
)

// Identity describes a remote caller as a transport received it.
type Identity struct {
	ID          string   `json:"id,omitempty" mapstructure:"id"`
	Name        string   `json:"name,omitempty" mapstructure:"name"`
	Player      bool     `json:"player,omitempty" mapstructure:"player"`
	Permissions []string `json:"permissions,omitempty" mapstructure:"permissions"`
}

// Directory keeps one Remote per id so buffered messages survive across
// requests. It is safe for concurrent use.
type Directory struct {
	mu       sync.Mutex
	remotes  map[string]*Remote
	listener func(id, msg string)
	logger   *slog.Logger
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithListener is called for every message delivered to any remote.
func WithListener(fn func(id, msg string)) DirectoryOption {
	return func(d *Directory) {
		d.listener = fn
	}
}

// WithLogger configures a logger for the Directory.
func WithLogger(logger *slog.Logger) DirectoryOption {
	return func(d *Directory) {
		d.logger = logger
	}
}

// NewDirectory creates an empty directory.
func NewDirectory(opts ...DirectoryOption) *Directory {
	d := &Directory{
		remotes: make(map[string]*Remote),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Resolve returns the caller for id, creating it on first sight.
// Permissions are replaced on every call, so the transport stays the source
// of truth. An empty id yields an ephemeral caller that is never stored. The
// result implements domain.Player when id.Player is set.
func (d *Directory) Resolve(id Identity) (domain.Caller, *Remote) {
	key := strings.TrimSpace(id.ID)
	if key == "" {
		return d.Ephemeral(id)
	}

	d.mu.Lock()
	r, ok := d.remotes[key]
	if !ok {
		r = d.newRemote(key, id.Name)
		d.remotes[key] = r
		d.logger.Debug("remote caller created", "caller_id", key, "player", id.Player)
	}
	d.mu.Unlock()

	return bind(r, id)
}

// Ephemeral returns a caller for a single request. It is not stored, so its
// permissions and messages are private to the request. An empty id is
// replaced by a random one.
func (d *Directory) Ephemeral(id Identity) (domain.Caller, *Remote) {
	key := strings.TrimSpace(id.ID)
	if key == "" {
		key = uuid.NewString()
	}
	return bind(d.newRemote(key, id.Name), id)
}

func (d *Directory) newRemote(key, name string) *Remote {
	name = strings.TrimSpace(name)
	if name == "" {
		name = key
	}
	return &Remote{id: key, name: name, listener: d.listener}
}

func bind(r *Remote, id Identity) (domain.Caller, *Remote) {
	r.setPermissions(id.Permissions)
	if id.Player {
		return RemotePlayer{Remote: r}, r
	}
	return r, r
}

// Get returns the remote for id.
func (d *Directory) Get(id string) (*Remote, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.remotes[id]
	return r, ok
}

// Forget drops the remote for id and its buffered messages.
func (d *Directory) Forget(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.remotes, id)
}

// Len returns the number of known remotes.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.remotes)
}

// Names returns the display names of known remotes, sorted.
func (d *Directory) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.remotes))
	for _, r := range d.remotes {
		out = append(out, r.name)
	}
	sort.Strings(out)
	return out
}
