package upload

import (
	"fmt"
	"sync"

	"github.com/devaalay/asset-service/internal/types"
)

// State is the upload session lifecycle. Transitions are the only way a
// session's phase changes; there is no other shared flag.
type State int

const (
	StateReceiving State = iota
	StateAwaitingUploads
	StateValidating
	StateCommitting
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateReceiving:
		return "receiving"
	case StateAwaitingUploads:
		return "awaiting_uploads"
	case StateValidating:
		return "validating"
	case StateCommitting:
		return "committing"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session tracks one multipart upload request: collected fields, staged
// objects per file slot, and the lifecycle state. It lives for exactly one
// request and is never persisted. Staged-object bookkeeping is mutex-guarded
// because slots complete on concurrent goroutines.
type Session struct {
	mu     sync.Mutex
	state  State
	fields map[string]string
	files  map[string]*types.StagedObject
	images []types.ImageObject
}

func NewSession() *Session {
	return &Session{
		state:  StateReceiving,
		fields: make(map[string]string),
		files:  make(map[string]*types.StagedObject),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// advance moves the session forward. RolledBack is reachable from any
// non-terminal state; every other transition is strictly ordered.
func (s *Session) advance(to State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCommitted || s.state == StateRolledBack {
		return
	}
	s.state = to
}

func (s *Session) setField(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[name] = value
}

// Field returns a collected form field value.
func (s *Session) Field(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.fields[name]
	return v, ok
}

// FieldOr returns the field value or def when absent or empty.
func (s *Session) FieldOr(name, def string) string {
	if v, ok := s.Field(name); ok && v != "" {
		return v
	}
	return def
}

func (s *Session) addStaged(field string, ref *types.StagedObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[field] = ref
}

// File returns the staged object for a file slot, or nil if the slot never
// completed.
func (s *Session) File(field string) *types.StagedObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[field]
}

// FirstFile returns the staged object of any completed file slot. Meant for
// single-file sessions where the client's field name does not matter.
func (s *Session) FirstFile() *types.StagedObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ref := range s.files {
		if ref != nil {
			return ref
		}
	}
	return nil
}

func (s *Session) setImages(images []types.ImageObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = images
}

// Images returns the descriptors produced by an archive expansion slot.
func (s *Session) Images() []types.ImageObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images
}

// StagedKeys is the rollback set: every object-store key this session has
// staged so far.
func (s *Session) StagedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for _, ref := range s.files {
		if ref != nil {
			keys = append(keys, ref.Key)
		}
	}
	for _, img := range s.images {
		keys = append(keys, img.Key)
	}
	return keys
}
