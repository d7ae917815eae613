package sessions

import (
	"context"
	"log"
	"sync"
	"time"

	"catalog-admin/apperr"
	"catalog-admin/drafts"
	"catalog-admin/dtos"

	"github.com/google/uuid"
)

// maxNotices caps the notices kept per session; the oldest are dropped first.
const maxNotices = 50

// Session is one product editing session. All draft access goes through the
// session lock, so mutations from requests and from background reconciliations
// never interleave.
type Session struct {
	ID      uuid.UUID
	OwnerID uuid.UUID

	mu         sync.Mutex
	draft      *drafts.ProductDraft
	notices    []drafts.Event
	closed     bool
	submitting bool
	touched    time.Time
}

// Do runs fn with exclusive access to the draft. It is refused while a submit
// is in flight.
func (s *Session) Do(fn func(d *drafts.ProductDraft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditable(); err != nil {
		return err
	}
	s.touched = time.Now()
	return fn(s.draft)
}

func (s *Session) checkEditable() error {
	if s.closed {
		return apperr.New(apperr.NotFound, "draft session has ended")
	}
	if s.submitting {
		return apperr.New(apperr.Conflict, "draft is being saved")
	}
	return nil
}

// Submit validates the draft and saves it through backend. The session is not
// locked during the backend call, so reads, notices and reconciliation results
// keep flowing; edits are refused until it returns. On success the session
// continues from the saved product.
func (s *Session) Submit(ctx context.Context, backend drafts.ProductSubmitter) (*dtos.ProductResponse, error) {
	req, maxImages, err := s.beginSubmit()
	if err != nil {
		return nil, err
	}

	saved, err := drafts.SendSubmit(ctx, backend, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	s.touched = time.Now()
	if err != nil {
		return nil, err
	}
	if !s.closed {
		s.draft = drafts.HydrateDraft(*saved, maxImages)
	}
	return saved, nil
}

func (s *Session) beginSubmit() (dtos.ProductSubmitRequest, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditable(); err != nil {
		return dtos.ProductSubmitRequest{}, 0, err
	}
	s.touched = time.Now()
	req, err := drafts.PrepareSubmit(s.draft)
	if err != nil {
		return dtos.ProductSubmitRequest{}, 0, err
	}
	s.submitting = true
	return req, s.draft.MaxImages, nil
}

// Snapshot returns a copy of the draft that is safe to read without the lock.
func (s *Session) Snapshot() *drafts.ProductDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Notify records an event for the host UI. It implements drafts.Notifier.
func (s *Session) Notify(e drafts.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	log.Printf("Draft %s notice [%s/%s]: %s", s.ID, e.Level, e.Kind, e.Message)
	s.notices = append(s.notices, e)
	if len(s.notices) > maxNotices {
		s.notices = append([]drafts.Event(nil), s.notices[len(s.notices)-maxNotices:]...)
	}
}

// Notices returns the pending notices and clears them.
func (s *Session) Notices() []drafts.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.notices
	s.notices = nil
	if out == nil {
		out = []drafts.Event{}
	}
	return out
}

// ApplyImages replaces the images of the variant with the given client key.
// Results arriving after the session ended, or for a variant that has since
// been removed, are dropped.
func (s *Session) ApplyImages(variantKey uuid.UUID, images drafts.ImageCollection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	idx := s.draft.VariantByKey(variantKey)
	if idx < 0 {
		return false
	}
	s.draft.Variants[idx].Images = images
	return true
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// DraftStore manages editing sessions in memory
type DraftStore struct {
	sessions map[uuid.UUID]*Session
	mu       sync.RWMutex
	ttl      time.Duration
}

func NewDraftStore(ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &DraftStore{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
	}
}

// Create starts a session for the given draft
func (ds *DraftStore) Create(ownerID uuid.UUID, draft *drafts.ProductDraft) *Session {
	// Clean up expired sessions on each new creation
	ds.CleanupExpired()

	ds.mu.Lock()
	defer ds.mu.Unlock()

	s := &Session{
		ID:      uuid.New(),
		OwnerID: ownerID,
		draft:   draft,
		touched: time.Now(),
	}
	ds.sessions[s.ID] = s
	return s
}

// Get retrieves a live session by ID
func (ds *DraftStore) Get(id uuid.UUID) (*Session, bool) {
	ds.mu.RLock()
	s, exists := ds.sessions[id]
	ds.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Since(s.idleSince()) > ds.ttl {
		ds.Delete(id)
		return nil, false
	}
	return s, true
}

// Delete ends a session. In-flight results for it are discarded.
func (ds *DraftStore) Delete(id uuid.UUID) bool {
	ds.mu.Lock()
	s, exists := ds.sessions[id]
	delete(ds.sessions, id)
	ds.mu.Unlock()

	if exists {
		s.close()
	}
	return exists
}

// CleanupExpired ends sessions idle for longer than the TTL and returns how many were removed.
func (ds *DraftStore) CleanupExpired() int {
	ds.mu.Lock()
	var expired []*Session
	cutoff := time.Now().Add(-ds.ttl)
	for id, s := range ds.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(ds.sessions, id)
		}
	}
	ds.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	return len(expired)
}

func (ds *DraftStore) Len() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.sessions)
}

// RunCleanup removes expired sessions every interval until ctx is done.
func (ds *DraftStore) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := ds.CleanupExpired(); n > 0 {
				log.Printf("Expired %d draft session(s)", n)
			}
		}
	}
}
