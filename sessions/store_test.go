package sessions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"catalog-admin/apperr"
	"catalog-admin/drafts"
	"catalog-admin/dtos"

	"github.com/google/uuid"
)

func newTestStore() *DraftStore {
	return NewDraftStore(time.Hour)
}

func TestCreateSession(t *testing.T) {
	store := newTestStore()
	owner := uuid.New()
	s := store.Create(owner, drafts.NewProductDraft(0))

	if s.ID == uuid.Nil {
		t.Error("expected non-nil session ID")
	}
	if s.OwnerID != owner {
		t.Errorf("expected owner %s, got %s", owner, s.OwnerID)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 session, got %d", store.Len())
	}
}

func TestGetSessionNotFound(t *testing.T) {
	store := newTestStore()
	if _, ok := store.Get(uuid.New()); ok {
		t.Fatal("expected session not found")
	}
}

func TestGetExpiredSession(t *testing.T) {
	store := NewDraftStore(time.Minute)
	s := store.Create(uuid.New(), drafts.NewProductDraft(0))
	s.touched = time.Now().Add(-2 * time.Minute)

	if _, ok := store.Get(s.ID); ok {
		t.Fatal("expected expired session to be gone")
	}
	if store.Len() != 0 {
		t.Errorf("expected expired session to be removed, got %d", store.Len())
	}
}

func TestCleanupExpired(t *testing.T) {
	store := NewDraftStore(time.Minute)
	old := store.Create(uuid.New(), drafts.NewProductDraft(0))
	fresh := store.Create(uuid.New(), drafts.NewProductDraft(0))
	old.touched = time.Now().Add(-time.Hour)

	if n := store.CleanupExpired(); n != 1 {
		t.Errorf("expected 1 expired session, got %d", n)
	}
	if _, ok := store.Get(fresh.ID); !ok {
		t.Error("fresh session should survive cleanup")
	}
	if err := old.Do(func(*drafts.ProductDraft) error { return nil }); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expired session should be closed, got %v", err)
	}
}

func TestDoTouchesSession(t *testing.T) {
	store := newTestStore()
	s := store.Create(uuid.New(), drafts.NewProductDraft(0))
	s.touched = time.Now().Add(-30 * time.Minute)

	err := s.Do(func(d *drafts.ProductDraft) error {
		d.SetName("Linen Shirt")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(s.idleSince()) > time.Minute {
		t.Error("Do should refresh the idle timer")
	}
	if s.Snapshot().Name != "Linen Shirt" {
		t.Error("mutation should be visible")
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	store := newTestStore()
	s := store.Create(uuid.New(), drafts.NewProductDraft(0))

	snap := s.Snapshot()
	snap.Variants[0].Status = drafts.StatusInactive
	snap.Errors[drafts.ProductKey(drafts.FieldName)] = "x"

	s.Do(func(d *drafts.ProductDraft) error {
		if d.Variants[0].Status != drafts.StatusActive {
			t.Error("snapshot changes leaked into the session")
		}
		if !d.Errors.Empty() {
			t.Error("snapshot error map shares state with the session")
		}
		return nil
	})
}

func TestDeleteStopsApplyingResults(t *testing.T) {
	store := newTestStore()
	d := drafts.NewProductDraft(0)
	key := d.Variants[0].Key
	s := store.Create(uuid.New(), d)

	if !store.Delete(s.ID) {
		t.Fatal("expected delete to succeed")
	}
	if store.Delete(s.ID) {
		t.Error("second delete should report missing session")
	}
	if s.ApplyImages(key, drafts.ImageCollection{{ID: uuid.New(), IsPrimary: true}}) {
		t.Error("results must not be applied after teardown")
	}
	s.Notify(drafts.Event{Message: "late"})
	if len(s.Notices()) != 0 {
		t.Error("notices must not be recorded after teardown")
	}
}

func TestApplyImagesFollowsVariantKey(t *testing.T) {
	store := newTestStore()
	d := drafts.NewProductDraft(0)
	d.AddVariant()
	key := d.Variants[1].Key
	s := store.Create(uuid.New(), d)

	s.Do(func(d *drafts.ProductDraft) error { return d.RemoveVariant(0) })

	images := drafts.ImageCollection{{ID: uuid.New(), ImageURL: "a", IsPrimary: true}}
	if !s.ApplyImages(key, images) {
		t.Fatal("expected images to be applied")
	}
	if got := s.Snapshot().Variants[0].Images; len(got) != 1 || got[0].ImageURL != "a" {
		t.Errorf("images applied to the wrong variant: %+v", got)
	}

	s.Do(func(d *drafts.ProductDraft) error { return d.RemoveVariant(0) })
	if s.ApplyImages(key, images) {
		t.Error("results for a removed variant must be dropped")
	}
}

func TestNoticesDrain(t *testing.T) {
	store := newTestStore()
	s := store.Create(uuid.New(), drafts.NewProductDraft(0))

	for i := 0; i < maxNotices+5; i++ {
		s.Notify(drafts.Event{Level: drafts.LevelInfo, Message: "n"})
	}
	got := s.Notices()
	if len(got) != maxNotices {
		t.Errorf("expected %d notices, got %d", maxNotices, len(got))
	}
	if len(s.Notices()) != 0 {
		t.Error("notices should be cleared after reading")
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := newTestStore()
	s := store.Create(uuid.New(), drafts.NewProductDraft(0))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Do(func(d *drafts.ProductDraft) error {
				d.AddVariant()
				return nil
			})
			s.Notify(drafts.Event{Message: "added"})
			s.Snapshot()
		}()
	}
	wg.Wait()

	if n := len(s.Snapshot().Variants); n != 21 {
		t.Errorf("expected 21 variants, got %d", n)
	}
}

func TestRunCleanupStops(t *testing.T) {
	store := NewDraftStore(time.Millisecond)
	store.Create(uuid.New(), drafts.NewProductDraft(0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.RunCleanup(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(time.Second)
	for store.Len() > 0 {
		select {
		case <-deadline:
			t.Fatal("expired session was not cleaned up")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

// gatedSubmitter holds SubmitProduct until release is closed.
type gatedSubmitter struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSubmitter) SubmitProduct(ctx context.Context, req dtos.ProductSubmitRequest) (*dtos.ProductResponse, error) {
	close(g.entered)
	<-g.release
	resp := &dtos.ProductResponse{ID: uuid.New(), Name: req.Name, Description: req.Description, CategoryID: req.CategoryID}
	for _, v := range req.Variants {
		resp.Variants = append(resp.Variants, dtos.VariantResponse{ID: uuid.New(), ColorID: v.ColorID, Status: v.Status})
	}
	return resp, nil
}

func validTestDraft(t *testing.T) *drafts.ProductDraft {
	t.Helper()
	d := drafts.NewProductDraft(0)
	d.SetName("Linen Shirt")
	d.SetDescription("Breathable summer linen shirt")
	d.SetCategory(uuid.New())
	if err := d.SetVariantColor(0, uuid.New()); err != nil {
		t.Fatal(err)
	}
	if err := d.UpdateSize(0, 0, drafts.SizeFieldSizeID, uuid.NewString()); err != nil {
		t.Fatal(err)
	}
	if err := d.UpdateSize(0, 0, drafts.SizeFieldPrice, "19.90"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AddImageURL(0, "https://cdn.example.com/front.jpg"); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSubmitDoesNotHoldSession(t *testing.T) {
	store := newTestStore()
	s := store.Create(uuid.New(), validTestDraft(t))
	backend := &gatedSubmitter{entered: make(chan struct{}), release: make(chan struct{})}

	type result struct {
		resp *dtos.ProductResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := s.Submit(context.Background(), backend)
		done <- result{resp, err}
	}()
	<-backend.entered

	// Reads and notices proceed while the backend call is in flight.
	if s.Snapshot().ID != nil {
		t.Error("expected the unsaved draft while the submit is running")
	}
	s.Notify(drafts.Event{Message: "during submit"})
	if len(s.Notices()) != 1 {
		t.Error("expected notices to be recorded during submit")
	}

	err := s.Do(func(d *drafts.ProductDraft) error {
		d.SetName("Changed")
		return nil
	})
	if !apperr.Is(err, apperr.Conflict) {
		t.Errorf("expected edits to be refused during submit, got %v", err)
	}
	if _, err := s.Submit(context.Background(), backend); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("expected a second submit to be refused, got %v", err)
	}

	close(backend.release)
	res := <-done
	if res.err != nil {
		t.Fatalf("submit failed: %v", res.err)
	}

	snap := s.Snapshot()
	if snap.ID == nil || *snap.ID != res.resp.ID {
		t.Fatalf("expected the session to continue from product %s, got %v", res.resp.ID, snap.ID)
	}
	if snap.Name != "Linen Shirt" {
		t.Errorf("expected the refused edit to be absent, got %q", snap.Name)
	}
	if err := s.Do(func(d *drafts.ProductDraft) error { return nil }); err != nil {
		t.Errorf("expected edits to be accepted after submit, got %v", err)
	}
}

func TestSubmitInvalidDraftKeepsSessionEditable(t *testing.T) {
	store := newTestStore()
	s := store.Create(uuid.New(), drafts.NewProductDraft(0))

	_, err := s.Submit(context.Background(), &gatedSubmitter{})
	var verr *drafts.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if verr.Fields.Empty() {
		t.Error("expected the error map to be returned")
	}
	if err := s.Do(func(d *drafts.ProductDraft) error { return nil }); err != nil {
		t.Errorf("expected the session to stay editable, got %v", err)
	}
}
