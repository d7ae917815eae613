package drafts

import (
	"context"
	"log"

	"catalog-admin/apperr"
	"catalog-admin/dtos"

	"github.com/google/uuid"
)

// PrimarySetter is the backend call that makes an image the primary one of its
// variant and returns the variant's full image list.
type PrimarySetter interface {
	SetVariantImagePrimary(ctx context.Context, imageID uuid.UUID) ([]dtos.VariantImage, error)
}

// PrimaryImageSync changes a variant's primary image locally right away and then
// tries to bring the backend in line. Local state is never rolled back.
type PrimaryImageSync struct {
	Backend  PrimarySetter
	Notifier Notifier
}

// Reconciliation tracks the background backend call started by Request.
type Reconciliation struct {
	started bool
	done    chan struct{}
	images  ImageCollection
	err     error
}

func finishedReconciliation() *Reconciliation {
	r := &Reconciliation{done: make(chan struct{})}
	close(r.done)
	return r
}

// Started reports whether a backend call was issued at all.
func (r *Reconciliation) Started() bool { return r.started }

// Done is closed once the backend call has finished (immediately if none was issued).
func (r *Reconciliation) Done() <-chan struct{} { return r.done }

// Wait blocks until the reconciliation finishes and returns its error.
func (r *Reconciliation) Wait() error {
	<-r.done
	return r.err
}

// Err returns the outcome of a finished reconciliation. A ReconciliationFailed
// error is advisory; any other kind means the backend replied with something unusable.
func (r *Reconciliation) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Images returns the authoritative list received from the backend, if any.
func (r *Reconciliation) Images() ImageCollection {
	select {
	case <-r.done:
		return r.images
	default:
		return nil
	}
}

// Request makes imageID the primary image of v.
//
// The local change is applied to v before Request returns. For a variant the
// backend already knows, a reconciliation call runs in the background; on
// success apply receives the backend's image list, which replaces local state.
// On failure local state is kept and the Notifier gets an info event. apply runs
// on the background goroutine, so it must do its own locking and must not use v.
func (s *PrimaryImageSync) Request(ctx context.Context, v *VariantDraft, imageID uuid.UUID, apply func(ImageCollection)) (*Reconciliation, error) {
	if v.Images.Find(imageID) < 0 {
		return nil, apperr.New(apperr.NotFound, "image not found in variant")
	}

	v.Images = v.Images.SetPrimary(imageID)

	if !v.Persisted() || s.Backend == nil {
		return finishedReconciliation(), nil
	}

	r := &Reconciliation{started: true, done: make(chan struct{})}
	variantKey := v.Key
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer close(r.done)

		images, err := s.Backend.SetVariantImagePrimary(ctx, imageID)
		if err != nil {
			// Expected for images created in this session: the backend has never seen them.
			r.err = apperr.Wrap(apperr.ReconciliationFailed, "primary image saved locally only", err)
			log.Printf("Primary image %s not reconciled, keeping local state: %v", imageID, err)
			notify(s.Notifier, Event{
				Level:      LevelInfo,
				Kind:       apperr.ReconciliationFailed,
				Message:    "Primary image updated locally; it will be saved with the product",
				VariantKey: variantKey,
				ImageID:    imageID,
			})
			return
		}

		if len(images) == 0 {
			r.err = apperr.New(apperr.Internal, "backend returned an empty image list")
			log.Printf("Malformed set-primary response for image %s: empty image list", imageID)
			notify(s.Notifier, Event{
				Level:      LevelError,
				Kind:       apperr.Internal,
				Message:    "Unexpected response while saving the primary image",
				VariantKey: variantKey,
				ImageID:    imageID,
			})
			return
		}

		r.images = ImagesFromServer(images)
		if apply != nil {
			apply(r.images)
		}
	}()

	return r, nil
}
