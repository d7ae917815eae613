package handlers

import (
	"log"
	"net/http"

	"catalog-admin/apperr"
	"catalog-admin/drafts"
	"catalog-admin/dtos"
	"catalog-admin/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func imageIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("imageId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image ID"})
		return uuid.Nil, false
	}
	return id, true
}

// AddImageURL appends an image by URL to a variant.
func (h *DraftHandler) AddImageURL(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	vi, ok := indexParam(c, "vi")
	if !ok {
		return
	}

	var req dtos.AddImageURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var entry drafts.ImageEntry
	if err := sess.Do(func(d *drafts.ProductDraft) error {
		var err error
		entry, err = d.AddImageURL(vi, req.URL)
		return err
	}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"image": entry, "draft": sess.Snapshot()})
}

// UploadImages uploads the files of the multipart field "images" and appends
// the ones that succeed to the variant in the order they were sent.
func (h *DraftHandler) UploadImages(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	vi, ok := indexParam(c, "vi")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form"})
		return
	}
	files := form.File["images"]

	var variantKey uuid.UUID
	var current, maxImages int
	if err := sess.Do(func(d *drafts.ProductDraft) error {
		v, err := d.Variant(vi)
		if err != nil {
			return err
		}
		variantKey = v.Key
		current = len(v.Images)
		maxImages = d.MaxImages
		return nil
	}); err != nil {
		respondError(c, err)
		return
	}

	// Uploads run without holding the session so other edits are not blocked.
	coordinator := &drafts.UploadBatchCoordinator{
		Uploader:  h.Backend,
		MaxImages: maxImages,
		Notifier:  sess,
	}
	results, err := coordinator.Upload(backendContext(c), files, current)
	if err != nil {
		respondError(c, err)
		return
	}

	report := drafts.BatchReport{Failed: drafts.Failed(results)}
	if err := sess.Do(func(d *drafts.ProductDraft) error {
		idx := d.VariantByKey(variantKey)
		if idx < 0 {
			return apperr.New(apperr.NotFound, "variant was removed during upload")
		}
		added, err := d.MergeUploads(idx, results)
		report.Added = added
		return err
	}); err != nil {
		// The files are stored already; hand their URLs back so they can be added by URL.
		report.Unmerged = drafts.UploadedURLs(results)
		log.Printf("Draft %s: %d uploaded image(s) not merged: %v", sess.ID, len(report.Unmerged), err)
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err), "report": report})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report, "draft": sess.Snapshot()})
}

func (h *DraftHandler) RemoveImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	vi, ok := indexParam(c, "vi")
	if !ok {
		return
	}
	imageID, ok := imageIDParam(c)
	if !ok {
		return
	}

	if err := sess.Do(func(d *drafts.ProductDraft) error {
		return d.RemoveImage(vi, imageID)
	}); err != nil {
		respondError(c, err)
		return
	}
	respondDraft(c, http.StatusOK, sess)
}

// SetPrimaryImage switches the primary image locally and answers right away.
// For saved variants the backend is updated in the background; its answer
// replaces the variant's images, and a failure shows up as a notice.
func (h *DraftHandler) SetPrimaryImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	vi, ok := indexParam(c, "vi")
	if !ok {
		return
	}
	imageID, ok := imageIDParam(c)
	if !ok {
		return
	}

	primarySync := &drafts.PrimaryImageSync{Backend: h.Backend, Notifier: sess}
	ctx := backendContext(c)

	var rec *drafts.Reconciliation
	if err := sess.Do(func(d *drafts.ProductDraft) error {
		v, err := d.Variant(vi)
		if err != nil {
			return err
		}
		key := v.Key
		rec, err = primarySync.Request(ctx, v, imageID, func(images drafts.ImageCollection) {
			if !sess.ApplyImages(key, images) {
				log.Printf("Draft %s: dropped primary image result for a removed variant", sess.ID)
			}
		})
		return err
	}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reconciling": rec.Started(), "draft": sess.Snapshot()})
}

func (h *DraftHandler) UpdateImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	vi, ok := indexParam(c, "vi")
	if !ok {
		return
	}
	imageID, ok := imageIDParam(c)
	if !ok {
		return
	}

	var req dtos.UpdateAltTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if err := sess.Do(func(d *drafts.ProductDraft) error {
		return d.UpdateImageAltText(vi, imageID, req.AltText)
	}); err != nil {
		respondError(c, err)
		return
	}
	respondDraft(c, http.StatusOK, sess)
}

func (h *DraftHandler) ReorderImages(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	vi, ok := indexParam(c, "vi")
	if !ok {
		return
	}

	var req dtos.ReorderImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if err := sess.Do(func(d *drafts.ProductDraft) error {
		return d.ReorderImages(vi, *req.From, *req.To)
	}); err != nil {
		respondError(c, err)
		return
	}
	respondDraft(c, http.StatusOK, sess)
}
