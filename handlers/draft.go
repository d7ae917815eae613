package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"catalog-admin/apperr"
	"catalog-admin/backend"
	"catalog-admin/drafts"
	"catalog-admin/dtos"
	"catalog-admin/middleware"
	"catalog-admin/sessions"
	"catalog-admin/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DraftHandler exposes product editing sessions to the admin UI.
type DraftHandler struct {
	Store     *sessions.DraftStore
	Backend   backend.Backend
	MaxImages int
}

// DraftResponse is what every draft endpoint returns on success.
type DraftResponse struct {
	ID    uuid.UUID            `json:"id"`
	Draft *drafts.ProductDraft `json:"draft"`
}

func respondError(c *gin.Context, err error) {
	var verr *drafts.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  apperr.PublicMessage(err),
			"errors": verr.Fields,
		})
		return
	}

	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("Draft request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

func respondDraft(c *gin.Context, status int, sess *sessions.Session) {
	c.JSON(status, DraftResponse{ID: sess.ID, Draft: sess.Snapshot()})
}

// backendContext carries the caller's token through to the catalog backend.
func backendContext(c *gin.Context) context.Context {
	return backend.WithToken(c.Request.Context(), c.GetString(middleware.TokenKey))
}

func currentUser(c *gin.Context) uuid.UUID {
	v, _ := c.Get(middleware.UserIDKey)
	id, _ := v.(uuid.UUID)
	return id
}

// session loads the draft session named in the path. Sessions of other users
// are reported as missing.
func (h *DraftHandler) session(c *gin.Context) (*sessions.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid draft ID"})
		return nil, false
	}
	sess, ok := h.Store.Get(id)
	if !ok || sess.OwnerID != currentUser(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Draft not found"})
		return nil, false
	}
	return sess, true
}

func indexParam(c *gin.Context, name string) (int, bool) {
	i, err := strconv.Atoi(c.Param(name))
	if err != nil || i < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " index"})
		return 0, false
	}
	return i, true
}

func parseOptionalUUID(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperr.Newf(apperr.InvalidInput, "invalid id %q", s)
	}
	return id, nil
}

// CreateDraft starts an editing session for a new product.
func (h *DraftHandler) CreateDraft(c *gin.Context) {
	sess := h.Store.Create(currentUser(c), drafts.NewProductDraft(h.MaxImages))
	respondDraft(c, http.StatusCreated, sess)
}

// OpenProduct starts an editing session for an existing product.
func (h *DraftHandler) OpenProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.Backend.GetProduct(backendContext(c), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	sess := h.Store.Create(currentUser(c), drafts.HydrateDraft(*product, h.MaxImages))
	respondDraft(c, http.StatusCreated, sess)
}

func (h *DraftHandler) GetDraft(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	respondDraft(c, http.StatusOK, sess)
}

// DiscardDraft ends the session. Background results still in flight are dropped.
func (h *DraftHandler) DiscardDraft(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	h.Store.Delete(sess.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Draft discarded"})
}

func (h *DraftHandler) UpdateProduct(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req dtos.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	err := sess.Do(func(d *drafts.ProductDraft) error {
		if req.CategoryID != nil {
			categoryID, err := parseOptionalUUID(*req.CategoryID)
			if err != nil {
				return err
			}
			d.SetCategory(categoryID)
		}
		if req.Name != nil {
			d.SetName(*req.Name)
		}
		if req.Description != nil {
			d.SetDescription(*req.Description)
		}
		if req.Enabled != nil {
			d.SetEnabled(*req.Enabled)
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondDraft(c, http.StatusOK, sess)
}

func (h *DraftHandler) AddVariant(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.Do(func(d *drafts.ProductDraft) error {
		d.AddVariant()
		return nil
	}); err != nil {
		respondError(c, err)
		return
	}
	respondDraft(c, http.StatusCreated, sess)
}

func (h *DraftHandler) UpdateVariant(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	vi, ok := indexParam(c, "vi")
	if !ok {
		return
	}

	var req dtos.UpdateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var status drafts.VariantStatus
	if req.Status != nil {
		parsed, err := drafts.ParseVariantStatus(*req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		status = parsed
	}
	var colorID uuid.UUID
	if req.ColorID != nil {
		parsed, err := parseOptionalUUID(*req.ColorID)
		if err != nil {
			respondError(c, err)
			return
		}
		colorID = parsed
	}

	err := sess.Do(func(d *drafts.ProductDraft) error {
		if _, err := d.Variant(vi); err != nil {
			return err
		}
		if req.Status != nil {
			if err := d.SetVariantStatus(vi, status); err != nil {
				return err
			}
		}
		if req.ColorID != nil {
			return d.SetVariantColor(vi, colorID)
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondDraft(c, http.StatusOK, sess)
}

func (h *DraftHandler) RemoveVariant(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	vi, ok := indexParam(c, "vi")
	if !ok {
		return
	}

	if err := sess.Do(func(d *drafts.ProductDraft) error {
		return d.RemoveVariant(vi)
	}); err != nil {
		respondError(c, err)
		return
	}
	respondDraft(c, http.StatusOK, sess)
}

func (h *DraftHandler) AddSize(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	vi, ok := indexParam(c, "vi")
	if !ok {
		return
	}

	if err := sess.Do(func(d *drafts.ProductDraft) error {
		return d.AddSize(vi)
	}); err != nil {
		respondError(c, err)
		return
	}
	respondDraft(c, http.StatusCreated, sess)
}

func (h *DraftHandler) UpdateSize(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	vi, ok := indexParam(c, "vi")
	if !ok {
		return
	}
	si, ok := indexParam(c, "si")
	if !ok {
		return
	}

	var req dtos.UpdateSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if err := sess.Do(func(d *drafts.ProductDraft) error {
		return d.UpdateSize(vi, si, drafts.SizeField(req.Field), req.Value)
	}); err != nil {
		respondError(c, err)
		return
	}
	respondDraft(c, http.StatusOK, sess)
}

func (h *DraftHandler) RemoveSize(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	vi, ok := indexParam(c, "vi")
	if !ok {
		return
	}
	si, ok := indexParam(c, "si")
	if !ok {
		return
	}

	if err := sess.Do(func(d *drafts.ProductDraft) error {
		return d.RemoveSize(vi, si)
	}); err != nil {
		respondError(c, err)
		return
	}
	respondDraft(c, http.StatusOK, sess)
}

// GetErrors returns the error map as of the last validation.
func (h *DraftHandler) GetErrors(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": sess.Snapshot().Errors})
}

// ValidateDraft recomputes the error map without submitting.
func (h *DraftHandler) ValidateDraft(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var errs drafts.ErrorMap
	if err := sess.Do(func(d *drafts.ProductDraft) error {
		errs = d.Validate()
		return nil
	}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": errs.Empty(), "errors": errs})
}

// SubmitDraft validates the draft and saves it through the backend. On success
// the session continues from the saved product, so later submits update it.
func (h *DraftHandler) SubmitDraft(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	ctx := backendContext(c)

	saved, err := sess.Submit(ctx, h.Backend)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Draft %s saved as product %s", sess.ID, saved.ID)
	respondDraft(c, http.StatusOK, sess)
}

// GetNotices drains the informational and error notices raised since the last call.
func (h *DraftHandler) GetNotices(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"notices": sess.Notices()})
}
