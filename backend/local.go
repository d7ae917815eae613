package backend

import (
	"context"
	"errors"
	"log"
	"mime/multipart"

	"catalog-admin/apperr"
	"catalog-admin/dtos"
	"catalog-admin/firebase"
	"catalog-admin/models"
	"catalog-admin/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocalBackend serves the catalog operations straight from the database, with
// image files kept in Firebase Storage.
type LocalBackend struct {
	DB      *gorm.DB
	Storage firebase.StorageClient
}

func NewLocalBackend(db *gorm.DB, storage firebase.StorageClient) *LocalBackend {
	return &LocalBackend{DB: db, Storage: storage}
}

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.NotFound, msg)
	}
	return err
}

func (b *LocalBackend) UploadImage(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if b.Storage == nil {
		return "", apperr.New(apperr.UploadFailed, "file storage is not configured")
	}
	contentType, err := utils.DetectContentType(file)
	if err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, file.Filename, err)
	}
	f, err := file.Open()
	if err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, file.Filename, err)
	}
	defer f.Close()

	url, err := b.Storage.UploadVariantImage(ctx, f, file.Filename, contentType)
	if err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, file.Filename, err)
	}
	return url, nil
}

// SetVariantImagePrimary flags imageID as the only primary image of its variant
// and returns the variant's images in display order.
func (b *LocalBackend) SetVariantImagePrimary(ctx context.Context, imageID uuid.UUID) ([]dtos.VariantImage, error) {
	var images []models.VariantImage
	err := b.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var img models.VariantImage
		if err := tx.First(&img, "id = ?", imageID).Error; err != nil {
			return notFound(err, "image not found")
		}

		if err := tx.Model(&models.VariantImage{}).
			Where("variant_id = ?", img.VariantID).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&img).Update("is_primary", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ProductVariant{}).
			Where("id = ?", img.VariantID).
			Update("image_url", img.ImageURL).Error; err != nil {
			return err
		}

		return tx.Where("variant_id = ?", img.VariantID).Order("display_order").Find(&images).Error
	})
	if err != nil {
		return nil, err
	}
	return toVariantImages(images), nil
}

func (b *LocalBackend) GetProduct(ctx context.Context, id uuid.UUID) (*dtos.ProductResponse, error) {
	var product models.Product
	err := b.DB.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Variants.Sizes").
		Preload("Variants.Images").
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "product not found")
	}
	return toProductResponse(product), nil
}

// SubmitProduct creates or updates a product with its whole variant tree.
// Entities sent with an id are updated, entities without one are created and
// stored entities missing from the request are deleted.
func (b *LocalBackend) SubmitProduct(ctx context.Context, req dtos.ProductSubmitRequest) (*dtos.ProductResponse, error) {
	var (
		productID uuid.UUID
		removed   []string
	)

	err := b.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Category{}).Where("id = ?", req.CategoryID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.New(apperr.InvalidInput, "category does not exist")
		}

		var product models.Product
		if req.ID != nil {
			err := tx.Preload("Variants.Sizes").Preload("Variants.Images").
				First(&product, "id = ?", *req.ID).Error
			if err != nil {
				return notFound(err, "product not found")
			}
		}
		existing := make(map[uuid.UUID]models.ProductVariant, len(product.Variants))
		for _, v := range product.Variants {
			existing[v.ID] = v
		}

		product.Name = req.Name
		product.Description = req.Description
		product.Enabled = req.Enabled
		product.CategoryID = req.CategoryID
		product.Variants = nil
		if err := tx.Omit(clause.Associations).Save(&product).Error; err != nil {
			return err
		}
		productID = product.ID

		kept := make(map[uuid.UUID]bool, len(req.Variants))
		for pos, vs := range req.Variants {
			var variant models.ProductVariant
			if vs.ID != nil {
				old, ok := existing[*vs.ID]
				if !ok {
					return apperr.Newf(apperr.InvalidInput, "variant %s does not belong to this product", *vs.ID)
				}
				variant = old
				kept[old.ID] = true
			}
			oldSizes, oldImages := variant.Sizes, variant.Images

			variant.ProductID = product.ID
			variant.ColorID = vs.ColorID
			variant.Status = vs.Status
			variant.Position = pos
			variant.ImageURL = vs.ImageURL
			variant.Sizes, variant.Images = nil, nil
			if err := tx.Omit(clause.Associations).Save(&variant).Error; err != nil {
				return err
			}

			if err := syncSizes(tx, variant.ID, oldSizes, vs.Sizes); err != nil {
				return err
			}
			images, dropped, err := syncImages(tx, variant.ID, oldImages, vs.Images)
			if err != nil {
				return err
			}
			removed = append(removed, dropped...)

			if primary := images.PrimaryImageURL(); primary != "" && primary != variant.ImageURL {
				if err := tx.Model(&variant).Update("image_url", primary).Error; err != nil {
					return err
				}
			}
		}

		for id, v := range existing {
			if kept[id] {
				continue
			}
			for _, img := range v.Images {
				removed = append(removed, img.ImageURL)
			}
			if err := tx.Where("variant_id = ?", id).Delete(&models.VariantSize{}).Error; err != nil {
				return err
			}
			if err := tx.Where("variant_id = ?", id).Delete(&models.VariantImage{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.ProductVariant{}, "id = ?", id).Error; err != nil {
				return err
			}
		}

		var err error
		removed, err = unreferencedURLs(tx, removed)
		return err
	})
	if err != nil {
		return nil, err
	}

	b.deleteStoredFiles(ctx, removed)
	return b.GetProduct(ctx, productID)
}

func syncSizes(tx *gorm.DB, variantID uuid.UUID, old []models.VariantSize, in []dtos.SizeSubmit) error {
	stored := make(map[uuid.UUID]models.VariantSize, len(old))
	for _, s := range old {
		stored[s.ID] = s
	}

	kept := make(map[uuid.UUID]bool, len(in))
	for pos, s := range in {
		var size models.VariantSize
		if s.ID != nil {
			prev, ok := stored[*s.ID]
			if !ok {
				return apperr.Newf(apperr.InvalidInput, "size %s does not belong to this variant", *s.ID)
			}
			size = prev
			kept[prev.ID] = true
		}
		size.VariantID = variantID
		size.SizeID = s.SizeID
		size.Price = s.Price
		size.Quantity = s.Quantity
		size.Position = pos
		if err := tx.Save(&size).Error; err != nil {
			return err
		}
	}

	var stale []uuid.UUID
	for id := range stored {
		if !kept[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return tx.Where("id IN ?", stale).Delete(&models.VariantSize{}).Error
}

// syncImages stores the requested image list. DisplayOrder follows request
// order and only the first image flagged primary keeps the flag; a list with
// no primary gets its first image promoted. It returns the stored variant
// (images only) and the URLs of images that were removed.
func syncImages(tx *gorm.DB, variantID uuid.UUID, old []models.VariantImage, in []dtos.ImageSubmit) (models.ProductVariant, []string, error) {
	stored := make(map[uuid.UUID]models.VariantImage, len(old))
	for _, img := range old {
		stored[img.ID] = img
	}

	hasPrimary := false
	for _, img := range in {
		if img.IsPrimary {
			hasPrimary = true
			break
		}
	}

	result := models.ProductVariant{ID: variantID}
	kept := make(map[uuid.UUID]bool, len(in))
	seenPrimary := false
	for pos, is := range in {
		var img models.VariantImage
		if is.ID != nil {
			prev, ok := stored[*is.ID]
			if !ok {
				return result, nil, apperr.Newf(apperr.InvalidInput, "image %s does not belong to this variant", *is.ID)
			}
			img = prev
			kept[prev.ID] = true
		}

		primary := is.IsPrimary && !seenPrimary
		if !hasPrimary && pos == 0 {
			primary = true
		}
		seenPrimary = seenPrimary || primary

		img.VariantID = variantID
		img.ImageURL = is.ImageURL
		img.AltText = is.AltText
		img.IsPrimary = primary
		img.DisplayOrder = pos
		if err := tx.Save(&img).Error; err != nil {
			return result, nil, err
		}
		result.Images = append(result.Images, img)
	}

	var (
		stale   []uuid.UUID
		removed []string
	)
	for id, img := range stored {
		if !kept[id] {
			stale = append(stale, id)
			removed = append(removed, img.ImageURL)
		}
	}
	if len(stale) > 0 {
		if err := tx.Where("id IN ?", stale).Delete(&models.VariantImage{}).Error; err != nil {
			return result, nil, err
		}
	}
	return result, removed, nil
}

// unreferencedURLs drops the URLs that saved images or variants still point at,
// such as a removed image whose URL was added back.
func unreferencedURLs(tx *gorm.DB, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	var inUse []string
	if err := tx.Model(&models.VariantImage{}).Where("image_url IN ?", urls).Pluck("image_url", &inUse).Error; err != nil {
		return nil, err
	}
	var legacy []string
	if err := tx.Model(&models.ProductVariant{}).Where("image_url IN ?", urls).Pluck("image_url", &legacy).Error; err != nil {
		return nil, err
	}

	referenced := make(map[string]bool, len(inUse)+len(legacy))
	for _, u := range append(inUse, legacy...) {
		referenced[u] = true
	}
	var out []string
	for _, u := range urls {
		if !referenced[u] {
			referenced[u] = true
			out = append(out, u)
		}
	}
	return out, nil
}

// deleteStoredFiles removes files of deleted images from storage. Failures are
// logged only; the catalog change has already been committed.
func (b *LocalBackend) deleteStoredFiles(ctx context.Context, urls []string) {
	if b.Storage == nil {
		return
	}
	for _, url := range urls {
		objectPath, err := utils.ExtractObjectPath(url)
		if err != nil {
			// External URL, nothing stored by us
			continue
		}
		if err := b.Storage.DeleteFile(ctx, objectPath); err != nil {
			log.Printf("Warning: failed to delete image file %s: %v", objectPath, err)
		}
	}
}
