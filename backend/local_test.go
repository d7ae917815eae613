package backend

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"catalog-admin/apperr"
	"catalog-admin/database"
	"catalog-admin/dtos"
	"catalog-admin/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	// One connection, so every statement sees the same in-memory database.
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	return db
}

func createCategory(t *testing.T, db *gorm.DB) uuid.UUID {
	cat := models.Category{Name: "Shirts-" + uuid.NewString()[:8]}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatal(err)
	}
	return cat.ID
}

func submitRequest(categoryID uuid.UUID) dtos.ProductSubmitRequest {
	variant := func(n int) dtos.VariantSubmit {
		return dtos.VariantSubmit{
			ColorID: uuid.New(),
			Status:  "ACTIVE",
			Sizes: []dtos.SizeSubmit{
				{SizeID: uuid.New(), Price: decimal.RequireFromString("19.90"), Quantity: 5},
				{SizeID: uuid.New(), Price: decimal.RequireFromString("21.90"), Quantity: 0},
			},
			Images: []dtos.ImageSubmit{
				{ImageURL: "https://storage.googleapis.com/test-bucket/variants/a" + string(rune('0'+n)) + ".jpg", IsPrimary: true, DisplayOrder: 0},
				{ImageURL: "https://storage.googleapis.com/test-bucket/variants/b" + string(rune('0'+n)) + ".jpg", DisplayOrder: 1},
			},
		}
	}
	return dtos.ProductSubmitRequest{
		Name:        "Linen Shirt",
		Description: "Breathable linen shirt",
		Enabled:     true,
		CategoryID:  categoryID,
		Variants:    []dtos.VariantSubmit{variant(1), variant(2)},
	}
}

func TestLocalSubmitCreatesProductTree(t *testing.T) {
	db := setupTestDB(t)
	b := NewLocalBackend(db, newMockStorage())

	req := submitRequest(createCategory(t, db))
	resp, err := b.SubmitProduct(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if resp.ID == uuid.Nil || resp.Name != "Linen Shirt" || !resp.Enabled {
		t.Fatalf("unexpected product %+v", resp)
	}
	if len(resp.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(resp.Variants))
	}
	for i, v := range resp.Variants {
		if v.ColorID != req.Variants[i].ColorID {
			t.Errorf("variant %d out of order", i)
		}
		if len(v.Sizes) != 2 || v.Sizes[1].SizeID != req.Variants[i].Sizes[1].SizeID {
			t.Errorf("variant %d sizes not stored in order: %+v", i, v.Sizes)
		}
		if len(v.Images) != 2 || !v.Images[0].IsPrimary || v.Images[1].IsPrimary {
			t.Errorf("variant %d images not stored correctly: %+v", i, v.Images)
		}
		if v.ImageURL != v.Images[0].ImageURL {
			t.Errorf("variant %d legacy image url should mirror the primary image", i)
		}
	}
}

func TestLocalSubmitUpdatesAndDeletes(t *testing.T) {
	db := setupTestDB(t)
	storage := newMockStorage()
	b := NewLocalBackend(db, storage)

	first, err := b.SubmitProduct(context.Background(), submitRequest(createCategory(t, db)))
	if err != nil {
		t.Fatal(err)
	}

	// Keep variant 0 with its first size and second image (now primary),
	// add a new image, and drop variant 1 entirely.
	v0 := first.Variants[0]
	keptSize := v0.Sizes[0].ID
	keptImage := v0.Images[1].ID
	req := dtos.ProductSubmitRequest{
		ID:          &first.ID,
		Name:        "Linen Shirt v2",
		Description: first.Description,
		Enabled:     false,
		CategoryID:  first.CategoryID,
		Variants: []dtos.VariantSubmit{{
			ID:      &v0.ID,
			ColorID: v0.ColorID,
			Status:  "INACTIVE",
			Sizes: []dtos.SizeSubmit{
				{ID: &keptSize, SizeID: v0.Sizes[0].SizeID, Price: decimal.RequireFromString("15"), Quantity: 9},
			},
			Images: []dtos.ImageSubmit{
				{ID: &keptImage, ImageURL: v0.Images[1].ImageURL, IsPrimary: true, DisplayOrder: 0},
				{ImageURL: "https://cdn.example.com/new.jpg", AltText: "new", DisplayOrder: 1},
			},
		}},
	}

	resp, err := b.SubmitProduct(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.ID != first.ID || resp.Name != "Linen Shirt v2" || resp.Enabled {
		t.Fatalf("product not updated: %+v", resp)
	}
	if len(resp.Variants) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(resp.Variants))
	}
	v := resp.Variants[0]
	if v.ID != v0.ID || v.Status != "INACTIVE" {
		t.Errorf("variant not updated in place: %+v", v)
	}
	if len(v.Sizes) != 1 || v.Sizes[0].ID != keptSize || v.Sizes[0].Quantity != 9 {
		t.Errorf("sizes not synced: %+v", v.Sizes)
	}
	if len(v.Images) != 2 || v.Images[0].ID != keptImage || !v.Images[0].IsPrimary || v.Images[1].IsPrimary {
		t.Errorf("images not synced: %+v", v.Images)
	}

	var sizeCount, imageCount, variantCount int64
	db.Model(&models.VariantSize{}).Count(&sizeCount)
	db.Model(&models.VariantImage{}).Count(&imageCount)
	db.Model(&models.ProductVariant{}).Count(&variantCount)
	if sizeCount != 1 || imageCount != 2 || variantCount != 1 {
		t.Errorf("stale rows left: sizes=%d images=%d variants=%d", sizeCount, imageCount, variantCount)
	}

	// a1 of variant 0 plus both images of variant 1 were removed from storage
	if len(storage.DeleteFileCalls) != 3 {
		t.Errorf("expected 3 storage deletions, got %v", storage.DeleteFileCalls)
	}
}

func TestLocalSubmitKeepsFilesStillReferenced(t *testing.T) {
	db := setupTestDB(t)
	storage := newMockStorage()
	b := NewLocalBackend(db, storage)

	first, err := b.SubmitProduct(context.Background(), submitRequest(createCategory(t, db)))
	if err != nil {
		t.Fatal(err)
	}

	// Drop the stored row of image a1 and add its URL back as a new image.
	req := submitRequest(first.CategoryID)
	req.ID = &first.ID
	for i, v := range first.Variants {
		id := v.ID
		req.Variants[i].ID = &id
		req.Variants[i].Sizes = nil
		for j := range v.Sizes {
			sid := v.Sizes[j].ID
			req.Variants[i].Sizes = append(req.Variants[i].Sizes, dtos.SizeSubmit{ID: &sid, SizeID: v.Sizes[j].SizeID, Price: v.Sizes[j].Price})
		}
		kept := v.Images[1].ID
		req.Variants[i].Images = []dtos.ImageSubmit{
			{ImageURL: v.Images[0].ImageURL, IsPrimary: true, DisplayOrder: 0},
			{ID: &kept, ImageURL: v.Images[1].ImageURL, DisplayOrder: 1},
		}
	}

	resp, err := b.SubmitProduct(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	v0 := resp.Variants[0]
	if v0.Images[0].ID == first.Variants[0].Images[0].ID {
		t.Fatal("expected the re-added image to get a new row")
	}
	if v0.Images[0].ImageURL != first.Variants[0].Images[0].ImageURL {
		t.Fatalf("expected the same URL to be kept, got %s", v0.Images[0].ImageURL)
	}
	if len(storage.DeleteFileCalls) != 0 {
		t.Errorf("expected no storage deletions for URLs still in use, got %v", storage.DeleteFileCalls)
	}
}

func TestLocalSubmitEnforcesSinglePrimary(t *testing.T) {
	db := setupTestDB(t)
	b := NewLocalBackend(db, nil)

	req := submitRequest(createCategory(t, db))
	req.Variants[0].Images[1].IsPrimary = true
	req.Variants[1].Images[0].IsPrimary = false

	resp, err := b.SubmitProduct(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Variants[0].Images[0].IsPrimary || resp.Variants[0].Images[1].IsPrimary {
		t.Errorf("first primary should win: %+v", resp.Variants[0].Images)
	}
	if !resp.Variants[1].Images[0].IsPrimary {
		t.Errorf("first image should be promoted when none is primary: %+v", resp.Variants[1].Images)
	}
}

func TestLocalSubmitRejectsForeignIDs(t *testing.T) {
	db := setupTestDB(t)
	b := NewLocalBackend(db, nil)
	categoryID := createCategory(t, db)

	first, err := b.SubmitProduct(context.Background(), submitRequest(categoryID))
	if err != nil {
		t.Fatal(err)
	}

	req := submitRequest(categoryID)
	req.ID = &first.ID
	foreign := uuid.New()
	req.Variants[0].Images[0].ID = &foreign
	if _, err := b.SubmitProduct(context.Background(), req); !apperr.Is(err, apperr.InvalidInput) {
		t.Fatalf("expected invalid_input for unknown image id, got %v", err)
	}

	// The failed submit must not have changed anything.
	again, err := b.GetProduct(context.Background(), first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Variants[0].ID != first.Variants[0].ID {
		t.Error("failed submit should roll back")
	}
}

func TestLocalSubmitUnknownCategoryOrProduct(t *testing.T) {
	db := setupTestDB(t)
	b := NewLocalBackend(db, nil)

	_, err := b.SubmitProduct(context.Background(), submitRequest(uuid.New()))
	if !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("expected invalid_input for unknown category, got %v", err)
	}

	req := submitRequest(createCategory(t, db))
	missing := uuid.New()
	req.ID = &missing
	_, err = b.SubmitProduct(context.Background(), req)
	if !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected not_found for unknown product, got %v", err)
	}
}

func TestLocalSetVariantImagePrimary(t *testing.T) {
	db := setupTestDB(t)
	b := NewLocalBackend(db, nil)

	product, err := b.SubmitProduct(context.Background(), submitRequest(createCategory(t, db)))
	if err != nil {
		t.Fatal(err)
	}
	target := product.Variants[0].Images[1]

	images, err := b.SetVariantImagePrimary(context.Background(), target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 2 || images[0].IsPrimary || !images[1].IsPrimary {
		t.Errorf("unexpected images after set primary: %+v", images)
	}
	if images[1].DisplayOrder != 1 {
		t.Errorf("display order should be kept, got %d", images[1].DisplayOrder)
	}

	again, _ := b.GetProduct(context.Background(), product.ID)
	if again.Variants[0].ImageURL != target.ImageURL {
		t.Error("legacy image url should follow the primary image")
	}
	if !again.Variants[1].Images[0].IsPrimary {
		t.Error("other variants must not be touched")
	}
}

func TestLocalSetVariantImagePrimaryUnknownImage(t *testing.T) {
	b := NewLocalBackend(setupTestDB(t), nil)
	_, err := b.SetVariantImagePrimary(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestLocalGetProductNotFound(t *testing.T) {
	b := NewLocalBackend(setupTestDB(t), nil)
	_, err := b.GetProduct(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestLocalUploadImage(t *testing.T) {
	storage := newMockStorage()
	b := NewLocalBackend(nil, storage)

	url, err := b.UploadImage(context.Background(), formFile(t, "front.png", pngHeader))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(url, "/variants/front.png") {
		t.Errorf("unexpected url %s", url)
	}
	if len(storage.UploadCalls) != 1 || storage.UploadCalls[0] != "front.png|image/png" {
		t.Errorf("unexpected upload calls %v", storage.UploadCalls)
	}
}

func TestLocalUploadImageStorageFailure(t *testing.T) {
	storage := newMockStorage()
	storage.UploadVariantImageFn = func(file io.Reader, filename, contentType string) (string, error) {
		return "", errors.New("bucket unavailable")
	}
	b := NewLocalBackend(nil, storage)

	_, err := b.UploadImage(context.Background(), formFile(t, "front.png", pngHeader))
	if !apperr.Is(err, apperr.UploadFailed) {
		t.Fatalf("expected upload_failed, got %v", err)
	}
}

func TestLocalUploadImageWithoutStorage(t *testing.T) {
	b := NewLocalBackend(nil, nil)
	_, err := b.UploadImage(context.Background(), formFile(t, "front.png", pngHeader))
	if !apperr.Is(err, apperr.UploadFailed) {
		t.Fatalf("expected upload_failed, got %v", err)
	}
}
