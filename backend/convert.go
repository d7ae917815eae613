package backend

import (
	"catalog-admin/dtos"
	"catalog-admin/models"
)

func toVariantImages(images []models.VariantImage) []dtos.VariantImage {
	out := make([]dtos.VariantImage, 0, len(images))
	for _, img := range images {
		out = append(out, dtos.VariantImage{
			ID:           img.ID,
			VariantID:    img.VariantID,
			ImageURL:     img.ImageURL,
			AltText:      img.AltText,
			IsPrimary:    img.IsPrimary,
			DisplayOrder: img.DisplayOrder,
		})
	}
	return out
}

func toProductResponse(p models.Product) *dtos.ProductResponse {
	resp := &dtos.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Enabled:     p.Enabled,
		CategoryID:  p.CategoryID,
		Variants:    make([]dtos.VariantResponse, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		v.SortChildren()
		vr := dtos.VariantResponse{
			ID:       v.ID,
			ColorID:  v.ColorID,
			Status:   v.Status,
			ImageURL: v.ImageURL,
			Sizes:    make([]dtos.SizeResponse, 0, len(v.Sizes)),
			Images:   toVariantImages(v.Images),
		}
		for _, s := range v.Sizes {
			vr.Sizes = append(vr.Sizes, dtos.SizeResponse{
				ID:       s.ID,
				SizeID:   s.SizeID,
				Price:    s.Price,
				Quantity: s.Quantity,
			})
		}
		resp.Variants = append(resp.Variants, vr)
	}
	return resp
}
