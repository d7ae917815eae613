package backend

import (
	"context"
	"mime/multipart"
	"net/http"
	"time"

	"catalog-admin/apperr"
	"catalog-admin/dtos"
	"catalog-admin/utils"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// RESTClient talks to the catalog REST API.
type RESTClient struct {
	client *resty.Client
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "catalog-admin/1.0")

	return &RESTClient{client: client}
}

func (c *RESTClient) request(ctx context.Context) *resty.Request {
	req := c.client.R().
		SetContext(ctx).
		SetError(&apiError{})
	if token := TokenFrom(ctx); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// statusError turns a non-2xx response into an apperr with a matching kind.
func statusError(resp *resty.Response, op string) error {
	msg := resp.Status()
	if e, ok := resp.Error().(*apiError); ok {
		if e.Error != "" {
			msg = e.Error
		} else if e.Message != "" {
			msg = e.Message
		}
	}

	kind := apperr.Internal
	switch resp.StatusCode() {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = apperr.InvalidInput
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = apperr.Unauthorized
	case http.StatusNotFound:
		kind = apperr.NotFound
	}
	return apperr.Newf(kind, "%s: %s", op, msg)
}

func (c *RESTClient) UploadImage(ctx context.Context, file *multipart.FileHeader) (string, error) {
	contentType, err := utils.DetectContentType(file)
	if err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, file.Filename, err)
	}
	f, err := file.Open()
	if err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, file.Filename, err)
	}
	defer f.Close()

	var res dtos.UploadResponse
	resp, err := c.request(ctx).
		SetMultipartField("file", file.Filename, contentType, f).
		SetResult(&res).
		Post("/upload")
	if err != nil {
		return "", apperr.Wrap(apperr.UploadFailed, file.Filename, err)
	}
	if resp.IsError() {
		return "", apperr.Wrap(apperr.UploadFailed, file.Filename, statusError(resp, "upload"))
	}
	if res.FileURL == "" {
		return "", apperr.Newf(apperr.UploadFailed, "%s: no file URL in response", file.Filename)
	}
	return res.FileURL, nil
}

func (c *RESTClient) SetVariantImagePrimary(ctx context.Context, imageID uuid.UUID) ([]dtos.VariantImage, error) {
	var images []dtos.VariantImage
	resp, err := c.request(ctx).
		SetPathParam("imageId", imageID.String()).
		SetResult(&images).
		Put("/variant-images/{imageId}/primary")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, statusError(resp, "set primary image")
	}
	return images, nil
}

// SubmitProduct creates the product when req has no id and updates it otherwise.
func (c *RESTClient) SubmitProduct(ctx context.Context, req dtos.ProductSubmitRequest) (*dtos.ProductResponse, error) {
	var product dtos.ProductResponse
	r := c.request(ctx).
		SetBody(req).
		SetResult(&product)

	var (
		resp *resty.Response
		err  error
	)
	if req.ID == nil {
		resp, err = r.Post("/products")
	} else {
		resp, err = r.SetPathParam("productId", req.ID.String()).Put("/products/{productId}")
	}
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, statusError(resp, "submit product")
	}
	return &product, nil
}

func (c *RESTClient) GetProduct(ctx context.Context, id uuid.UUID) (*dtos.ProductResponse, error) {
	var product dtos.ProductResponse
	resp, err := c.request(ctx).
		SetPathParam("productId", id.String()).
		SetResult(&product).
		Get("/products/{productId}")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, statusError(resp, "get product")
	}
	return &product, nil
}
