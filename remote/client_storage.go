package remote

import (
	"context"
	"net/http"
	"sort"

	"github.com/tsawler/annotator/annotation"
)

type StorageService struct {
	Options []RequestOption
}

func NewStorageService(opts ...RequestOption) StorageService {
	return StorageService{
		Options: opts,
	}
}

type annotationContent struct {
	Content []annotation.Record `json:"content"`
}

// Directories returns the document names, sorted
func (r *StorageService) Directories(ctx context.Context, opts ...RequestOption) ([]string, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	var result struct {
		Directories map[string]any `json:"directories"`
	}

	if err := doJSON(ctx, c, http.MethodGet, "/directories/", nil, &result); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(result.Directories))

	for name := range result.Directories {
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

func (r *StorageService) PageCount(ctx context.Context, document string, opts ...RequestOption) (int, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	var result struct {
		NumPages int `json:"num_pages"`
	}

	if err := doJSON(ctx, c, http.MethodGet, documentPath(document), nil, &result); err != nil {
		return 0, err
	}

	return result.NumPages, nil
}

func (r *StorageService) Annotations(ctx context.Context, document string, view int, opts ...RequestOption) ([]annotation.Record, error) {
	c := newRequestConfig(append(r.Options, opts...)...)
	return getAnnotations(ctx, c, document, view)
}

func (r *StorageService) SaveAnnotations(ctx context.Context, document string, view int, records []annotation.Record, opts ...RequestOption) error {
	c := newRequestConfig(append(r.Options, opts...)...)

	if records == nil {
		records = []annotation.Record{}
	}

	return doJSON(ctx, c, http.MethodPut, pagePath(document, view)+"/annotation", annotationContent{Content: records}, nil)
}

func getAnnotations(ctx context.Context, c *RequestConfig, document string, view int) ([]annotation.Record, error) {
	var result annotationContent

	if err := doJSON(ctx, c, http.MethodGet, pagePath(document, view)+"/annotation", nil, &result); err != nil {
		return nil, err
	}

	return result.Content, nil
}
