package api

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"pactline/internal/domain"
)

// DocumentsService covers agreement document upload, listing, download,
// and deletion. Documents are immutable once uploaded.
type DocumentsService struct {
	c *Client
}

func (s *DocumentsService) Upload(ctx context.Context, agreementID, fileName string, r io.Reader) (domain.Document, error) {
	var out domain.Document
	path := fmt.Sprintf("%s/%s/documents", agreementsPath, url.PathEscape(agreementID))
	err := s.c.Upload(ctx, path, fileName, r, &out)
	return out, err
}

func (s *DocumentsService) List(ctx context.Context, agreementID string) ([]domain.Document, error) {
	var out domain.Page[domain.Document]
	path := fmt.Sprintf("%s/%s/documents", agreementsPath, url.PathEscape(agreementID))
	err := s.c.Get(ctx, path, nil, &out)
	return out.Items, err
}

// Download streams the document payload into w, returning the file name
// the server suggested.
func (s *DocumentsService) Download(ctx context.Context, documentID, fallbackName string, w io.Writer) (string, error) {
	path := fmt.Sprintf("%s/documents/%s/download", agreementsPath, url.PathEscape(documentID))
	return s.c.Download(ctx, path, fallbackName, w)
}

func (s *DocumentsService) Delete(ctx context.Context, documentID string) error {
	var out struct {
		Message string `json:"message"`
	}
	path := fmt.Sprintf("%s/documents/%s", agreementsPath, url.PathEscape(documentID))
	return s.c.Delete(ctx, path, nil, &out)
}
