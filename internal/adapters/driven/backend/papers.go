package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
)

const pdfMediaType = "application/pdf"

// paperResponse is one entry of the papers list.
type paperResponse struct {
	ID         json.RawMessage `json:"id"`
	Filename   string          `json:"filename"`
	UploadedAt string          `json:"uploaded_at"`
}

// uploadResponse is the upload confirmation.
type uploadResponse struct {
	PaperID  json.RawMessage `json:"paper_id"`
	ID       json.RawMessage `json:"id"`
	Filename string          `json:"filename"`
	Status   string          `json:"status"`
}

// ListPapers returns the documents known to the backend, in backend order.
func (c *Client) ListPapers(ctx context.Context, token string) ([]domain.RemoteDocument, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.cfg.PapersPath, nil, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req, token)

	resp, err := c.do(c.client, req)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer resp.Body.Close()

	var papers []paperResponse
	if err := json.NewDecoder(resp.Body).Decode(&papers); err != nil {
		return nil, fmt.Errorf("list papers: decode response: %w", err)
	}

	docs := make([]domain.RemoteDocument, 0, len(papers))
	for _, p := range papers {
		id := rawID(p.ID)
		if id == "" {
			continue
		}
		docs = append(docs, domain.RemoteDocument{
			ID:         id,
			Filename:   p.Filename,
			UploadedAt: parseUploadedAt(p.UploadedAt),
		})
	}
	return docs, nil
}

// UploadPaper streams a PDF to the backend as multipart form field "file".
func (c *Client) UploadPaper(ctx context.Context, token, filename string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     "file",
			"filename": filepath.Base(filename),
		}))
		h.Set("Content-Type", pdfMediaType)

		part, err := form.CreatePart(h)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, c.cfg.UploadPath, nil, pr)
	if err != nil {
		pr.CloseWithError(err)
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	c.authorize(req, token)

	resp, err := c.do(c.client, req)
	if err != nil {
		pr.CloseWithError(err)
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("upload %s: decode response: %w", filename, err)
	}
	id := rawID(out.PaperID)
	if id == "" {
		id = rawID(out.ID)
	}
	if id == "" {
		return "", fmt.Errorf("upload %s: %w", filename, &driven.BackendError{
			Kind: driven.BackendStatus, StatusCode: resp.StatusCode, Message: "response has no paper id",
		})
	}
	return id, nil
}

// DownloadPaper opens the bytes of a document. The caller closes the reader.
func (c *Client) DownloadPaper(ctx context.Context, token, id string) (io.ReadCloser, string, error) {
	path := strings.ReplaceAll(c.cfg.DownloadPath, "{id}", url.PathEscape(id))
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", pdfMediaType)
	c.authorize(req, token)

	resp, err := c.do(c.stream, req)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", id, err)
	}

	mediaType := pdfMediaType
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil && mt != "application/octet-stream" {
			mediaType = mt
		}
	}
	return resp.Body, mediaType, nil
}

// rawID renders a JSON string or number id.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

var uploadedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

// parseUploadedAt accepts RFC 3339 and naive ISO timestamps, which are taken as UTC.
func parseUploadedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range uploadedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
