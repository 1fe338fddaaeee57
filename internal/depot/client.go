package depot

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/aquastor/depot/internal/errs"
)

// completeMultipartUpload is the XML body POSTed to a presigned completion
// URL, listing the ETag returned by each part upload in part-number order.
type completeMultipartUpload struct {
	XMLName xml.Name        `xml:"CompleteMultipartUpload"`
	Parts   []completedPart `xml:"Part"`
}

type completedPart struct {
	PartNumber int    `xml:"PartNumber"`
	ETag       string `xml:"ETag"`
}

// UploadWithPresignedURLs performs the client side of the presigned upload
// contract against URLs issued by PresignedUploadURLs. It returns the
// store's final ETag.
//
// The file is read in ceil(fileSize/len(urls)) byte chunks, each chunk is
// PUT to its part URL, and for multipart sessions the collected ETags are
// POSTed as XML to completeURL. Any non-success response is a hard
// failure; no partial-completion recovery is attempted and the caller must
// restart the whole session.
func UploadWithPresignedURLs(ctx context.Context, httpClient *http.Client, path string, fileSize int64, urls []string, completeURL string) (string, error) {
	if len(urls) == 0 {
		return "", errs.New(errs.ErrKindInvalidInput, "no upload URLs")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	f, err := os.Open(path)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "cannot open local file", err)
	}
	defer f.Close()

	// Simple upload: one PUT of the whole file.
	if completeURL == "" {
		return putChunk(ctx, httpClient, urls[0], f, fileSize)
	}

	partSize := ClientPartSize(fileSize, len(urls))
	remaining := fileSize
	etags := make([]completedPart, 0, len(urls))
	for i, u := range urls {
		chunk := min(partSize, remaining)
		etag, err := putChunk(ctx, httpClient, u, io.LimitReader(f, chunk), chunk)
		if err != nil {
			return "", errs.Wrap(errs.ErrKindConnectionFailed,
				fmt.Sprintf("part %d/%d upload failed", i+1, len(urls)), err)
		}
		etags = append(etags, completedPart{PartNumber: i + 1, ETag: etag})
		remaining -= chunk
	}

	body, err := xml.Marshal(completeMultipartUpload{Parts: etags})
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "cannot encode completion body", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, completeURL, strings.NewReader(string(body)))
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "invalid completion URL", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindConnectionFailed, "completion request failed", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp.StatusCode, "multipart completion"); err != nil {
		return "", err
	}
	return trimETag(resp.Header.Get("ETag")), nil
}

// putChunk PUTs size bytes from r to a presigned URL and returns the ETag.
func putChunk(ctx context.Context, httpClient *http.Client, u string, r io.Reader, size int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, r)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "invalid upload URL", err)
	}
	req.ContentLength = size

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindConnectionFailed, "upload request failed", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp.StatusCode, "part upload"); err != nil {
		return "", err
	}
	return trimETag(resp.Header.Get("ETag")), nil
}

// checkStatus maps a non-success HTTP status to an error kind. Signature
// and key failures surface as permission errors and are never retried.
func checkStatus(status int, op string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return errs.New(errs.ErrKindPermissionDenied, fmt.Sprintf("%s rejected with status %d", op, status))
	case status == http.StatusNotFound:
		return errs.New(errs.ErrKindNotFound, fmt.Sprintf("%s target missing (status %d)", op, status))
	default:
		return errs.New(errs.ErrKindConnectionFailed, fmt.Sprintf("%s failed with status %d", op, status))
	}
}

func trimETag(etag string) string {
	return strings.Trim(etag, `"'`)
}
