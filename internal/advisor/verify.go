package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Document is one uploaded file forwarded to the verification endpoint.
type Document struct {
	Field    string
	Filename string
	Content  []byte
}

// VerificationResult is the backend's answer to a document verification
// request. BlobUploadError is advisory: verification can succeed while the
// archival copy fails.
type VerificationResult struct {
	Verified        bool   `json:"verified"`
	BlobPath        string `json:"blobPath"`
	BlobUploadError string `json:"blobUploadError"`
}

// Verify uploads identity documents plus the learner's form fields as a
// multipart request. Error semantics match RequestAdvice: ErrUnreachable for
// transport failures, *ServerError for non-2xx answers.
func (c *Client) Verify(ctx context.Context, docs []Document, fields map[string]string) (*VerificationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.verifyTimeout)
	defer cancel()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeVerifyBody(mw, docs, fields)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", pr)
	if err != nil {
		return nil, fmt.Errorf("creating verify request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ServerError{Status: resp.StatusCode, Body: string(raw)}
	}

	var result VerificationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding verify response: %w", err)
	}
	return &result, nil
}

func writeVerifyBody(mw *multipart.Writer, docs []Document, fields map[string]string) error {
	for _, d := range docs {
		part, err := mw.CreateFormFile(d.Field, d.Filename)
		if err != nil {
			return err
		}
		if _, err := part.Write(d.Content); err != nil {
			return err
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	return nil
}
