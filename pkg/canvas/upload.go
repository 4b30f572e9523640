package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// uploadFolder is where announcement attachments land in the course file
// store. Overwrite keeps repeated runs from accumulating numbered copies.
const uploadFolder = "/uploaded_announcements"

type uploadTicket struct {
	UploadURL    string            `json:"upload_url"`
	UploadParams map[string]string `json:"upload_params"`
}

type uploadedFile struct {
	URL string `json:"url"`
}

// UploadCourseFile pushes a file into the course file store using the
// three-step Canvas upload protocol and returns the durable download URL:
//
//  1. POST /courses/{id}/files reserves an upload slot and returns the
//     upload URL plus opaque params.
//  2. A multipart POST to that URL transfers the bytes. The params must be
//     sent as form fields before the file part.
//  3. A 302 means the file JSON lives behind the Location header and needs
//     one authenticated GET; otherwise the transfer response body is the
//     file JSON already.
func (c *Client) UploadCourseFile(ctx context.Context, courseID int, filename string, data []byte) (string, error) {
	ticket, err := c.initUpload(ctx, courseID, filename)
	if err != nil {
		return "", err
	}

	info, err := c.transferUpload(ctx, ticket, filename, data)
	if err != nil {
		return "", err
	}

	if info.URL == "" {
		return "", fmt.Errorf("%w: no url field in upload response", ErrUploadFinalize)
	}

	c.logger.Info().Str("filename", filename).Int("course_id", courseID).Msg("file uploaded to course")

	return info.URL, nil
}

func (c *Client) initUpload(ctx context.Context, courseID int, filename string) (uploadTicket, error) {
	query := url.Values{}
	query.Set("name", filename)
	query.Set("parent_folder_path", uploadFolder)
	query.Set("overwrite", "true")

	initURL := c.apiURL(fmt.Sprintf("/courses/%d/files", courseID)) + "?" + query.Encode()
	status, body, _, err := c.do(ctx, http.MethodPost, initURL, nil, "")
	if err != nil {
		return uploadTicket{}, err
	}
	if status != http.StatusOK {
		return uploadTicket{}, statusError(ErrUploadInit, status, body)
	}

	var ticket uploadTicket
	if err := json.Unmarshal(body, &ticket); err != nil {
		return uploadTicket{}, fmt.Errorf("%w: decode upload ticket: %v", ErrUploadInit, err)
	}
	if ticket.UploadURL == "" {
		return uploadTicket{}, fmt.Errorf("%w: no upload_url in response", ErrUploadInit)
	}

	return ticket, nil
}

func (c *Client) transferUpload(ctx context.Context, ticket uploadTicket, filename string, data []byte) (uploadedFile, error) {
	var form bytes.Buffer
	writer := multipart.NewWriter(&form)

	for key, value := range ticket.UploadParams {
		if err := writer.WriteField(key, value); err != nil {
			return uploadedFile{}, fmt.Errorf("%w: write form field: %v", ErrUploadTransfer, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	header.Set("Content-Type", mimetype.Detect(data).String())
	part, err := writer.CreatePart(header)
	if err != nil {
		return uploadedFile{}, fmt.Errorf("%w: create file part: %v", ErrUploadTransfer, err)
	}
	if _, err := part.Write(data); err != nil {
		return uploadedFile{}, fmt.Errorf("%w: write file part: %v", ErrUploadTransfer, err)
	}
	if err := writer.Close(); err != nil {
		return uploadedFile{}, fmt.Errorf("%w: close form: %v", ErrUploadTransfer, err)
	}

	// The transfer must not follow the 302 automatically: the redirect
	// target has to be fetched with the bearer token attached.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ticket.UploadURL, &form)
	if err != nil {
		return uploadedFile{}, fmt.Errorf("%w: build transfer request: %v", ErrUploadTransfer, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	transport := &http.Client{
		Timeout: c.http.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := transport.Do(req)
	if err != nil {
		return uploadedFile{}, fmt.Errorf("%w: %v", ErrUploadTransfer, err)
	}
	defer resp.Body.Close()

	body := new(bytes.Buffer)
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return uploadedFile{}, fmt.Errorf("%w: read transfer response: %v", ErrUploadTransfer, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var info uploadedFile
		if err := json.Unmarshal(body.Bytes(), &info); err != nil {
			return uploadedFile{}, fmt.Errorf("%w: decode file info: %v", ErrUploadFinalize, err)
		}
		return info, nil
	case http.StatusFound:
		return c.finalizeUpload(ctx, resp.Header.Get("Location"))
	default:
		return uploadedFile{}, statusError(ErrUploadTransfer, resp.StatusCode, body.Bytes())
	}
}

func (c *Client) finalizeUpload(ctx context.Context, location string) (uploadedFile, error) {
	if location == "" {
		return uploadedFile{}, fmt.Errorf("%w: redirect without Location header", ErrUploadFinalize)
	}

	var info uploadedFile
	status, body, err := c.getJSON(ctx, location, &info)
	if err != nil {
		return uploadedFile{}, fmt.Errorf("%w: %v", ErrUploadFinalize, err)
	}
	if status != http.StatusOK {
		return uploadedFile{}, statusError(ErrUploadFinalize, status, body)
	}
	return info, nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
