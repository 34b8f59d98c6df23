package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/contentapp/e2e/client/request"
	"github.com/dustin/go-humanize"
)

// UploadOptions contains the options of a file upload.
type UploadOptions struct {
	ParentID     string
	Name         string
	NodeType     string
	RelativePath string
	AutoRename   bool
	Overwrite    bool
	Contents     io.Reader
	// Size is the length of Contents, when known. It is only used in logs.
	Size int64
}

// Upload creates a file with the given contents, sent as a multipart form.
// With AutoRename, the repository picks a free name when the name is taken.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (*Node, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("upload: missing file name")
	}
	if opts.NodeType == "" {
		opts.NodeType = TypeContent
	}
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(mw, opts))
	}()

	log.WithField("name", opts.Name).
		Infof("uploading %s", humanize.Bytes(uint64(max(opts.Size, 0))))
	res, err := c.Req(ctx, &request.Options{
		Method: http.MethodPost,
		Path:   nodePath(opts.ParentID) + "/children",
		Headers: request.Headers{
			"Accept":       "application/json",
			"Content-Type": mw.FormDataContentType(),
		},
		Body: pr,
	})
	// Unblock the writer goroutine if the request failed early.
	_ = pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return nil, err
	}
	var n Node
	if err = readEntry(res.Body, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func writeUploadForm(mw *multipart.Writer, opts UploadOptions) error {
	fields := [][2]string{
		{"name", opts.Name},
		{"nodeType", opts.NodeType},
		{"autoRename", strconv.FormatBool(opts.AutoRename)},
		{"overwrite", strconv.FormatBool(opts.Overwrite)},
	}
	if opts.RelativePath != "" {
		fields = append(fields, [2]string{"relativePath", opts.RelativePath})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("filedata", opts.Name)
	if err != nil {
		return err
	}
	if opts.Contents != nil {
		if _, err = io.Copy(part, opts.Contents); err != nil {
			return err
		}
	}
	return mw.Close()
}
