package git

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gomantics/gitdesk/api/web"
	"github.com/gomantics/gitdesk/domains/gitops"
	"go.uber.org/zap"
)

type uploadError struct {
	status  int
	message string
}

func (e *uploadError) Error() string { return e.message }

// upload handles POST /v1/repositories/:id/files/upload with a multipart
// "file" and an optional "path" target directory.
func (h *handler) upload(c web.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return c.BadRequest("file is required")
	}

	file, err := h.read(header)
	if err != nil {
		return h.rejectUpload(c, err)
	}

	if err := h.svc.UploadFile(c.Request().Context(), key(c), c.FormValue("path"), file); err != nil {
		return fail(c, err)
	}
	return c.OK(messageResponse{Message: "file uploaded"})
}

// uploadMultiple handles POST /v1/repositories/:id/files/upload-multiple
// with repeated multipart "files".
func (h *handler) uploadMultiple(c web.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.BadRequest("invalid multipart form")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return c.BadRequest("files are required")
	}
	if len(headers) > h.limits.MaxFiles {
		return c.BadRequest(fmt.Sprintf("at most %d files per upload", h.limits.MaxFiles))
	}

	files := make([]gitops.Upload, 0, len(headers))
	for _, header := range headers {
		file, err := h.read(header)
		if err != nil {
			return h.rejectUpload(c, err)
		}
		files = append(files, file)
	}

	dir := ""
	if values := form.Value["path"]; len(values) > 0 {
		dir = values[0]
	}
	if err := h.svc.UploadFiles(c.Request().Context(), key(c), dir, files); err != nil {
		return fail(c, err)
	}
	return c.OK(messageResponse{Message: fmt.Sprintf("uploaded %d files", len(files))})
}

func (h *handler) read(header *multipart.FileHeader) (gitops.Upload, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(h.limits.AllowedExtensions, ext) {
		return gitops.Upload{}, &uploadError{status: http.StatusBadRequest, message: fmt.Sprintf("file type not allowed: %q", header.Filename)}
	}
	if header.Size > h.limits.MaxFileBytes {
		return gitops.Upload{}, &uploadError{status: http.StatusRequestEntityTooLarge, message: fmt.Sprintf("%s exceeds %d bytes", header.Filename, h.limits.MaxFileBytes)}
	}

	f, err := header.Open()
	if err != nil {
		return gitops.Upload{}, err
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, h.limits.MaxFileBytes+1))
	if err != nil {
		return gitops.Upload{}, err
	}
	if int64(len(content)) > h.limits.MaxFileBytes {
		return gitops.Upload{}, &uploadError{status: http.StatusRequestEntityTooLarge, message: fmt.Sprintf("%s exceeds %d bytes", header.Filename, h.limits.MaxFileBytes)}
	}

	return gitops.Upload{OriginalName: header.Filename, Content: content}, nil
}

func (h *handler) rejectUpload(c web.Context, err error) error {
	var ue *uploadError
	if errors.As(err, &ue) {
		if ue.status == http.StatusRequestEntityTooLarge {
			return c.RequestTooLarge(ue.message)
		}
		return c.BadRequest(ue.message)
	}
	c.L.Error("failed to read upload", zap.Error(err))
	return c.InternalError("failed to read upload")
}
