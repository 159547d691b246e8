package git

import (
	"github.com/gomantics/gitdesk/api/web"
	"github.com/gomantics/gitdesk/domains/gitops"
)

type FilesResponse struct {
	Path  string             `json:"path"`
	Files []gitops.FileEntry `json:"files"`
}

// listFiles handles GET /v1/repositories/:id/files?path=
func (h *handler) listFiles(c web.Context) error {
	path := c.QueryParam("path")
	files, err := h.svc.ListFiles(c.Request().Context(), key(c), path)
	if err != nil {
		return fail(c, err)
	}
	return c.OK(FilesResponse{Path: path, Files: files})
}

type ContentResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// readFile handles GET /v1/repositories/:id/files/content?path=
func (h *handler) readFile(c web.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return c.BadRequest("path is required")
	}

	content, err := h.svc.ReadFileContent(c.Request().Context(), key(c), path)
	if err != nil {
		return fail(c, err)
	}
	return c.OK(ContentResponse{Path: path, Content: string(content)})
}

type SaveFileRequest struct {
	FilePath string  `json:"file_path"`
	Content  *string `json:"content"`
}

// saveFile handles PUT /v1/repositories/:id/files/save
func (h *handler) saveFile(c web.Context) error {
	var req SaveFileRequest
	if err := c.Bind(&req); err != nil {
		return c.BadRequest("invalid request body")
	}
	if req.FilePath == "" || req.Content == nil {
		return c.BadRequest("file_path and content are required")
	}

	if err := h.svc.SaveFile(c.Request().Context(), key(c), req.FilePath, []byte(*req.Content)); err != nil {
		return fail(c, err)
	}
	return c.OK(messageResponse{Message: "file saved"})
}

type DirectoryRequest struct {
	Path string `json:"path"`
}

// createDirectory handles POST /v1/repositories/:id/directories
func (h *handler) createDirectory(c web.Context) error {
	var req DirectoryRequest
	if err := c.Bind(&req); err != nil {
		return c.BadRequest("invalid request body")
	}
	if req.Path == "" {
		return c.BadRequest("path is required")
	}

	if err := h.svc.CreateDirectory(c.Request().Context(), key(c), req.Path); err != nil {
		return fail(c, err)
	}
	return c.Created(messageResponse{Message: "directory created"})
}

// deleteFile handles DELETE /v1/repositories/:id/files?path=
func (h *handler) deleteFile(c web.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return c.BadRequest("path is required")
	}

	if err := h.svc.DeleteFile(c.Request().Context(), key(c), path); err != nil {
		return fail(c, err)
	}
	return c.OK(messageResponse{Message: "file deleted"})
}

type RenameRequest struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

// renameFile handles PUT /v1/repositories/:id/files/rename
func (h *handler) renameFile(c web.Context) error {
	var req RenameRequest
	if err := c.Bind(&req); err != nil {
		return c.BadRequest("invalid request body")
	}
	if req.OldPath == "" || req.NewPath == "" {
		return c.BadRequest("old_path and new_path are required")
	}

	if err := h.svc.RenameFile(c.Request().Context(), key(c), req.OldPath, req.NewPath); err != nil {
		return fail(c, err)
	}
	return c.OK(messageResponse{Message: "file renamed"})
}
