package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/kozaktomas/image-to-pdf/internal/constants"
	"github.com/kozaktomas/image-to-pdf/internal/web/middleware"
	"github.com/kozaktomas/image-to-pdf/internal/workspace"
)

// readUploadedFiles reads multipart files into memory in the order they were sent.
func readUploadedFiles(files []*multipart.FileHeader) ([][]byte, error) {
	out := make([][]byte, 0, len(files))
	for _, fileHeader := range files {
		if err := func() error {
			file, err := fileHeader.Open()
			if err != nil {
				return fmt.Errorf("failed to open file: %s", fileHeader.Filename)
			}
			defer file.Close()

			data, err := io.ReadAll(file)
			if err != nil {
				return errors.New("failed to read file")
			}
			out = append(out, data)
			return nil
		}(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Upload handles multipart image uploads (field "files"). Every file is
// compressed and appended in the order received.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ws := middleware.MustGetWorkspace(r.Context(), w)
	if ws == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MultipartMemory); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no files provided")
		return
	}

	data, err := readUploadedFiles(files)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	res, err := ws.Dispatch(r.Context(), workspace.FilesReceived{Files: data})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	log.Printf("Added %d of %d uploaded files", len(res.IDs), len(files))

	respondJSON(w, http.StatusCreated, map[string]any{
		"added":  len(res.IDs),
		"ids":    res.IDs,
		"images": ws.Images(),
	})
}
