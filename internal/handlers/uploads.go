// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"unseenindonesia/internal/storage"
)

// maxUploadSize is the largest image accepted (10 MB).
const maxUploadSize = 10 << 20

// uploadFolders maps the folder form value to an object key prefix.
var uploadFolders = map[string]string{
	"":         "images",
	"remedies": "remedies",
	"stories":  "stories",
	"avatars":  "avatars",
}

// Upload handles POST /uploads. The file is identified by its content, not
// its name, and stored publicly readable.
func (a *API) Upload(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	if a.Uploads == nil {
		writeError(w, http.StatusServiceUnavailable, "Image storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10 MB")
		return
	}
	defer r.MultipartForm.RemoveAll()

	folder, ok := uploadFolders[r.FormValue("folder")]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown upload folder")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10 MB")
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		slog.Error("read upload failed", "error", err, "user_id", u.ID)
		writeError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	contentType, ext, err := storage.DetectImage(head[:n])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Only JPEG, PNG, WebP and GIF images are allowed")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		slog.Error("rewind upload failed", "error", err, "user_id", u.ID)
		writeError(w, http.StatusInternalServerError, "Failed to process file")
		return
	}

	key := a.Uploads.NewKey(folder, ext)
	if err := a.Uploads.Upload(r.Context(), key, contentType, file, header.Size); err != nil {
		slog.Error("s3 upload failed", "error", err, "key", key, "user_id", u.ID)
		writeError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	slog.Info("image uploaded", "key", key, "size", header.Size, "user_id", u.ID)
	writeJSON(w, http.StatusCreated, map[string]string{
		"url": a.Uploads.FileURL(key),
		"key": key,
	})
}
