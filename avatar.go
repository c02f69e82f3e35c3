package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aitomarabdeljalil/42-Matcha/logging"
	"github.com/aitomarabdeljalil/42-Matcha/metrics"
)

const avatarURLPrefix = "/avatars/"

// avatarExtensions maps the sniffed content types we accept to a file
// extension.
var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

type avatarStore interface {
	SetAvatar(ctx context.Context, id int, url string) (string, error)
	ClearAvatar(ctx context.Context, id int) (string, error)
	AvatarInfo(ctx context.Context, id int) (string, *time.Time, error)
}

// POST /api/profile/avatar  (multipart form, field name: "avatar")
func uploadAvatarHandler(store avatarStore, dir string, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, _ := userIDFromContext(r.Context())
		log := logging.Ctx(r.Context())

		// Leave room for the multipart envelope.
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64<<10)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			metrics.AvatarUploads.WithLabelValues("rejected").Inc()
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "file_too_large")
				return
			}
			writeError(w, http.StatusBadRequest, "missing_file")
			return
		}
		f, header, err := r.FormFile("avatar")
		if err != nil {
			metrics.AvatarUploads.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusBadRequest, "missing_file")
			return
		}
		defer f.Close()
		if header.Size > maxBytes {
			metrics.AvatarUploads.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusRequestEntityTooLarge, "file_too_large")
			return
		}

		// Sniff MIME from the first bytes
		head := make([]byte, 512)
		n, _ := io.ReadFull(f, head)
		ext, ok := avatarExtensions[http.DetectContentType(head[:n])]
		if !ok {
			metrics.AvatarUploads.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusBadRequest, "invalid_file_type")
			return
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			metrics.AvatarUploads.WithLabelValues("error").Inc()
			writeError(w, http.StatusInternalServerError, "save_failed")
			return
		}

		filename := uuid.NewString() + ext
		if err := saveAvatarFile(dir, filename, f); err != nil {
			metrics.AvatarUploads.WithLabelValues("error").Inc()
			log.Error().Err(err).Int("user_id", me).Msg("save avatar")
			writeError(w, http.StatusInternalServerError, "save_failed")
			return
		}

		url := avatarURLPrefix + filename
		old, err := store.SetAvatar(r.Context(), me, url)
		if err != nil {
			_ = os.Remove(filepath.Join(dir, filename))
			metrics.AvatarUploads.WithLabelValues("error").Inc()
			if errors.Is(err, errUserNotFound) {
				writeError(w, http.StatusNotFound, "not_found")
				return
			}
			log.Error().Err(err).Int("user_id", me).Msg("store avatar url")
			writeError(w, http.StatusInternalServerError, "db_update_failed")
			return
		}
		removeAvatarFile(r.Context(), dir, old)

		metrics.AvatarUploads.WithLabelValues("ok").Inc()
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"avatar_url": url,
			"user":       map[string]any{"id": me, "avatar_url": url},
		})
	}
}

// GET /api/profile/avatar
func getAvatarHandler(store avatarStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, _ := userIDFromContext(r.Context())
		url, updated, err := store.AvatarInfo(r.Context(), me)
		if errors.Is(err, errUserNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Int("user_id", me).Msg("load avatar")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		var avatarURL any
		if url != "" {
			avatarURL = url
		}
		writeJSON(w, http.StatusOK, map[string]any{"avatar_url": avatarURL, "avatar_updated_at": updated})
	}
}

// DELETE /api/profile/avatar
func deleteAvatarHandler(store avatarStore, dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, _ := userIDFromContext(r.Context())
		old, err := store.ClearAvatar(r.Context(), me)
		if errors.Is(err, errUserNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Int("user_id", me).Msg("clear avatar")
			writeError(w, http.StatusInternalServerError, "remove_failed")
			return
		}
		removeAvatarFile(r.Context(), dir, old)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Avatar removed",
			"user":    map[string]any{"id": me, "avatar_url": nil},
		})
	}
}

// GET /avatars/{file}
func serveAvatarHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "file")
		if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			http.NotFound(w, r)
			return
		}
		path := filepath.Join(dir, name)
		if st, err := os.Stat(path); err != nil || st.IsDir() {
			http.NotFound(w, r)
			return
		}
		// Filenames are never reused, so the file can be cached for long.
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.ServeFile(w, r, path)
	}
}

// saveAvatarFile writes src to dir/filename through a temp file and rename.
func saveAvatarFile(dir, filename string, src io.Reader) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create avatar dir: %w", err)
	}
	dst := filepath.Join(dir, filename)
	tmp := dst + ".tmp"

	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// removeAvatarFile deletes the file behind a stored avatar url. Only the
// basename is used so a stored value cannot escape dir.
func removeAvatarFile(ctx context.Context, dir, url string) {
	if !strings.HasPrefix(url, avatarURLPrefix) {
		return
	}
	path := filepath.Join(dir, filepath.Base(url))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("remove old avatar")
	}
}
