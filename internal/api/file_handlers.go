package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/anstrom/filecrate/internal/apierr"
	"github.com/anstrom/filecrate/internal/model"
	"github.com/anstrom/filecrate/internal/queue"
	"github.com/anstrom/filecrate/internal/storage"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := currentUser(r)
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize+1024)
	mr, err := r.MultipartReader()
	if err != nil {
		writeErr(w, apierr.Validation("expecting multipart form"))
		return
	}
	var (
		tmp           *tempUpload
		collection    string
		subCollection string
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeErr(w, apierr.Validation("failed to read upload"))
			return
		}
		switch part.FormName() {
		case "file":
			if tmp != nil {
				part.Close()
				continue
			}
			tmp, err = s.persistTemp(part)
			if err != nil {
				writeErr(w, err)
				return
			}
		case "collection":
			collection = readFormValue(part)
		case "subCollection":
			subCollection = readFormValue(part)
		default:
			part.Close()
		}
	}
	if tmp == nil {
		writeErr(w, apierr.Validation("missing file part"))
		return
	}
	defer os.Remove(tmp.path)
	defer tmp.f.Close()

	if _, err := tmp.f.Seek(0, 0); err != nil {
		writeErr(w, fmt.Errorf("rewind temp file: %w", err))
		return
	}
	put, err := s.store.Put(ctx, owner.ID, tmp.filename, tmp.contentType, tmp.f, tmp.size)
	if err != nil {
		writeErr(w, apierr.Storage(err))
		return
	}
	rec := &model.FileRecord{
		ID:            uuid.NewString(),
		OwnerID:       owner.ID,
		OriginalName:  tmp.filename,
		ContentType:   tmp.contentType,
		Size:          tmp.size,
		FileURL:       put.URL,
		StorageKey:    put.Key,
		Provider:      put.Provider,
		Collection:    tagOrNil(collection),
		SubCollection: tagOrNil(subCollection),
	}
	if err := s.files.Create(ctx, rec); err != nil {
		// Best effort: don't leak the freshly written blob behind a row that
		// never existed.
		if delErr := s.store.Delete(ctx, put.Key, put.Provider); delErr != nil {
			log.Error().Err(delErr).Str("key", put.Key).Msg("orphaned blob after failed insert")
		}
		writeErr(w, err)
		return
	}
	if s.queue != nil {
		payload := queue.ChecksumPayload{FileID: rec.ID, StorageKey: rec.StorageKey, Provider: rec.Provider}
		if err := queue.EnqueueChecksum(ctx, s.queue, payload); err != nil {
			// The checksum is housekeeping; the upload already succeeded.
			log.Warn().Err(err).Str("file_id", rec.ID).Msg("enqueue checksum")
		}
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)
	q := r.URL.Query()
	filter := model.FileFilter{
		Query:         q.Get("q"),
		Collection:    q.Get("collection"),
		SubCollection: q.Get("subCollection"),
	}
	files, err := s.files.List(r.Context(), owner.ID, filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	if files == nil {
		files = []model.FileRecord{}
	}
	respondJSON(w, http.StatusOK, files)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)
	rec, err := s.files.Get(r.Context(), owner.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	s.streamFile(w, r, rec)
}

type updateFileRequest struct {
	Name          *string `json:"name"`
	Collection    *string `json:"collection"`
	SubCollection *string `json:"subCollection"`
}

func (s *Server) handleUpdateFile(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)
	var req updateFileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	rec, err := s.files.Update(r.Context(), owner.ID, chi.URLParam(r, "id"), model.FileUpdate{
		Name:          req.Name,
		Collection:    req.Collection,
		SubCollection: req.SubCollection,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := currentUser(r)
	rec, err := s.files.Get(ctx, owner.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	// Blob first, row second: if the blob delete fails the record survives and
	// a re-delete succeeds, rather than silently leaking storage.
	if err := s.store.Delete(ctx, rec.StorageKey, rec.Provider); err != nil {
		writeErr(w, apierr.Storage(err))
		return
	}
	if err := s.files.Delete(ctx, owner.ID, rec.ID); err != nil {
		writeErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
}

// streamFile writes the blob to the response with download headers. The read
// is bound to the request context, so a client disconnect releases the
// backend stream mid-copy.
func (s *Server) streamFile(w http.ResponseWriter, r *http.Request, rec *model.FileRecord) {
	obj, err := s.store.Get(r.Context(), rec.StorageKey, rec.Provider)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Dangling record: the row survived a partial delete.
			writeErr(w, apierr.NotFound("file not found"))
			return
		}
		writeErr(w, apierr.Storage(err))
		return
	}
	defer obj.Body.Close()
	contentType := obj.ContentType
	if contentType == "" {
		contentType = rec.ContentType
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	size := obj.Size
	if size <= 0 {
		size = rec.Size
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+sanitizeHeaderName(rec.OriginalName)+`"`)
	if _, err := io.Copy(w, obj.Body); err != nil {
		log.Debug().Err(err).Str("file_id", rec.ID).Msg("download aborted")
	}
}

type tempUpload struct {
	f           *os.File
	path        string
	size        int64
	contentType string
	filename    string
}

// persistTemp streams one multipart file part to a temp file, enforcing the
// configured size limit and sniffing the content type from the first 512
// bytes.
func (s *Server) persistTemp(part *multipart.Part) (*tempUpload, error) {
	defer part.Close()
	tmpFile, err := os.CreateTemp("", "filecrate-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	discard := func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}
	var sniff []byte
	buf := make([]byte, 32*1024)
	var written int64
	for {
		n, readErr := part.Read(buf)
		if n > 0 {
			written += int64(n)
			if written > s.cfg.MaxFileSize {
				discard()
				return nil, apierr.Validation("file exceeds limit (%d bytes)", s.cfg.MaxFileSize)
			}
			if len(sniff) < 512 {
				chunk := n
				if remain := 512 - len(sniff); chunk > remain {
					chunk = remain
				}
				sniff = append(sniff, buf[:chunk]...)
			}
			if _, err := tmpFile.Write(buf[:n]); err != nil {
				discard()
				return nil, fmt.Errorf("write temp file: %w", err)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			discard()
			return nil, apierr.Validation("failed to read file")
		}
	}
	if written == 0 {
		discard()
		return nil, apierr.Validation("empty file")
	}
	contentType := part.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(sniff)
	}
	filename := part.FileName()
	if filename == "" {
		filename = "upload"
	}
	return &tempUpload{
		f:           tmpFile,
		path:        tmpFile.Name(),
		size:        written,
		contentType: contentType,
		filename:    filename,
	}, nil
}

// readFormValue reads a small non-file form field.
func readFormValue(part *multipart.Part) string {
	defer part.Close()
	data, err := io.ReadAll(io.LimitReader(part, 1024))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func tagOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func sanitizeHeaderName(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 32 {
			return '_'
		}
		return r
	}, name)
}
