package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anstrom/filecrate/internal/apierr"
	"github.com/anstrom/filecrate/internal/model"
	"github.com/anstrom/filecrate/internal/share"
)

type createShareRequest struct {
	Type           string  `json:"type"`
	FileID         string  `json:"fileId"`
	Collection     string  `json:"collection"`
	SubCollection  *string `json:"subCollection"`
	ExpiresInHours int     `json:"expiresInHours"`
}

type createShareResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	URL       string    `json:"url"`
}

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)
	var req createShareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	var (
		grant *model.ShareGrant
		err   error
	)
	switch model.ShareKind(req.Type) {
	case model.ShareFile:
		grant, err = s.shares.CreateFileShare(r.Context(), owner.ID, req.FileID, req.ExpiresInHours)
	case model.ShareCollection:
		grant, err = s.shares.CreateCollectionShare(r.Context(), owner.ID, req.Collection, req.SubCollection, req.ExpiresInHours)
	default:
		err = apierr.Validation("invalid share type")
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, createShareResponse{
		Token:     grant.Token,
		ExpiresAt: grant.ExpiresAt,
		URL:       s.shares.URL(grant),
	})
}

func (s *Server) handleListShares(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)
	grants, err := s.shares.List(r.Context(), owner.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if grants == nil {
		grants = []model.ShareGrant{}
	}
	respondJSON(w, http.StatusOK, grants)
}

func (s *Server) handleDeleteShare(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)
	if err := s.shares.Terminate(r.Context(), owner.ID, chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "share link deleted"})
}

type shareDetailsResponse struct {
	Type          model.ShareKind    `json:"type"`
	Collection    *string            `json:"collection"`
	SubCollection *string            `json:"subCollection"`
	ExpiresAt     time.Time          `json:"expiresAt"`
	Files         []share.SharedFile `json:"files"`
}

func (s *Server) handleShareDetails(w http.ResponseWriter, r *http.Request) {
	grant, err := s.shares.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeErr(w, err)
		return
	}
	files, err := s.shares.ListFilesForGrant(r.Context(), grant)
	if err != nil {
		writeErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, shareDetailsResponse{
		Type:          grant.Kind,
		Collection:    grant.Collection,
		SubCollection: grant.SubCollection,
		ExpiresAt:     grant.ExpiresAt,
		Files:         files,
	})
}

func (s *Server) handleShareDownload(w http.ResponseWriter, r *http.Request) {
	grant, err := s.shares.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeErr(w, err)
		return
	}
	rec, err := s.shares.FileForDownload(r.Context(), grant, chi.URLParam(r, "fileID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	s.streamFile(w, r, rec)
}
