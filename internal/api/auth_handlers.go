package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/anstrom/filecrate/internal/apierr"
	"github.com/anstrom/filecrate/internal/auth"
	"github.com/anstrom/filecrate/internal/model"
)

type registerRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	InviteCode string `json:"inviteCode"`
}

type credentialsResponse struct {
	User          sanitizedUser `json:"user"`
	Token         string        `json:"token"`
	IsInviteAdmin bool          `json:"isInviteAdmin"`
}

type sanitizedUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func sanitize(u *model.User) sanitizedUser {
	return sanitizedUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeErr(w, apierr.Validation("missing required fields"))
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeErr(w, apierr.Validation("password must be at least %d characters", auth.MinPasswordLength))
		return
	}

	ctx := r.Context()
	req.InviteCode = strings.TrimSpace(req.InviteCode)
	var invite *model.InviteCode
	if req.InviteCode != "" {
		found, err := s.invites.GetByCode(ctx, req.InviteCode)
		if err != nil {
			if errors.Is(err, apierr.ErrNotFound) {
				writeErr(w, apierr.Forbidden("invalid invite code"))
				return
			}
			writeErr(w, err)
			return
		}
		if found.UsedBy != nil {
			writeErr(w, apierr.Forbidden("invite already used"))
			return
		}
		invite = found
	} else if s.cfg.RequireInvite {
		writeErr(w, apierr.Forbidden("invite code required"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	user := &model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		writeErr(w, err)
		return
	}
	if invite != nil {
		if err := s.invites.MarkUsed(ctx, invite.ID, user.ID); err != nil {
			// The account exists at this point; losing the invite flag is the
			// lesser failure, so log it rather than failing registration.
			log.Warn().Err(err).Str("invite", invite.ID).Msg("mark invite used")
		}
	}
	token, err := s.tokens.Issue(user.ID, time.Now())
	if err != nil {
		writeErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, credentialsResponse{
		User:          sanitize(user),
		Token:         token,
		IsInviteAdmin: s.cfg.IsInviteAdmin(user.Email),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeErr(w, apierr.Validation("email and password required"))
		return
	}
	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		// A missing account and a wrong password are indistinguishable here.
		writeErr(w, apierr.Unauthorized("invalid credentials"))
		return
	}
	token, err := s.tokens.Issue(user.ID, time.Now())
	if err != nil {
		writeErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, credentialsResponse{
		User:          sanitize(user),
		Token:         token,
		IsInviteAdmin: s.cfg.IsInviteAdmin(user.Email),
	})
}

type createInvitesRequest struct {
	Count int `json:"count"`
}

const maxInviteBatch = 20

func (s *Server) handleCreateInvites(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if !s.cfg.IsInviteAdmin(user.Email) {
		writeErr(w, apierr.Forbidden("not authorized"))
		return
	}
	var req createInvitesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	count := req.Count
	if count < 1 {
		count = 1
	}
	if count > maxInviteBatch {
		count = maxInviteBatch
	}
	invites := make([]model.InviteCode, count)
	for i := range invites {
		invites[i] = model.InviteCode{
			ID:        uuid.NewString(),
			Code:      newInviteCode(),
			CreatedBy: user.ID,
		}
	}
	if err := s.invites.CreateBatch(r.Context(), invites); err != nil {
		writeErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, invites)
}

func (s *Server) handleListInvites(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if !s.cfg.IsInviteAdmin(user.Email) {
		writeErr(w, apierr.Forbidden("not authorized"))
		return
	}
	invites, err := s.invites.List(r.Context(), 100)
	if err != nil {
		writeErr(w, err)
		return
	}
	if invites == nil {
		invites = []model.InviteCode{}
	}
	respondJSON(w, http.StatusOK, invites)
}

// newInviteCode derives a short human-typeable code from a UUID.
func newInviteCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:10])
}
