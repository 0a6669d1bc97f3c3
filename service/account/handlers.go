package account

import (
	"errors"
	"net/http"

	"github.com/playstats/playstats/models"
	"github.com/playstats/playstats/pkg/apperr"
	"github.com/playstats/playstats/pkg/respond"
	"github.com/playstats/playstats/session"
	"go.uber.org/zap"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type leagueRequest struct {
	Region       string `json:"region"`
	SummonerName string `json:"summonerName"`
}

type userResponse struct {
	User *models.User `json:"user"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUserNotFound), errors.Is(err, apperr.ErrUpstreamNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUpstreamRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, apperr.ErrUpstream), errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Service) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("account request failed", zap.Error(err))
	}
	respond.Error(w, status, apperr.ErrorCode(err))
}

func (s *Service) startSession(w http.ResponseWriter, user *models.User) error {
	sess, err := s.sessions.CreateSession(user.ID)
	if err != nil {
		return err
	}
	s.sessions.SetSessionCookie(w, sess)
	return nil
}

// HandleRegister serves POST /api/auth/register.
func (s *Service) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, apperr.ErrorCode(apperr.ErrInvalidInput))
		return
	}

	user, err := s.SignUp(req.Name, req.Email, req.Password)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.startSession(w, user); err != nil {
		s.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, userResponse{User: user})
}

// HandleLogin serves POST /api/auth/login.
func (s *Service) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, apperr.ErrorCode(apperr.ErrInvalidInput))
		return
	}

	user, err := s.SignIn(req.Email, req.Password)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.startSession(w, user); err != nil {
		s.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, userResponse{User: user})
}

// HandleLogout serves POST /api/auth/logout. Logging out without a session
// still succeeds.
func (s *Service) HandleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.EndSession(w, r)
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleMe serves GET /api/me. Requires session.WithAuth.
func (s *Service) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.GetUserID(r.Context())
	user, err := s.Me(userID)
	if err != nil {
		s.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, userResponse{User: user})
}

// HandleConnectLeague serves POST /api/auth/league. Requires session.WithAuth.
func (s *Service) HandleConnectLeague(w http.ResponseWriter, r *http.Request) {
	var req leagueRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, apperr.ErrorCode(apperr.ErrInvalidInput))
		return
	}

	userID, _ := session.GetUserID(r.Context())
	user, err := s.ConnectLeague(r.Context(), userID, req.Region, req.SummonerName)
	if err != nil {
		s.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, userResponse{User: user})
}

// HandleDisconnectLeague serves DELETE /api/auth/league. Requires
// session.WithAuth.
func (s *Service) HandleDisconnectLeague(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.GetUserID(r.Context())
	user, err := s.DisconnectLeague(userID)
	if err != nil {
		s.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, userResponse{User: user})
}
