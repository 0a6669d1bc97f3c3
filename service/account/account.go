package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/playstats/playstats/db"
	"github.com/playstats/playstats/models"
	"github.com/playstats/playstats/pkg/apperr"
	"github.com/playstats/playstats/session"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	ServiceSpotify = "spotify"
	ServiceLeague  = "league"

	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordLength = 72
)

// SummonerVerifier confirms a summoner exists and returns the account id to
// store with the connection.
type SummonerVerifier interface {
	VerifySummoner(ctx context.Context, region, summonerName string) (string, error)
}

type Service struct {
	db       *db.DB
	sessions *session.SessionManager
	league   SummonerVerifier
	logger   *zap.Logger
	cost     int
}

func NewAccountService(database *db.DB, sessions *session.SessionManager, league SummonerVerifier, logger *zap.Logger) *Service {
	return &Service{
		db:       database,
		sessions: sessions,
		league:   league,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateSignUp(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", apperr.ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email address", apperr.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(password); n < minPasswordLength || len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be %d to %d characters", apperr.ErrInvalidInput, minPasswordLength, maxPasswordLength)
	}
	return nil
}

// SignUp creates a user with a bcrypt password hash.
func (s *Service) SignUp(name, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := validateSignUp(name, email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.db.CreateUser(user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// SignIn returns the user when the password matches. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) SignIn(email, password string) (*models.User, error) {
	user, err := s.db.GetUserByEmail(normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("comparing password: %w", err)
	}
	return user, nil
}

// Me returns the user with the given id.
func (s *Service) Me(userID string) (*models.User, error) {
	user, err := s.db.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.ErrUserNotFound
	}
	return user, nil
}

// MarkConnected records a successful OAuth connection for the signed-in
// user. Anonymous requests are a no-op.
func (s *Service) MarkConnected(ctx context.Context, service string) error {
	return s.setConnected(ctx, service, true)
}

// MarkDisconnected clears the connection flag of the signed-in user.
// Anonymous requests are a no-op.
func (s *Service) MarkDisconnected(ctx context.Context, service string) error {
	return s.setConnected(ctx, service, false)
}

func (s *Service) setConnected(ctx context.Context, service string, connected bool) error {
	userID, ok := session.GetUserID(ctx)
	if !ok {
		return nil
	}

	switch service {
	case ServiceSpotify:
		return s.db.SetSpotifyConnected(userID, connected)
	case ServiceLeague:
		if connected {
			return fmt.Errorf("%w: league connections need a summoner", apperr.ErrInvalidInput)
		}
		return s.db.ClearLeagueConnection(userID)
	default:
		return fmt.Errorf("%w: unknown service %q", apperr.ErrInvalidInput, service)
	}
}

// ConnectLeague verifies the summoner and links it to the user.
func (s *Service) ConnectLeague(ctx context.Context, userID, region, summonerName string) (*models.User, error) {
	region = strings.ToLower(strings.TrimSpace(region))
	summonerName = strings.TrimSpace(summonerName)

	accountID, err := s.league.VerifySummoner(ctx, region, summonerName)
	if err != nil {
		return nil, err
	}
	if err := s.db.SetLeagueConnection(userID, region, summonerName, accountID); err != nil {
		return nil, err
	}

	s.logger.Info("league account connected", zap.String("user_id", userID), zap.String("region", region))
	return s.Me(userID)
}

// DisconnectLeague removes the linked summoner.
func (s *Service) DisconnectLeague(userID string) (*models.User, error) {
	if err := s.db.ClearLeagueConnection(userID); err != nil {
		return nil, err
	}
	return s.Me(userID)
}
