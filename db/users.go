package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/playstats/playstats/models"
	"github.com/playstats/playstats/pkg/apperr"
)

const userColumns = `id, name, email, password_hash, spotify_connected, league_connected,
	league_region, league_summoner_name, league_account_id, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.SpotifyConnected, &user.LeagueConnected,
		&user.LeagueRegion, &user.LeagueSummonerName, &user.LeagueAccountID,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser adds a new user to the database. The caller assigns the ID.
func (db *DB) CreateUser(user *models.User) error {
	now := time.Now().UTC()

	_, err := db.Exec(`
	INSERT INTO users (id, name, email, password_hash, spotify_connected, league_connected, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash,
		user.SpotifyConnected, user.LeagueConnected, now, now)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return apperr.ErrEmailTaken
	}
	if err != nil {
		return err
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetUserByID returns nil, nil when no user matches.
func (db *DB) GetUserByID(id string) (*models.User, error) {
	user, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

// GetUserByEmail returns nil, nil when no user matches.
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	user, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (db *DB) SetSpotifyConnected(userID string, connected bool) error {
	return db.updateUser(`UPDATE users SET spotify_connected = ?, updated_at = ? WHERE id = ?`,
		connected, time.Now().UTC(), userID)
}

// SetLeagueConnection links a summoner to the user.
func (db *DB) SetLeagueConnection(userID, region, summonerName, accountID string) error {
	return db.updateUser(`
	UPDATE users
	SET league_connected = 1, league_region = ?, league_summoner_name = ?, league_account_id = ?, updated_at = ?
	WHERE id = ?`,
		region, summonerName, accountID, time.Now().UTC(), userID)
}

func (db *DB) ClearLeagueConnection(userID string) error {
	return db.updateUser(`
	UPDATE users
	SET league_connected = 0, league_region = NULL, league_summoner_name = NULL, league_account_id = NULL, updated_at = ?
	WHERE id = ?`,
		time.Now().UTC(), userID)
}

func (db *DB) updateUser(query string, args ...any) error {
	res, err := db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}
