package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Entry size bounds for usernames and plaintext passwords.
const (
	MinEntrySize = 5
	MaxEntrySize = 20
)

// DefaultLeaderboardSize is the number of entries returned when the client
// does not request a specific count.
const DefaultLeaderboardSize = 10

// ErrUserExists is returned when attempting to register a taken username.
var ErrUserExists = errors.New("user already exists")

// ErrUserNotFound is returned when a user lookup yields no results.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidCredentials is returned when authentication fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidEntry is returned when a username or password fails the
// size or character checks.
var ErrInvalidEntry = errors.New("invalid entry")

// User represents a player row.
type User struct {
	Username     string
	PasswordHash string
	Wins         int
	Games        int
	HighScore    int
	CreatedAt    time.Time
}

// Stats holds a player's persisted game statistics.
type Stats struct {
	Wins      int
	Games     int
	HighScore int
}

// Standing is one leaderboard entry.
type Standing struct {
	Username  string
	HighScore int
}

// String renders the entry in its wire form.
func (s Standing) String() string {
	return fmt.Sprintf("%s,%d", s.Username, s.HighScore)
}

// ValidEntry reports whether s is acceptable as a username or plaintext
// password: MinEntrySize-MaxEntrySize characters, ASCII alphanumeric only.
func ValidEntry(s string) bool {
	if len(s) < MinEntrySize || len(s) > MaxEntrySize {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			continue
		}
		return false
	}
	return true
}

// CanonicalCredential reduces a wire password token to its canonical form.
// Clients normally pre-hash the password to a 32-bit integer and send its
// decimal form; that is used as is. Any other token must pass ValidEntry
// and is hashed server-side with the same function the clients use, so
// plaintext and pre-hashed submissions of one password agree.
//
// Postcondition: Returns the canonical decimal string, or ErrInvalidEntry.
func CanonicalCredential(token string) (string, error) {
	if v, err := strconv.ParseInt(token, 10, 32); err == nil {
		return strconv.FormatInt(v, 10), nil
	}
	if !ValidEntry(token) {
		return "", ErrInvalidEntry
	}
	return strconv.Itoa(int(entryHash(token))), nil
}

// entryHash is the 32-bit polynomial string hash the game clients use
// (h = 31*h + c over the characters, wrapping). Entries are ASCII, so
// bytes and characters coincide.
func entryHash(s string) int32 {
	var h int32
	for i := 0; i < len(s); i++ {
		h = 31*h + int32(s[i])
	}
	return h
}

// HashCredential creates a bcrypt hash of a canonical credential for storage.
//
// Precondition: credential must be non-empty.
// Postcondition: Returns a bcrypt hash string.
func HashCredential(credential string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckCredential compares a canonical credential against a bcrypt hash.
//
// Postcondition: Returns true if the credential matches the hash.
func CheckCredential(credential, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)) == nil
}

// UserRepository provides player persistence: credentials, win/loss
// statistics, and the leaderboard query.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a UserRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create registers a new user with zeroed statistics.
//
// Precondition: credential must be in canonical form (see CanonicalCredential).
// Postcondition: Returns nil on success, ErrInvalidEntry if the username
// fails validation, or ErrUserExists if the username is taken.
func (r *UserRepository) Create(ctx context.Context, username, credential string) error {
	if !ValidEntry(username) {
		return ErrInvalidEntry
	}

	hash, err := HashCredential(credential)
	if err != nil {
		return fmt.Errorf("hashing credential: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO users (username, password_hash)
		 VALUES ($1, $2)`,
		username, hash,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrUserExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// Authenticate verifies a username/credential pair.
//
// Precondition: credential must be in canonical form.
// Postcondition: Returns nil if the credentials are valid, ErrInvalidEntry
// if the username fails validation, ErrUserNotFound if the username does
// not exist, or ErrInvalidCredentials if the credential is wrong.
func (r *UserRepository) Authenticate(ctx context.Context, username, credential string) error {
	if !ValidEntry(username) {
		return ErrInvalidEntry
	}

	var hash string
	err := r.db.QueryRow(ctx,
		`SELECT password_hash FROM users WHERE username = $1`,
		username,
	).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("querying user: %w", err)
	}

	if !CheckCredential(credential, hash) {
		return ErrInvalidCredentials
	}
	return nil
}

// Stats retrieves a player's win/game/highscore statistics.
//
// Postcondition: Returns the Stats or ErrUserNotFound.
func (r *UserRepository) Stats(ctx context.Context, username string) (Stats, error) {
	var st Stats
	err := r.db.QueryRow(ctx,
		`SELECT wins, games, highscore FROM users WHERE username = $1`,
		username,
	).Scan(&st.Wins, &st.Games, &st.HighScore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stats{}, ErrUserNotFound
		}
		return Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	return st, nil
}

// UnscoredGame marks a game completion that carried no score; it counts
// toward the game and win totals but never raises the high score.
const UnscoredGame = -1

// RecordGame persists one completed game: the game count always
// increments, the win count increments when won, and the high score is
// raised if score beats it.
//
// Precondition: score must be >= 0 or UnscoredGame.
// Postcondition: Returns nil on success or ErrUserNotFound.
func (r *UserRepository) RecordGame(ctx context.Context, username string, won bool, score int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users
		 SET games = games + 1,
		     wins = wins + CASE WHEN $2 THEN 1 ELSE 0 END,
		     highscore = GREATEST(highscore, $3)
		 WHERE username = $1`,
		username, won, score,
	)
	if err != nil {
		return fmt.Errorf("recording game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Leaderboard returns the top n players by high score descending, ties
// broken by username ascending. Counts below one fall back to
// DefaultLeaderboardSize.
//
// Postcondition: Returns at most n standings, possibly empty.
func (r *UserRepository) Leaderboard(ctx context.Context, n int) ([]Standing, error) {
	if n < 1 {
		n = DefaultLeaderboardSize
	}

	rows, err := r.db.Query(ctx,
		`SELECT username, highscore FROM users
		 ORDER BY highscore DESC, username ASC
		 LIMIT $1`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	var standings []Standing
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.Username, &s.HighScore); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		standings = append(standings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading leaderboard rows: %w", err)
	}
	return standings, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
