// Package handlers provides the game protocol session handler: command
// parsing, auth, matchmaking, and in-game event relay.
package handlers

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jennifer4569/Tetris-Battle/internal/frontend/tcp"
	"github.com/jennifer4569/Tetris-Battle/internal/game/match"
	"github.com/jennifer4569/Tetris-Battle/internal/game/session"
	"github.com/jennifer4569/Tetris-Battle/internal/storage/postgres"
)

// UserStore defines the persistence operations required by GameHandler.
type UserStore interface {
	Create(ctx context.Context, username, credential string) error
	Authenticate(ctx context.Context, username, credential string) error
	Stats(ctx context.Context, username string) (postgres.Stats, error)
	RecordGame(ctx context.Context, username string, won bool, score int) error
	Leaderboard(ctx context.Context, n int) ([]postgres.Standing, error)
}

// GameHandler implements tcp.SessionHandler and processes the game
// protocol for a connected client: one command per line, fields
// space-separated, replies newline-terminated.
//
// Commands that are unrecognized, malformed, or illegal in the session's
// current state are silently ignored. The protocol predates this server
// and the deployed clients expect no error reply for them.
type GameHandler struct {
	users    UserStore
	registry *session.Registry
	queue    *session.Queue
	rng      match.Source
	logger   *zap.Logger
}

// NewGameHandler creates a GameHandler.
//
// Precondition: users, registry, queue, rng, and logger must be non-nil.
// Postcondition: Returns a GameHandler ready to handle sessions.
func NewGameHandler(
	users UserStore,
	registry *session.Registry,
	queue *session.Queue,
	rng match.Source,
	logger *zap.Logger,
) *GameHandler {
	return &GameHandler{
		users:    users,
		registry: registry,
		queue:    queue,
		rng:      rng,
		logger:   logger,
	}
}

// HandleSession implements tcp.SessionHandler. It reads commands until the
// connection closes or the context is cancelled.
//
// Postcondition: Returns nil on clean disconnect, or the terminal read error.
func (h *GameHandler) HandleSession(ctx context.Context, conn *tcp.Conn) error {
	start := time.Now()
	sess := session.New(conn)
	logger := h.logger.With(
		zap.String("session_id", sess.ID()),
		zap.String("remote_addr", conn.RemoteAddr().String()),
	)
	defer h.teardown(sess, logger, start)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := conn.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		h.dispatch(ctx, sess, logger, parts[0], parts[1:])
	}
}

// dispatch routes one parsed command, enforcing the state gating: REGISTER
// and LOGIN only before authentication, PLAY only while authenticated and
// idle, the relay commands only while in a game, LEADERBOARD always.
func (h *GameHandler) dispatch(ctx context.Context, sess *session.Session, logger *zap.Logger, cmd string, args []string) {
	switch cmd {
	case "REGISTER":
		if sess.Username() == "" && len(args) >= 2 {
			h.handleRegister(ctx, sess, logger, args[0], args[1])
		}

	case "LOGIN":
		if sess.Username() == "" && len(args) >= 2 {
			h.handleLogin(ctx, sess, logger, args[0], args[1])
		}

	case "PLAY":
		if sess.Username() != "" && sess.Status() == session.StatusIdle {
			h.handlePlay(ctx, sess, logger)
		}

	case "MOVE":
		if sess.Status() == session.StatusInGame && len(args) >= 1 {
			h.relay(sess, logger, "OPPONENT MOVE "+args[0])
		}

	case "PIECE":
		if sess.Status() == session.StatusInGame && len(args) >= 1 {
			h.relay(sess, logger, "OPPONENT PIECE "+args[0])
		}

	case "BOARD":
		if sess.Status() == session.StatusInGame && len(args) >= 1 {
			h.handleBoard(sess, logger, args[0])
		}

	case "SEND":
		if sess.Status() == session.StatusInGame {
			h.handleSend(sess, logger)
		}

	case "LOSE":
		if sess.Status() == session.StatusInGame {
			h.handleLose(ctx, sess, logger, args)
		}

	case "WIN":
		if sess.Status() == session.StatusInGame {
			h.handleWin(ctx, sess, logger, args)
		}

	case "LEADERBOARD":
		h.handleLeaderboard(ctx, sess, logger, args)

	default:
		logger.Debug("ignoring unknown command", zap.String("command", cmd))
	}
}

// teardown releases everything the session holds when its worker exits:
// the queue slot if it was waiting, the game if it was playing, and the
// registry entry if it was logged in.
//
// A disconnect mid-game counts as an unscored loss and the opponent is
// told the game is over, so it is never stranded waiting for a result
// that cannot arrive.
func (h *GameHandler) teardown(sess *session.Session, logger *zap.Logger, start time.Time) {
	username := sess.Username()

	switch sess.Status() {
	case session.StatusQueued:
		h.queue.Remove(sess)

	case session.StatusInGame:
		opp := sess.FinishGame()
		if opp != nil {
			opp.DropOpponent()
			if err := opp.Send("OPPONENT LOSE"); err != nil {
				logger.Debug("notifying opponent of disconnect", zap.Error(err))
			}
		}
		if username != "" {
			// The worker's context is gone; the record still has to land.
			if err := h.users.RecordGame(context.Background(), username, false, postgres.UnscoredGame); err != nil {
				logger.Error("recording disconnect loss", zap.Error(err))
			}
		}
	}

	if username != "" {
		h.registry.Remove(username)
	}

	logger.Info("session closed",
		zap.String("username", username),
		zap.Duration("session_duration", time.Since(start)),
	)
}
