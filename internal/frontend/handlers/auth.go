package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jennifer4569/Tetris-Battle/internal/game/session"
	"github.com/jennifer4569/Tetris-Battle/internal/storage/postgres"
)

// Auth failure replies.
const (
	replyInvalid   = "FAILURE INVALID"
	replyTaken     = "FAILURE TAKEN"
	replyIncorrect = "FAILURE INCORRECT"
	replyLogged    = "FAILURE LOGGED"
)

// handleRegister creates the account and logs the session in as it.
//
// Reply is one of: SUCCESS <user> 0 0 0, FAILURE INVALID, FAILURE TAKEN.
func (h *GameHandler) handleRegister(ctx context.Context, sess *session.Session, logger *zap.Logger, username, password string) {
	credential, err := postgres.CanonicalCredential(password)
	if err != nil {
		h.reply(sess, logger, replyInvalid)
		return
	}

	start := time.Now()
	err = h.users.Create(ctx, username, credential)
	elapsed := time.Since(start)

	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrInvalidEntry):
			h.reply(sess, logger, replyInvalid)
		case errors.Is(err, postgres.ErrUserExists):
			h.reply(sess, logger, replyTaken)
		default:
			// The client can only retry; surface it as a taken name.
			logger.Error("registration error", zap.Error(err), zap.Duration("elapsed", elapsed))
			h.reply(sess, logger, replyTaken)
		}
		return
	}

	h.registry.Add(username)
	sess.Authenticate(username)
	logger.Info("player registered",
		zap.String("username", username),
		zap.Duration("elapsed", elapsed),
	)
	h.reply(sess, logger, fmt.Sprintf("SUCCESS %s 0 0 0", username))
}

// handleLogin authenticates the session.
//
// The registry slot is claimed before the credential check so that a
// username with a live session always gets FAILURE LOGGED, correct
// password or not; the claim is released again if the check fails.
//
// Reply is one of: SUCCESS <user> <wins> <games> <highscore>,
// FAILURE INVALID, FAILURE LOGGED, FAILURE INCORRECT.
func (h *GameHandler) handleLogin(ctx context.Context, sess *session.Session, logger *zap.Logger, username, password string) {
	credential, err := postgres.CanonicalCredential(password)
	if err != nil {
		h.reply(sess, logger, replyInvalid)
		return
	}
	if !postgres.ValidEntry(username) {
		h.reply(sess, logger, replyInvalid)
		return
	}

	if !h.registry.Add(username) {
		h.reply(sess, logger, replyLogged)
		return
	}

	start := time.Now()
	err = h.users.Authenticate(ctx, username, credential)
	elapsed := time.Since(start)

	if err != nil {
		h.registry.Remove(username)
		switch {
		case errors.Is(err, postgres.ErrUserNotFound), errors.Is(err, postgres.ErrInvalidCredentials):
			h.reply(sess, logger, replyIncorrect)
		default:
			logger.Error("authentication error", zap.Error(err), zap.Duration("elapsed", elapsed))
			h.reply(sess, logger, replyIncorrect)
		}
		return
	}

	sess.Authenticate(username)
	st := h.stats(ctx, logger, username)
	logger.Info("player logged in",
		zap.String("username", username),
		zap.Duration("elapsed", elapsed),
	)
	h.reply(sess, logger, fmt.Sprintf("SUCCESS %s %d %d %d", username, st.Wins, st.Games, st.HighScore))
}

// handleLeaderboard replies with the top standings on one line, entries
// rendered as username,highscore. A store failure degrades to an empty
// listing rather than an error the clients would not recognize.
func (h *GameHandler) handleLeaderboard(ctx context.Context, sess *session.Session, logger *zap.Logger, args []string) {
	n := 0
	if len(args) >= 1 {
		// A malformed count falls through to the store's default size.
		n, _ = strconv.Atoi(args[0])
	}

	standings, err := h.users.Leaderboard(ctx, n)
	if err != nil {
		logger.Error("leaderboard query", zap.Error(err))
		standings = nil
	}

	entries := make([]string, 0, len(standings)+1)
	entries = append(entries, "LEADERBOARD")
	for _, s := range standings {
		entries = append(entries, s.String())
	}
	h.reply(sess, logger, strings.Join(entries, " "))
}

// stats fetches a player's statistics, degrading to zeroes on store
// failure so the caller always has something to put on the wire.
func (h *GameHandler) stats(ctx context.Context, logger *zap.Logger, username string) postgres.Stats {
	st, err := h.users.Stats(ctx, username)
	if err != nil {
		logger.Error("fetching stats", zap.String("username", username), zap.Error(err))
		return postgres.Stats{}
	}
	return st
}

// reply writes one line to the session's own client.
func (h *GameHandler) reply(sess *session.Session, logger *zap.Logger, line string) {
	if err := sess.Send(line); err != nil {
		logger.Debug("writing reply", zap.Error(err))
	}
}
