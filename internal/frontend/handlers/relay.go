package handlers

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jennifer4569/Tetris-Battle/internal/game/board"
	"github.com/jennifer4569/Tetris-Battle/internal/game/match"
	"github.com/jennifer4569/Tetris-Battle/internal/game/session"
	"github.com/jennifer4569/Tetris-Battle/internal/storage/postgres"
)

// handlePlay either parks the session in the matchmaking queue or pairs it
// with the earliest waiter. On a pairing, both sides get a MATCH line
// carrying the other player's name and stats plus the shared seed their
// piece generators draw from.
//
// The waiter learns about the match from this goroutine, not its own; its
// own worker is still blocked reading its connection.
func (h *GameHandler) handlePlay(ctx context.Context, sess *session.Session, logger *zap.Logger) {
	opp := h.queue.PairOrWait(sess)
	if opp == nil {
		logger.Info("player queued", zap.String("username", sess.Username()))
		return
	}

	seed := match.NewSeed(h.rng)
	sessStats := h.stats(ctx, logger, sess.Username())
	oppStats := h.stats(ctx, logger, opp.Username())

	sess.BeginMatch(opp)
	opp.BeginMatch(sess)

	logger.Info("match started",
		zap.String("username", sess.Username()),
		zap.String("opponent", opp.Username()),
		zap.Int64("seed", seed),
	)

	h.reply(sess, logger, fmt.Sprintf("MATCH %s %d %d %d %d",
		opp.Username(), oppStats.Wins, oppStats.Games, oppStats.HighScore, seed))
	if err := opp.Send(fmt.Sprintf("MATCH %s %d %d %d %d",
		sess.Username(), sessStats.Wins, sessStats.Games, sessStats.HighScore, seed)); err != nil {
		logger.Debug("notifying queued opponent", zap.Error(err))
	}
}

// relay forwards one line to the session's opponent. A session whose
// opponent has already lost or vanished has nowhere to forward to and the
// event is dropped.
func (h *GameHandler) relay(sess *session.Session, logger *zap.Logger, line string) {
	opp := sess.Opponent()
	if opp == nil {
		return
	}
	if err := opp.Send(line); err != nil {
		logger.Debug("relaying to opponent", zap.Error(err))
	}
}

// handleBoard forwards a full board snapshot. The payload is forwarded
// verbatim either way; a snapshot that does not parse as a board is worth
// a log line but the opponent's client is the one that has to render it.
func (h *GameHandler) handleBoard(sess *session.Session, logger *zap.Logger, serialized string) {
	if _, err := board.Parse(serialized); err != nil {
		logger.Debug("relaying unparseable board snapshot",
			zap.String("username", sess.Username()),
			zap.Int("length", len(serialized)),
		)
	}
	h.relay(sess, logger, "OPPONENT BOARD "+serialized)
}

// handleSend synthesizes one garbage line and delivers it to both sides:
// the opponent receives it as an attack, the sender as confirmation of
// what was sent.
func (h *GameHandler) handleSend(sess *session.Session, logger *zap.Logger) {
	line := match.GarbageLine(h.rng)
	h.relay(sess, logger, "OPPONENT SEND "+line)
	h.reply(sess, logger, "SENT "+line)
}

// handleLose ends the game on the loser's side, tells the opponent, and
// records the loss. The opponent keeps its in-game status until it reports
// its own result; only its link back to the loser is severed.
func (h *GameHandler) handleLose(ctx context.Context, sess *session.Session, logger *zap.Logger, args []string) {
	opp := sess.FinishGame()
	if opp != nil {
		opp.DropOpponent()
		if err := opp.Send("OPPONENT LOSE"); err != nil {
			logger.Debug("notifying opponent of loss", zap.Error(err))
		}
	}

	score := parseScore(args)
	h.recordResult(ctx, sess, logger, false, score)
}

// handleWin ends the game on the winner's side and records the win. No
// notification goes out: the clients report WIN only after the opponent's
// loss already reached them, so there is no link left to tear down.
func (h *GameHandler) handleWin(ctx context.Context, sess *session.Session, logger *zap.Logger, args []string) {
	sess.FinishGame()

	score := parseScore(args)
	h.recordResult(ctx, sess, logger, true, score)
}

// recordResult persists one completed game for the session's player.
func (h *GameHandler) recordResult(ctx context.Context, sess *session.Session, logger *zap.Logger, won bool, score int) {
	username := sess.Username()
	if err := h.users.RecordGame(ctx, username, won, score); err != nil {
		logger.Error("recording game result",
			zap.String("username", username),
			zap.Bool("won", won),
			zap.Int("score", score),
			zap.Error(err),
		)
		return
	}
	logger.Info("game result recorded",
		zap.String("username", username),
		zap.Bool("won", won),
		zap.Int("score", score),
	)
}

// parseScore extracts an optional score argument. Absent or malformed
// scores yield an unscored result.
func parseScore(args []string) int {
	if len(args) == 0 {
		return postgres.UnscoredGame
	}
	score, err := strconv.Atoi(args[0])
	if err != nil || score < 0 {
		return postgres.UnscoredGame
	}
	return score
}
