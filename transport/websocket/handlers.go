package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
)

func (that *Server) handleJoin(ctx context.Context, sess *session, msg *Message) error {
	room, role, err := that.rooms.JoinRoom(ctx, sess.roomID, sess.userID)
	if err != nil {
		return that.sendFailure(sess, msg.Action, err)
	}

	sess.markSeen(room)

	return sess.send(msg.Action, joinPayload{Room: room, Role: role})
}

func (that *Server) handleMove(ctx context.Context, sess *session, msg *Message) error {
	var payload movePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Cell == nil {
		return sess.sendError(msg.Action, "bad_request", "cell is required")
	}

	room, _, err := that.rooms.MakeMove(ctx, sess.roomID, sess.userID, *payload.Cell, payload.ExpectedVersion)
	if err != nil {
		return that.sendFailure(sess, msg.Action, err)
	}

	return sess.pushRoom(room)
}

// handleLeave leaves the room and ends the stream whatever the outcome.
func (that *Server) handleLeave(ctx context.Context, sess *session, msg *Message) error {
	room, outcome, err := that.rooms.LeaveRoom(ctx, sess.roomID, sess.userID)
	if err != nil {
		return that.sendFailure(sess, msg.Action, err)
	}

	sess.markSeen(room)

	if err = sess.send(msg.Action, leavePayload{Room: room, Outcome: outcome}); err != nil {
		return err
	}

	return sess.close(string(outcome))
}

func (that *Server) sendFailure(sess *session, action string, err error) error {
	code := apperror.Code(err)
	message := err.Error()

	if code == apperror.CodeInternal {
		that.logger.Error("room action failed", "action", action, "roomID", sess.roomID, "error", err)
		message = "internal error"
	}

	return sess.sendError(action, code, message)
}

// watch pushes every newer room version to the client and keeps the connection alive.
func (that *Server) watch(ctx context.Context, sess *session) {
	log := that.logger.With("method", "watch", "roomID", sess.roomID)

	poll := time.NewTicker(that.pollInterval)
	defer poll.Stop()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ping.C:
			if err := sess.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn("failed to ping client", "error", err)
				return
			}

		case <-poll.C:
			if done := that.poll(ctx, sess); done {
				return
			}
		}
	}
}

// poll reports whether the stream is over.
func (that *Server) poll(ctx context.Context, sess *session) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closing {
		return true
	}

	room, err := that.rooms.GetRoom(ctx, sess.roomID)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		if err = sess.send(actionClosed, closedPayload{RoomID: sess.roomID}); err == nil {
			err = sess.close(actionClosed)
		}

		if err != nil {
			that.logger.Warn("failed to announce closed room", "roomID", sess.roomID, "error", err)
		}

		return true

	case err != nil:
		if ctx.Err() != nil {
			return true
		}

		that.logger.Warn("failed to poll room", "roomID", sess.roomID, "error", err)

		return false
	}

	if err = sess.pushRoom(room); err != nil {
		that.logger.Warn("failed to push room", "roomID", sess.roomID, "error", err)
		return true
	}

	return false
}
