package service

import (
	"bricklink/taxonomy/internal/domain"
	"bricklink/taxonomy/internal/domain/task"
	"bricklink/taxonomy/internal/selection"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// handleSessionCommand runs one session command and publishes the outcome on
// the session's event stream. Only a failed publish is returned.
func (s *Service) handleSessionCommand(ctx context.Context, cmd *task.SessionCommandTask) error {
	snap, err := s.runSessionCommand(ctx, cmd)

	event := map[string]interface{}{
		"action": string(cmd.Action),
		"status": "ok",
	}
	if err != nil {
		log.Warnf("⚠️ Session command %s for %s failed: %v", cmd.Action, cmd.SessionID, err)
		event["status"] = "error"
		event["error"] = err.Error()
	}
	if snap != nil {
		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("failed to encode selection for session %s: %w", cmd.SessionID, err)
		}
		event["selection"] = string(data)
	}

	if _, err := s.queue.PublishEvent(ctx, cmd.SessionID, event); err != nil {
		return err
	}
	return nil
}

func (s *Service) runSessionCommand(ctx context.Context, cmd *task.SessionCommandTask) (*domain.Selection, error) {
	id, err := uuid.Parse(cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", cmd.SessionID, err)
	}

	switch cmd.Action {
	case task.SessionOpen:
		categoryType, err := domain.ParseCategoryType(string(cmd.CategoryType))
		if err != nil {
			return nil, err
		}
		sess, err := s.openSession(ctx, id, categoryType)
		if err != nil {
			return nil, err
		}
		return sess.Snapshot(), nil

	case task.SessionResume:
		sess, err := s.ResumeSession(ctx, id)
		if err != nil {
			return nil, err
		}
		return sess.Snapshot(), nil

	case task.SessionCheck:
		return s.dispatchSnapshot(id, selection.CheckNode(cmd.NodeID))

	case task.SessionUncheck:
		return s.dispatchSnapshot(id, selection.UncheckNode(cmd.NodeID))

	case task.SessionHighlight:
		return s.dispatchSnapshot(id, selection.HighlightNode(cmd.NodeID))

	case task.SessionUndo:
		sess, err := s.Session(id)
		if err != nil {
			return nil, err
		}
		// The unchanged selection is still reported when there is nothing to undo.
		_, err = sess.Undo()
		return sess.Snapshot(), err

	case task.SessionLocate:
		if _, err := s.LocateItem(ctx, id, cmd.ItemID); err != nil {
			return nil, err
		}
		return s.snapshot(id)

	case task.SessionCommit:
		return s.Commit(ctx, id)

	case task.SessionClose:
		return nil, s.CloseSession(id)

	default:
		return nil, fmt.Errorf("unknown session action %q", cmd.Action)
	}
}

func (s *Service) dispatchSnapshot(id uuid.UUID, cmd selection.Command) (*domain.Selection, error) {
	if _, err := s.Dispatch(id, cmd); err != nil {
		return nil, err
	}
	return s.snapshot(id)
}

func (s *Service) snapshot(id uuid.UUID) (*domain.Selection, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}
