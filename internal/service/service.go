package service

import (
	"bricklink/taxonomy/internal/client"
	"bricklink/taxonomy/internal/domain"
	"bricklink/taxonomy/internal/queue"
	"bricklink/taxonomy/internal/repository"
	"bricklink/taxonomy/internal/selection"
	"bricklink/taxonomy/internal/session"
	"bricklink/taxonomy/internal/state"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already open")
)

type Service struct {
	repository   repository.SelectionRepository
	client       client.BrickLinkClient
	queue        queue.Queue
	trees        state.TreeStore
	sessions     *session.Registry
	historyLimit int
	groupName    string
	minIdleTime  time.Duration
}

func NewService(
	repository repository.SelectionRepository,
	client client.BrickLinkClient,
	queue queue.Queue,
	trees state.TreeStore,
	sessions *session.Registry,
	historyLimit int,
	groupName string,
	minIdleTime int,
) *Service {
	return &Service{
		repository:   repository,
		client:       client,
		queue:        queue,
		trees:        trees,
		sessions:     sessions,
		historyLimit: historyLimit,
		groupName:    groupName,
		minIdleTime:  time.Duration(minIdleTime) * time.Second,
	}
}

// LoadTree returns the cached tree for categoryType, fetching and caching it
// on a miss. Cache failures are logged and bypassed.
func (s *Service) LoadTree(ctx context.Context, categoryType domain.CategoryType) (domain.CategoryTreeMap, error) {
	cached, err := s.trees.GetTree(ctx, categoryType)
	if err != nil {
		log.Warnf("⚠️ Tree cache unavailable for %s: %v", categoryType, err)
	}
	if cached != nil {
		return cached, nil
	}

	tree, err := s.client.GetCategoryTree(ctx, categoryType)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s category tree: %w", categoryType, err)
	}

	if err := s.trees.SetTree(ctx, categoryType, tree); err != nil {
		log.Warnf("⚠️ Failed to cache %s category tree: %v", categoryType, err)
	}
	return tree, nil
}

func (s *Service) OpenSession(ctx context.Context, categoryType domain.CategoryType) (*session.Session, error) {
	return s.openSession(ctx, uuid.New(), categoryType)
}

func (s *Service) openSession(ctx context.Context, id uuid.UUID, categoryType domain.CategoryType) (*session.Session, error) {
	tree, err := s.LoadTree(ctx, categoryType)
	if err != nil {
		return nil, err
	}

	sess := session.Restore(id, categoryType, selection.NewState(tree), s.historyLimit)
	if !s.sessions.Add(sess) {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}

	log.Infof("🆕 Opened selection session %s for %s (%d categories)", sess.ID, categoryType.GetCategoryName(), len(tree))
	return sess, nil
}

// ResumeSession reopens a committed selection on the current tree. Saved
// anchors are checked again in order and the highlight is restored from the
// last id of the saved path. Anchors the tree no longer has are dropped.
func (s *Service) ResumeSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	saved, err := s.repository.GetSelection(ctx, id.String())
	if err != nil {
		return nil, err
	}

	tree, err := s.LoadTree(ctx, saved.CategoryType)
	if err != nil {
		return nil, err
	}

	st := selection.NewState(tree)
	for _, anchor := range saved.SelectedIDs {
		st = st.Check(anchor)
	}
	if n := len(saved.HighlightedPath); n > 0 {
		st = st.Highlight(saved.HighlightedPath[n-1])
	}

	sess := session.Restore(id, saved.CategoryType, st, s.historyLimit)
	if !s.sessions.Add(sess) {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}

	log.Infof("♻️ Resumed selection session %s for %s with %d of %d saved anchors",
		id, saved.CategoryType.GetCategoryName(), len(st.Selected), len(saved.SelectedIDs))
	return sess, nil
}

func (s *Service) Session(id uuid.UUID) (*session.Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

func (s *Service) Dispatch(id uuid.UUID, cmd selection.Command) (*selection.State, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}

	st, changed := sess.Dispatch(cmd)
	if !changed {
		log.Debugf("Command %s(%s) left session %s unchanged", cmd.Type, cmd.ID, id)
	}
	return st, nil
}

func (s *Service) Undo(id uuid.UUID) (*selection.State, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	return sess.Undo()
}

// LocateItem highlights the category an item is filed under.
func (s *Service) LocateItem(ctx context.Context, id uuid.UUID, itemID string) (*selection.State, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}

	hierarchy, err := s.client.GetItemCategory(ctx, sess.CategoryType, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to locate item %s: %w", itemID, err)
	}

	categoryID, ok := hierarchy.DeepestCategoryID()
	if !ok {
		return nil, fmt.Errorf("item %s has no category in its breadcrumb %q", itemID, hierarchy.FullPath)
	}

	st, _ := sess.Dispatch(selection.HighlightNode(categoryID))
	return st, nil
}

// Commit persists the session's current anchors and highlighted path.
func (s *Service) Commit(ctx context.Context, id uuid.UUID) (*domain.Selection, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}

	snap := sess.Snapshot()
	if err := s.repository.SaveSelection(ctx, snap); err != nil {
		return nil, err
	}

	log.Infof("💾 Saved %d selected categories for session %s", len(snap.SelectedIDs), id)
	return snap, nil
}

func (s *Service) CloseSession(id uuid.UUID) error {
	if !s.sessions.Remove(id) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	log.Infof("👋 Closed selection session %s", id)
	return nil
}
