package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/pagination"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// markConcurrency bounds the fan-out of a batch mark-read.
const markConcurrency = 8

// Service defines notification list/read operations.
type Service interface {
	List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error)
	// Feed opens a realtime feed for the actor. The caller owns Close.
	Feed(ctx context.Context, actor auth.Actor, onChange func(FeedSnapshot)) (*Feed, error)
	MarkRead(ctx context.Context, actor auth.Actor, notificationID string) error
	MarkManyRead(ctx context.Context, actor auth.Actor, ids []string) (BatchResult, error)
	MarkAllRead(ctx context.Context, actor auth.Actor) (int64, error)
	Send(ctx context.Context, actor auth.Actor, input SendInput) (int, error)
	Delete(ctx context.Context, actor auth.Actor, notificationID string) error
	// Deliver is the system path used by workers; it performs no permission check.
	Deliver(ctx context.Context, audience Audience, draft Draft) (int, error)
	PurgeRead(ctx context.Context, cutoff time.Time) (int64, error)
}

type ServiceParams struct {
	Backend    *docstore.Backend
	Repository Repository
	Hub        *Hub
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	repo  Repository
	users docstore.Collection[models.User]
	roles docstore.Collection[models.Role]
	hub   *Hub
	logg  *logger.Logger
	now   func() time.Time
}

// NewService wires notifications dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "document store required")
	}
	if params.Hub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification hub required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	repo := params.Repository
	if repo == nil {
		repo = NewRepository(params.Backend)
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:  repo,
		users: docstore.For[models.User](params.Backend),
		roles: docstore.For[models.Role](params.Backend),
		hub:   params.Hub,
		logg:  params.Logger,
		now:   now,
	}, nil
}

func requireUser(actor auth.Actor) error {
	if actor.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListForUser(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	unread := 0
	matched := make([]models.Notification, 0, len(rows))
	for _, n := range rows {
		if !n.Read {
			unread++
		}
		if params.UnreadOnly && n.Read {
			continue
		}
		matched = append(matched, n)
	}

	page, err := pagination.Paginate(matched, pagination.Params{Limit: params.Limit, Cursor: params.Cursor}, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return &ListResult{
		Items:       fromModels(page.Items),
		Cursor:      page.Cursor,
		Total:       page.Total,
		UnreadCount: unread,
	}, nil
}

func (s *service) Feed(ctx context.Context, actor auth.Actor, onChange func(FeedSnapshot)) (*Feed, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	feed, err := NewFeed(FeedOptions{
		Channel:  s.hub,
		Marker:   storeMarker{s},
		Logger:   s.logg,
		OnChange: onChange,
		Now:      s.now,
	})
	if err != nil {
		return nil, err
	}
	if err := feed.SetUser(ctx, actor.UserID); err != nil {
		return nil, err
	}
	return feed, nil
}

func (s *service) MarkRead(ctx context.Context, actor auth.Actor, notificationID string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	return s.markRead(ctx, actor.UserID, notificationID)
}

func (s *service) markRead(ctx context.Context, userID, notificationID string) error {
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	result, err := s.repo.MarkRead(ctx, userID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	if result.Updated {
		s.hub.Notify(ctx, userID)
	}
	return nil
}

func (s *service) MarkManyRead(ctx context.Context, actor auth.Actor, ids []string) (BatchResult, error) {
	if err := requireUser(actor); err != nil {
		return BatchResult{}, err
	}
	if len(compactIDs(ids)) == 0 {
		return BatchResult{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one notification id required")
	}
	result := s.markManyRead(ctx, actor.UserID, ids)
	return result, result.Err()
}

// markManyRead writes every id independently and waits for all of them to
// settle. Subscribers are signalled once for the whole batch.
func (s *service) markManyRead(ctx context.Context, userID string, ids []string) BatchResult {
	ids = compactIDs(ids)
	errs := make([]error, len(ids))
	now := s.now().UTC()

	var g errgroup.Group
	g.SetLimit(markConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			res, err := s.repo.MarkRead(ctx, userID, id, now)
			switch {
			case err != nil:
				errs[i] = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
			case !res.Found:
				errs[i] = pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
			}
			return nil
		})
	}
	_ = g.Wait()

	var result BatchResult
	for i, id := range ids {
		if errs[i] != nil {
			result.fail(id, errs[i])
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	if len(result.Succeeded) > 0 {
		s.hub.Notify(ctx, userID)
	}
	return result
}

func (s *service) MarkAllRead(ctx context.Context, actor auth.Actor) (int64, error) {
	if err := requireUser(actor); err != nil {
		return 0, err
	}
	count, err := s.repo.MarkAllRead(ctx, actor.UserID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	if count > 0 {
		s.hub.Notify(ctx, actor.UserID)
	}
	return count, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, notificationID string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	found, err := s.repo.Delete(ctx, actor.UserID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notification")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	s.hub.Notify(ctx, actor.UserID)
	return nil
}

func (s *service) Send(ctx context.Context, actor auth.Actor, input SendInput) (int, error) {
	if err := actor.Require(enums.PermissionNotificationsSend); err != nil {
		return 0, err
	}
	draft := Draft{
		Type:     enums.NotificationTypeSystemAnnouncement,
		Title:    strings.TrimSpace(input.Title),
		Message:  strings.TrimSpace(input.Message),
		Priority: enums.NotificationPriorityNormal,
		Link:     strings.TrimSpace(input.Link),
	}
	if input.Priority != "" {
		priority, err := enums.ParseNotificationPriority(input.Priority)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority")
		}
		draft.Priority = priority
	}

	audience := Audience{}
	if id := strings.TrimSpace(input.UserID); id != "" {
		if _, err := s.users.Get(ctx, id); err != nil {
			if pkgerrors.IsCode(docstore.Classify(err, "user"), pkgerrors.CodeNotFound) {
				return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient does not exist")
			}
			return 0, docstore.Classify(err, "user")
		}
		audience.UserIDs = []string{id}
	}
	return s.Deliver(ctx, audience, draft)
}

func (s *service) Deliver(ctx context.Context, audience Audience, draft Draft) (int, error) {
	if err := validateDraft(&draft); err != nil {
		return 0, err
	}
	recipients, err := s.recipients(ctx, audience)
	if err != nil {
		return 0, err
	}

	var link *string
	if draft.Link != "" {
		link = &draft.Link
	}
	var (
		sent     []string
		combined error
	)
	for _, userID := range recipients {
		n := &models.Notification{
			UserID:   userID,
			Type:     draft.Type,
			Title:    draft.Title,
			Message:  draft.Message,
			Priority: draft.Priority,
			Link:     link,
		}
		if _, err := s.repo.Create(ctx, n); err != nil {
			combined = multierr.Append(combined, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification for "+userID))
			continue
		}
		sent = append(sent, userID)
	}
	if len(sent) > 0 {
		s.hub.Notify(ctx, sent...)
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"notification_type": string(draft.Type),
		"recipients":        len(recipients),
		"sent":              len(sent),
	})
	if combined != nil {
		s.logg.Error(logCtx, "notification delivery incomplete", combined)
		return len(sent), combined
	}
	s.logg.Info(logCtx, "notifications delivered")
	return len(sent), nil
}

func validateDraft(draft *Draft) error {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Message = strings.TrimSpace(draft.Message)
	if draft.Title == "" || draft.Message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title and message required")
	}
	if draft.Type == "" {
		draft.Type = enums.NotificationTypeSystemAnnouncement
	}
	if !draft.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}
	if draft.Priority == "" {
		draft.Priority = enums.NotificationPriorityNormal
	}
	if !draft.Priority.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
	}
	return nil
}

func (s *service) recipients(ctx context.Context, audience Audience) ([]string, error) {
	if ids := compactIDs(audience.UserIDs); len(ids) > 0 {
		return ids, nil
	}
	users, err := s.users.List(ctx, docstore.Where("status", string(enums.UserStatusActive)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recipients")
	}
	if audience.Permission == "" {
		out := make([]string, 0, len(users))
		for _, u := range users {
			out = append(out, u.ID)
		}
		return out, nil
	}

	roles, err := s.roles.List(ctx, docstore.All)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list roles")
	}
	granted := make(map[string]bool, len(roles))
	for _, r := range roles {
		granted[r.ID] = r.Permissions.Contains(string(audience.Permission))
	}
	out := make([]string, 0, len(users))
	for _, u := range users {
		if granted[u.RoleID] {
			out = append(out, u.ID)
		}
	}
	return out, nil
}

// PurgeRead deletes read notifications created before cutoff.
func (s *service) PurgeRead(ctx context.Context, cutoff time.Time) (int64, error) {
	if cutoff.IsZero() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "cutoff required")
	}
	removed, err := s.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge read notifications")
	}
	if removed > 0 {
		s.hub.Notify(ctx)
	}
	return removed, nil
}

// storeMarker adapts the service to the Feed's Marker.
type storeMarker struct {
	s *service
}

func (m storeMarker) MarkRead(ctx context.Context, userID, notificationID string) error {
	return m.s.markRead(ctx, userID, notificationID)
}

func (m storeMarker) MarkManyRead(ctx context.Context, userID string, ids []string) BatchResult {
	return m.s.markManyRead(ctx, userID, ids)
}
