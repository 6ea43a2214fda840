package vendors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/lottodesk-backend/internal/cachekeys"
	"github.com/angelmondragon/lottodesk-backend/internal/events"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/pagination"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
)

// Service manages marketplace vendors and their review lifecycle.
type Service interface {
	List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error)
	Get(ctx context.Context, actor auth.Actor, id string) (*VendorDTO, error)
	Create(ctx context.Context, actor auth.Actor, input CreateVendorInput) (*VendorDTO, error)
	Update(ctx context.Context, actor auth.Actor, id string, input UpdateVendorInput) (*VendorDTO, error)
	SetStatus(ctx context.Context, actor auth.Actor, id string, input StatusInput) error
	Delete(ctx context.Context, actor auth.Actor, id string) error
}

type ServiceParams struct {
	Backend   *docstore.Backend
	Cache     *querycache.Cache
	Publisher events.Publisher
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	vendors docstore.Collection[models.Vendor]
	games   docstore.Collection[models.Game]
	cache   *querycache.Cache
	list    *querycache.Query[[]models.Vendor]
	pub     events.Publisher
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "document store required")
	}
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "query cache required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	pub := params.Publisher
	if pub == nil {
		pub = events.NewLogPublisher(params.Logger)
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	s := &service{
		vendors: docstore.For[models.Vendor](params.Backend),
		games:   docstore.For[models.Game](params.Backend),
		cache:   params.Cache,
		pub:     pub,
		logg:    params.Logger,
		now:     now,
	}
	s.list = querycache.NewQuery(params.Cache, cachekeys.VendorsList, querycache.Policy{}, func(ctx context.Context) ([]models.Vendor, error) {
		return s.vendors.List(ctx, docstore.All)
	})
	return s, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error) {
	if err := actor.Require(enums.PermissionVendorsRead); err != nil {
		return nil, err
	}
	var status enums.VendorStatus
	if params.Status != "" {
		parsed, err := enums.ParseVendorStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		status = parsed
	}

	snap, err := querycache.Served[[]models.Vendor](s.list.Get(ctx))
	if err != nil {
		return nil, docstore.Classify(err, "vendors")
	}

	search := strings.ToLower(strings.TrimSpace(params.Search))
	matched := make([]models.Vendor, 0, len(snap.Data))
	for _, v := range snap.Data {
		if status != "" && v.Status != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(v.Name), search) && !strings.Contains(strings.ToLower(v.Email), search) {
			continue
		}
		matched = append(matched, v)
	}

	page, err := pagination.Paginate(matched, pagination.Params{Limit: params.Limit, Cursor: params.Cursor}, func(v models.Vendor) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	items := make([]VendorDTO, 0, len(page.Items))
	for _, v := range page.Items {
		items = append(items, FromModel(v))
	}
	return &ListResult{Items: items, Cursor: page.Cursor, Total: page.Total, Freshness: snap.Freshness()}, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id string) (*VendorDTO, error) {
	if err := actor.Require(enums.PermissionVendorsRead); err != nil {
		return nil, err
	}
	vendor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*vendor)
	return &dto, nil
}

func (s *service) load(ctx context.Context, id string) (*models.Vendor, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	vendor, err := s.vendors.Get(ctx, id)
	if err != nil {
		return nil, docstore.Classify(err, "vendor")
	}
	return vendor, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateVendorInput) (*VendorDTO, error) {
	if err := actor.Require(enums.PermissionVendorsWrite); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor name and email required")
	}
	commission := 0
	if input.CommissionBps != nil {
		commission = *input.CommissionBps
	}
	if commission < 0 || commission > 10000 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission must be between 0 and 10000 basis points")
	}

	create := querycache.NewMutation(s.cache, func(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error) {
		if _, err := s.vendors.Create(ctx, vendor); err != nil {
			return nil, err
		}
		return vendor, nil
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.VendorsList, cachekeys.AllDashboards}})

	vendor, err := create.Run(ctx, &models.Vendor{
		Name:          name,
		Email:         email,
		Phone:         strings.TrimSpace(input.Phone),
		Address:       strings.TrimSpace(input.Address),
		LicenseNumber: strings.TrimSpace(input.LicenseNumber),
		CommissionBps: commission,
		Status:        enums.VendorStatusPending,
	})
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "email", email), "create vendor failed", err)
		return nil, docstore.Classify(err, "vendor")
	}
	events.Emit(ctx, s.pub, s.logg, actor, enums.EventVendorApplied, events.VendorApplied{VendorID: vendor.ID, Name: vendor.Name})
	dto := FromModel(*vendor)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id string, input UpdateVendorInput) (*VendorDTO, error) {
	if err := actor.Require(enums.PermissionVendorsWrite); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	partial := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor name cannot be blank")
		}
		partial["name"] = name
	}
	if input.Phone != nil {
		partial["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		partial["address"] = strings.TrimSpace(*input.Address)
	}
	if input.LicenseNumber != nil {
		partial["license_number"] = strings.TrimSpace(*input.LicenseNumber)
	}
	if input.CommissionBps != nil {
		if *input.CommissionBps < 0 || *input.CommissionBps > 10000 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission must be between 0 and 10000 basis points")
		}
		partial["commission_bps"] = *input.CommissionBps
	}
	if len(partial) == 0 {
		dto := FromModel(*current)
		return &dto, nil
	}

	update := querycache.NewMutation(s.cache, func(ctx context.Context, partial map[string]any) (*models.Vendor, error) {
		if err := s.vendors.Update(ctx, id, partial); err != nil {
			return nil, err
		}
		return s.vendors.Get(ctx, id)
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.VendorsList}})

	vendor, err := update.Run(ctx, partial)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "vendor_id", id), "update vendor failed", err)
		return nil, docstore.Classify(err, "vendor")
	}
	dto := FromModel(*vendor)
	return &dto, nil
}

type statusChange struct {
	id       string
	status   enums.VendorStatus
	reason   string
	reviewed time.Time
}

func (s *service) SetStatus(ctx context.Context, actor auth.Actor, id string, input StatusInput) error {
	if err := actor.Require(enums.PermissionVendorsWrite); err != nil {
		return err
	}
	if !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid vendor status")
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !current.Status.CanTransition(input.Status) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("vendor cannot move from %s to %s", current.Status, input.Status)).
			WithDetails(map[string]any{"from": current.Status, "to": input.Status})
	}
	if input.Status == enums.VendorStatusRejected && strings.TrimSpace(input.Reason) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "a reason is required when rejecting a vendor")
	}

	mutation := querycache.NewOptimisticMutation(s.cache, cachekeys.VendorsList,
		func(ctx context.Context, in statusChange) error {
			return s.vendors.Update(ctx, in.id, map[string]any{
				"status":        in.status,
				"status_reason": in.reason,
				"reviewed_at":   in.reviewed,
			})
		},
		func(list []models.Vendor, in statusChange) []models.Vendor {
			return querycache.UpdateWhere(list,
				func(v models.Vendor) bool { return v.ID == in.id },
				func(v models.Vendor) models.Vendor {
					reviewed := in.reviewed
					v.Status = in.status
					v.StatusReason = in.reason
					v.ReviewedAt = &reviewed
					return v
				})
		},
		querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.AllDashboards, cachekeys.GamesList}},
	)

	change := statusChange{id: id, status: input.Status, reason: strings.TrimSpace(input.Reason), reviewed: s.now().UTC()}
	logCtx := s.logg.WithFields(ctx, map[string]any{"vendor_id": id, "from": string(current.Status), "to": string(input.Status)})
	if err := mutation.Run(ctx, change); err != nil {
		s.logg.Error(logCtx, "set vendor status failed", err)
		return docstore.Classify(err, "vendor")
	}
	s.logg.Info(logCtx, "vendor status changed")
	events.Emit(ctx, s.pub, s.logg, actor, enums.EventVendorStatusChanged, events.VendorStatusChanged{
		VendorID: id,
		Name:     current.Name,
		From:     current.Status,
		To:       input.Status,
		Reason:   change.reason,
	})
	return nil
}

// Delete refuses while games are still attached to the vendor.
func (s *service) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if err := actor.Require(enums.PermissionVendorsWrite); err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	attached, err := s.games.Count(ctx, docstore.Where("vendor_id", id))
	if err != nil {
		return docstore.Classify(err, "games")
	}
	if attached > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "vendor has games").
			WithDetails(map[string]any{"vendor_id": id, "game_count": attached})
	}

	remove := querycache.NewMutation(s.cache, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, s.vendors.Delete(ctx, id)
	}, querycache.MutationOptions{Invalidate: []querycache.Key{cachekeys.VendorsList, cachekeys.AllDashboards}})
	if _, err := remove.Run(ctx, id); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "vendor_id", id), "delete vendor failed", err)
		return docstore.Classify(err, "vendor")
	}
	return nil
}
