package settings

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/angelmondragon/lottodesk-backend/internal/cachekeys"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth"
	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
)

type SettingsDTO struct {
	SiteName             string    `json:"site_name"`
	SupportEmail         string    `json:"support_email"`
	Currency             string    `json:"currency"`
	MaintenanceMode      bool      `json:"maintenance_mode"`
	ClaimWindowDays      int       `json:"claim_window_days"`
	DefaultCommissionBps int       `json:"default_commission_bps"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type UpdateInput struct {
	SiteName             *string `json:"site_name" validate:"omitempty,max=120"`
	SupportEmail         *string `json:"support_email" validate:"omitempty,email"`
	Currency             *string `json:"currency" validate:"omitempty,len=3"`
	MaintenanceMode      *bool   `json:"maintenance_mode"`
	ClaimWindowDays      *int    `json:"claim_window_days" validate:"omitempty,min=1,max=3650"`
	DefaultCommissionBps *int    `json:"default_commission_bps" validate:"omitempty,min=0,max=10000"`
}

// Defaults are served until the first update persists the document.
func Defaults() models.Setting {
	return models.Setting{
		Record:          models.Record{ID: models.SettingsID},
		SiteName:        "LottoDesk",
		Currency:        "USD",
		ClaimWindowDays: 90,
	}
}

func FromModel(s models.Setting) SettingsDTO {
	return SettingsDTO{
		SiteName:             s.SiteName,
		SupportEmail:         s.SupportEmail,
		Currency:             s.Currency,
		MaintenanceMode:      s.MaintenanceMode,
		ClaimWindowDays:      s.ClaimWindowDays,
		DefaultCommissionBps: s.DefaultCommission,
		UpdatedAt:            s.UpdatedAt,
	}
}

// Service reads and writes the single settings document.
type Service interface {
	Get(ctx context.Context, actor auth.Actor) (*SettingsDTO, querycache.Freshness, error)
	Update(ctx context.Context, actor auth.Actor, input UpdateInput) (*SettingsDTO, error)
}

type service struct {
	settings docstore.Collection[models.Setting]
	doc      *querycache.Query[models.Setting]
	cache    *querycache.Cache
	logg     *logger.Logger
}

func NewService(backend *docstore.Backend, cache *querycache.Cache, logg *logger.Logger) (Service, error) {
	if backend == nil || cache == nil || logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings service dependencies missing")
	}
	s := &service{
		settings: docstore.For[models.Setting](backend),
		cache:    cache,
		logg:     logg,
	}
	s.doc = querycache.NewQuery(cache, cachekeys.SettingsDoc, querycache.Policy{}, s.fetch)
	return s, nil
}

func (s *service) fetch(ctx context.Context) (models.Setting, error) {
	doc, err := s.settings.Get(ctx, models.SettingsID)
	if errors.Is(err, docstore.ErrNotFound) {
		return Defaults(), nil
	}
	if err != nil {
		return models.Setting{}, err
	}
	return *doc, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor) (*SettingsDTO, querycache.Freshness, error) {
	if actor.IsZero() {
		return nil, querycache.Freshness{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	snap, err := querycache.Served[models.Setting](s.doc.Get(ctx))
	if err != nil {
		return nil, querycache.Freshness{}, docstore.Classify(err, "settings")
	}
	dto := FromModel(snap.Data)
	return &dto, snap.Freshness(), nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, input UpdateInput) (*SettingsDTO, error) {
	if err := actor.Require(enums.PermissionSettingsWrite); err != nil {
		return nil, err
	}
	partial, err := partialFrom(input)
	if err != nil {
		return nil, err
	}
	if len(partial) == 0 {
		dto, _, err := s.Get(ctx, actor)
		return dto, err
	}

	// Claim window and commission feed dashboards through winners and vendors.
	update := querycache.NewMutation(s.cache, s.upsert, querycache.MutationOptions{
		Invalidate: []querycache.Key{cachekeys.SettingsDoc, cachekeys.AllDashboards},
	})
	doc, err := update.Run(ctx, partial)
	if err != nil {
		s.logg.Error(ctx, "update settings failed", err)
		return nil, docstore.Classify(err, "settings")
	}
	s.logg.Info(s.logg.WithField(ctx, "fields", len(partial)), "settings updated")
	dto := FromModel(*doc)
	return &dto, nil
}

// upsert creates the document from defaults on first write.
func (s *service) upsert(ctx context.Context, partial map[string]any) (*models.Setting, error) {
	err := s.settings.Update(ctx, models.SettingsID, partial)
	if errors.Is(err, docstore.ErrNotFound) {
		doc := Defaults()
		applyPartial(&doc, partial)
		if _, err := s.settings.Create(ctx, &doc); err != nil {
			return nil, err
		}
		return &doc, nil
	}
	if err != nil {
		return nil, err
	}
	return s.settings.Get(ctx, models.SettingsID)
}

func partialFrom(input UpdateInput) (map[string]any, error) {
	partial := map[string]any{}
	if input.SiteName != nil {
		name := strings.TrimSpace(*input.SiteName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "site name cannot be blank")
		}
		partial["site_name"] = name
	}
	if input.SupportEmail != nil {
		email := strings.TrimSpace(*input.SupportEmail)
		if email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid support email")
			}
		}
		partial["support_email"] = email
	}
	if input.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*input.Currency))
		if len(currency) != 3 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency must be a three letter code")
		}
		partial["currency"] = currency
	}
	if input.MaintenanceMode != nil {
		partial["maintenance_mode"] = *input.MaintenanceMode
	}
	if input.ClaimWindowDays != nil {
		if *input.ClaimWindowDays < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "claim window must be at least one day")
		}
		partial["claim_window_days"] = *input.ClaimWindowDays
	}
	if input.DefaultCommissionBps != nil {
		if *input.DefaultCommissionBps < 0 || *input.DefaultCommissionBps > 10000 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission must be between 0 and 10000 basis points")
		}
		partial["default_commission_bps"] = *input.DefaultCommissionBps
	}
	return partial, nil
}

func applyPartial(doc *models.Setting, partial map[string]any) {
	for field, value := range partial {
		switch field {
		case "site_name":
			doc.SiteName = value.(string)
		case "support_email":
			doc.SupportEmail = value.(string)
		case "currency":
			doc.Currency = value.(string)
		case "maintenance_mode":
			doc.MaintenanceMode = value.(bool)
		case "claim_window_days":
			doc.ClaimWindowDays = value.(int)
		case "default_commission_bps":
			doc.DefaultCommission = value.(int)
		}
	}
}
