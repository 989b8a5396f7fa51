package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

// AffiliationService manages affiliation tags.
type AffiliationService struct {
	repo  ports.AffiliationRepository
	cache ports.StatsCache
	log   zerolog.Logger
}

func NewAffiliationService(repo ports.AffiliationRepository, cache ports.StatsCache, log zerolog.Logger) *AffiliationService {
	return &AffiliationService{repo: repo, cache: cache, log: log}
}

func (s *AffiliationService) CreateAffiliation(ctx context.Context, id domain.Identity, name string, avatar, link *string) (*domain.CustomerAffiliation, error) {
	if !id.Authenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("affiliation name is required")
	}
	if name == domain.NoAffiliation {
		return nil, domain.Invalid("affiliation name %q is reserved", name)
	}

	a := &domain.CustomerAffiliation{
		Name:       name,
		Avatar:     blankToNil(avatar),
		Link:       blankToNil(link),
		SubmitUser: id.Username,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info().Str("affiliation", a.Name).Str("submit_user", a.SubmitUser).Msg("affiliation created")
	return a, nil
}

// ListAffiliations returns every affiliation to admins and the caller's own to everyone else.
func (s *AffiliationService) ListAffiliations(ctx context.Context, id domain.Identity) ([]*domain.CustomerAffiliation, error) {
	return s.repo.List(ctx, affiliationScope(id))
}

func (s *AffiliationService) UpdateAffiliation(ctx context.Context, id domain.Identity, affiliationID int64, avatar, link *string) (*domain.CustomerAffiliation, error) {
	a, err := s.load(ctx, id, affiliationID)
	if err != nil {
		return nil, err
	}
	if avatar != nil {
		a.Avatar = blankToNil(avatar)
	}
	if link != nil {
		a.Link = blankToNil(link)
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAffiliation removes the affiliation and detaches it from its customers.
func (s *AffiliationService) DeleteAffiliation(ctx context.Context, id domain.Identity, affiliationID int64) error {
	if _, err := s.load(ctx, id, affiliationID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, affiliationID); err != nil {
		return err
	}
	invalidateStats(ctx, s.cache, s.log)
	return nil
}

func (s *AffiliationService) load(ctx context.Context, id domain.Identity, affiliationID int64) (*domain.CustomerAffiliation, error) {
	if !id.Authenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	a, err := s.repo.FindByID(ctx, affiliationID)
	if err != nil {
		return nil, err
	}
	if err := authorize(id, a, s.log); err != nil {
		return nil, err
	}
	return a, nil
}

// affiliationScope is the submit_user filter for affiliation reads. Only
// admins see affiliations created by other users.
func affiliationScope(id domain.Identity) string {
	if id.IsAdmin() {
		return ""
	}
	if id.Username == "" {
		return domain.AnonymousUsername
	}
	return id.Username
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
