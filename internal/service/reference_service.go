package service

import (
	"context"
	"strings"

	"nestling/internal/cache"
	"nestling/internal/models"
	"nestling/internal/repository"
	"nestling/internal/validation"
)

const maxReferenceNameLen = 128

// ReferenceService manages the admin-maintained lookup tables.
type ReferenceService struct {
	refs   repository.ReferenceRepository
	paging Paging
}

type CityInput struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

// NamedInput covers lookups that only carry a name and a description.
type NamedInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func NewReferenceService(refs repository.ReferenceRepository, paging Paging) *ReferenceService {
	return &ReferenceService{refs: refs, paging: paging}
}

func checkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateRequired("name", name, maxReferenceNameLen); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	return name, nil
}

func (s *ReferenceService) Cities(ctx context.Context) ([]models.City, error) {
	return s.refs.ListCities(ctx)
}

func (s *ReferenceService) City(ctx context.Context, id uint) (*models.City, error) {
	return s.refs.GetCity(ctx, id)
}

func (s *ReferenceService) CreateCity(ctx context.Context, id models.Identity, in CityInput) (*models.City, error) {
	if err := requireCapability(id, models.CapManageReference); err != nil {
		return nil, err
	}
	name, err := checkName(in.Name)
	if err != nil {
		return nil, err
	}
	city := &models.City{Name: name, Region: strings.TrimSpace(in.Region)}
	if err := s.refs.SaveCity(ctx, city); err != nil {
		return nil, err
	}
	return city, nil
}

func (s *ReferenceService) UpdateCity(ctx context.Context, id models.Identity, cityID uint, in CityInput) (*models.City, error) {
	if err := requireCapability(id, models.CapManageReference); err != nil {
		return nil, err
	}
	name, err := checkName(in.Name)
	if err != nil {
		return nil, err
	}
	city, err := s.refs.GetCity(ctx, cityID)
	if err != nil {
		return nil, err
	}
	city.Name = name
	city.Region = strings.TrimSpace(in.Region)
	if err := s.refs.SaveCity(ctx, city); err != nil {
		return nil, err
	}
	cache.InvalidateEvents(ctx)
	return city, nil
}

func (s *ReferenceService) TypeArticles(ctx context.Context) ([]models.TypeArticle, error) {
	return s.refs.ListTypeArticles(ctx)
}

func (s *ReferenceService) TypeArticle(ctx context.Context, id uint) (*models.TypeArticle, error) {
	return s.refs.GetTypeArticle(ctx, id)
}

func (s *ReferenceService) CreateTypeArticle(ctx context.Context, id models.Identity, in NamedInput) (*models.TypeArticle, error) {
	if err := requireCapability(id, models.CapManageReference); err != nil {
		return nil, err
	}
	name, err := checkName(in.Name)
	if err != nil {
		return nil, err
	}
	t := &models.TypeArticle{Name: name, Description: in.Description}
	if err := s.refs.SaveTypeArticle(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *ReferenceService) UpdateTypeArticle(ctx context.Context, id models.Identity, typeID uint, in NamedInput) (*models.TypeArticle, error) {
	if err := requireCapability(id, models.CapManageReference); err != nil {
		return nil, err
	}
	name, err := checkName(in.Name)
	if err != nil {
		return nil, err
	}
	t, err := s.refs.GetTypeArticle(ctx, typeID)
	if err != nil {
		return nil, err
	}
	t.Name = name
	t.Description = in.Description
	if err := s.refs.SaveTypeArticle(ctx, t); err != nil {
		return nil, err
	}
	cache.InvalidateArticles(ctx)
	return t, nil
}

func (s *ReferenceService) Tags(ctx context.Context) ([]models.Tag, error) {
	return s.refs.ListTags(ctx)
}

func (s *ReferenceService) Tag(ctx context.Context, id uint) (*models.Tag, error) {
	return s.refs.GetTag(ctx, id)
}

// SearchTags matches tag names case-insensitively, ordered by id.
func (s *ReferenceService) SearchTags(ctx context.Context, query string, count int) ([]models.Tag, error) {
	return s.refs.SearchTags(ctx, query, s.paging.searchCount(count))
}

func (s *ReferenceService) CreateTag(ctx context.Context, id models.Identity, in NamedInput) (*models.Tag, error) {
	if err := requireCapability(id, models.CapManageReference); err != nil {
		return nil, err
	}
	name, err := checkName(in.Name)
	if err != nil {
		return nil, err
	}
	tag := &models.Tag{Name: name, Description: in.Description}
	if err := s.refs.SaveTag(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *ReferenceService) UpdateTag(ctx context.Context, id models.Identity, tagID uint, in NamedInput) (*models.Tag, error) {
	if err := requireCapability(id, models.CapManageReference); err != nil {
		return nil, err
	}
	name, err := checkName(in.Name)
	if err != nil {
		return nil, err
	}
	tag, err := s.refs.GetTag(ctx, tagID)
	if err != nil {
		return nil, err
	}
	tag.Name = name
	tag.Description = in.Description
	if err := s.refs.SaveTag(ctx, tag); err != nil {
		return nil, err
	}
	cache.InvalidateDetails(ctx)
	return tag, nil
}
