package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

// SeriesAPI is the upstream surface for series.
type SeriesAPI interface {
	ListSeries(ctx context.Context) ([]catalogapi.Series, error)
	CreateSeries(ctx context.Context, form *catalogapi.Form) error
	UpdateSeries(ctx context.Context, id int, form *catalogapi.Form) error
	DeleteSeries(ctx context.Context, id int) error
}

// SeriesService validates series drafts and forwards them upstream.
type SeriesService struct {
	api SeriesAPI
}

// NewSeriesService constructs a SeriesService.
func NewSeriesService(api SeriesAPI) *SeriesService {
	return &SeriesService{api: api}
}

// SeriesDraft is the operator's form state for a series.
type SeriesDraft struct {
	Name string
	PDF  *catalogapi.File
}

// List fetches every series.
func (s *SeriesService) List(ctx context.Context) ([]catalogapi.Series, error) {
	return s.api.ListSeries(ctx)
}

// Create uploads a new series with its brochure.
func (s *SeriesService) Create(ctx context.Context, d *SeriesDraft) error {
	form, err := s.form(d, true)
	if err != nil {
		return err
	}
	if err := s.api.CreateSeries(ctx, form); err != nil {
		return err
	}
	log.Info().Str("series", d.Name).Msg("Series created")
	return nil
}

// Update renames series id and optionally replaces its brochure.
func (s *SeriesService) Update(ctx context.Context, id int, d *SeriesDraft) error {
	form, err := s.form(d, false)
	if err != nil {
		return err
	}
	if err := s.api.UpdateSeries(ctx, id, form); err != nil {
		return err
	}
	log.Info().Int("id", id).Msg("Series updated")
	return nil
}

// Delete removes series id.
func (s *SeriesService) Delete(ctx context.Context, id int) error {
	if err := s.api.DeleteSeries(ctx, id); err != nil {
		return err
	}
	log.Info().Int("id", id).Msg("Series deleted")
	return nil
}

func (s *SeriesService) form(d *SeriesDraft, create bool) (*catalogapi.Form, error) {
	if strings.TrimSpace(d.Name) == "" {
		return nil, invalid("name", "Please enter a series name")
	}
	if create && d.PDF == nil {
		return nil, invalid("pdf", "Please upload a PDF")
	}
	if d.PDF != nil {
		if err := InspectPDF("pdf", d.PDF); err != nil {
			return nil, err
		}
	}
	return catalogapi.NewForm().
		Set("name", d.Name).
		Attach("pdf", d.PDF), nil
}
