package cams

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/core/logging"
	"github.com/colonyops/cams/internal/core/validate"
)

// SeedFile is the YAML document loaded by `cams seed`.
type SeedFile struct {
	Cases        []SeedCase                  `yaml:"cases"`
	Assignments  []consolidation.Assignment  `yaml:"assignments"`
	Associations []consolidation.Association `yaml:"associations"`
	Orders       []SeedOrder                 `yaml:"orders"`
}

// SeedCase is a registry case with its docket.
type SeedCase struct {
	consolidation.CaseSummary `yaml:",inline"`
	DocketEntries             []consolidation.DocketEntry `yaml:"docket_entries"`
}

// SeedOrder is a pending consolidation order referencing seeded cases by ID.
type SeedOrder struct {
	ID                string    `yaml:"id"`
	CourtName         string    `yaml:"court_name"`
	CourtDivisionCode string    `yaml:"court_division_code"`
	OrderDate         time.Time `yaml:"order_date"`
	Cases             []string  `yaml:"cases"`
}

// SeedResult counts what a seed run wrote.
type SeedResult struct {
	Cases         int
	Assignments   int
	Associations  int
	Orders        int
	SkippedOrders []string
}

// ReadSeedFile reads and validates a seed file.
func ReadSeedFile(path string) (*SeedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return DecodeSeed(f)
}

// DecodeSeed decodes and validates a seed document.
func DecodeSeed(r io.Reader) (*SeedFile, error) {
	var seed SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Validate checks case IDs, consolidation types and order references.
func (s *SeedFile) Validate() error {
	var errs criterio.FieldErrorsBuilder

	known := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		field := fmt.Sprintf("cases[%d]", i)
		if err := validate.CaseID(c.CaseID); err != nil {
			errs = errs.Append(field+".case_id", err)
		}
		if known[c.CaseID] {
			errs = errs.Append(field+".case_id", fmt.Errorf("duplicate case %s", c.CaseID))
		}
		known[c.CaseID] = true
		if err := validate.Required(c.CaseTitle); err != nil {
			errs = errs.Append(field+".case_title", err)
		}
		if err := validate.Required(c.CourtDivisionCode); err != nil {
			errs = errs.Append(field+".court_division_code", err)
		}
	}

	for i, a := range s.Assignments {
		field := fmt.Sprintf("assignments[%d]", i)
		if !known[a.CaseID] {
			errs = errs.Append(field+".case_id", fmt.Errorf("unknown case %s", a.CaseID))
		}
		if err := validate.Required(a.Name); err != nil {
			errs = errs.Append(field+".name", err)
		}
	}

	for i, a := range s.Associations {
		field := fmt.Sprintf("associations[%d]", i)
		if a.DocumentType != consolidation.ConsolidationFrom && a.DocumentType != consolidation.ConsolidationTo {
			errs = errs.Append(field+".document_type", fmt.Errorf("unknown document type %q", a.DocumentType))
		}
		if _, err := consolidation.ParseType(string(a.ConsolidationType)); err != nil {
			errs = errs.Append(field+".consolidation_type", err)
		}
		if a.CaseID == "" || a.OtherCaseID == "" {
			errs = errs.Append(field, errors.New("case_id and other_case_id are required"))
		}
	}

	ids := make(map[string]bool, len(s.Orders))
	for i, o := range s.Orders {
		field := fmt.Sprintf("orders[%d]", i)
		if o.ID != "" {
			if ids[o.ID] {
				errs = errs.Append(field+".id", fmt.Errorf("duplicate order %s", o.ID))
			}
			ids[o.ID] = true
		}
		if err := validate.Required(o.CourtDivisionCode); err != nil {
			errs = errs.Append(field+".court_division_code", err)
		}
		if len(o.Cases) == 0 {
			errs = errs.Append(field+".cases", errors.New("at least one case is required"))
		}
		for _, id := range o.Cases {
			if !known[id] {
				errs = errs.Append(field+".cases", fmt.Errorf("unknown case %s", id))
			}
		}
	}

	return errs.ToError()
}

// Seed writes the seed document. Orders whose ID already exists are
// skipped so a file can be loaded more than once.
func (a *App) Seed(ctx context.Context, seed *SeedFile) (SeedResult, error) {
	var res SeedResult
	log := logging.Component("seed")

	cases := make(map[string]SeedCase, len(seed.Cases))
	for _, c := range seed.Cases {
		if err := a.Cases.SaveCase(ctx, c.CaseSummary); err != nil {
			return res, err
		}
		if len(c.DocketEntries) > 0 {
			if err := a.Cases.SaveDocketEntries(ctx, c.CaseID, c.DocketEntries); err != nil {
				return res, err
			}
		}
		cases[c.CaseID] = c
		res.Cases++
	}

	for _, as := range seed.Assignments {
		if err := a.Assignments.Assign(ctx, as); err != nil {
			return res, err
		}
		res.Assignments++
	}

	for _, as := range seed.Associations {
		if err := a.Cases.SaveAssociation(ctx, as); err != nil {
			return res, err
		}
		res.Associations++
	}

	for _, so := range seed.Orders {
		if so.ID != "" {
			_, err := a.Orders.Get(ctx, so.ID)
			if err == nil {
				log.Debug().Str("order_id", so.ID).Msg("order exists, skipping")
				res.SkippedOrders = append(res.SkippedOrders, so.ID)
				continue
			}
			if !errors.Is(err, consolidation.ErrOrderNotFound) {
				return res, err
			}
		}

		order := consolidation.Order{
			ID:                so.ID,
			Status:            consolidation.StatusPending,
			CourtName:         so.CourtName,
			CourtDivisionCode: so.CourtDivisionCode,
			OrderDate:         so.OrderDate,
		}
		for _, id := range so.Cases {
			c := cases[id]
			oc := c.OrderCase()
			oc.DocketEntries = c.DocketEntries
			order.ChildCases = append(order.ChildCases, oc)
		}

		created, err := a.Orders.Create(ctx, order)
		if err != nil {
			return res, fmt.Errorf("create order %s: %w", so.ID, err)
		}
		log.Info().Str("order_id", created.ID).Int("cases", len(created.ChildCases)).Msg("order seeded")
		res.Orders++
	}

	return res, nil
}
