// Package identity links pedigree people to the clinical registry through
// their NHS number: it looks records up when the number changes, creates
// and updates registry records on request, and keeps the record actions of
// each node enabled or disabled to match.
//
// Network calls run without holding the editor's lock. Each lookup carries
// a per-node request token and its result is dropped if a newer lookup for
// the same node has started since.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/pedigree/internal/clinical"
	"github.com/matthewbaird/pedigree/internal/pedigree"
	"github.com/matthewbaird/pedigree/internal/term"
	"github.com/matthewbaird/pedigree/internal/types"
)

var (
	ErrInvalidIdentifier = errors.New("identity: external id is not a 10-digit NHS number")
	ErrNoRecord          = errors.New("identity: no registry record")
	ErrCancelled         = errors.New("identity: cancelled by user")

	errStale = errors.New("identity: stale response")
)

// Records is the registry surface the synchronizer uses.
type Records interface {
	Demographics(ctx context.Context, nhsNumber string) (clinical.Individual, bool, error)
	SpineDemographics(ctx context.Context, nhsNumber string) (clinical.SpinePatient, bool, error)
	AddCohortMember(ctx context.Context, cohortID, individualID string) (string, error)
	RemoveCohortMember(ctx context.Context, cohortID, phenopacketID string) (int, error)
	InsertPhenopacket(ctx context.Context) (string, error)
	UpsertIndividual(ctx context.Context, in clinical.IndividualInput) (string, error)
	InsertInterpretation(ctx context.Context, phenopacketID, specialtyID string) (string, error)
	AddCaseHistory(ctx context.Context, phenopacketID, status, notes string) (string, error)
	ReplacePhenotypicFeatures(ctx context.Context, phenopacketID string, terms []clinical.HPOOption) error
}

// Host gives access to the editor's people.
type Host interface {
	// Read runs fn on a person under the editor's lock.
	Read(nodeID string, fn func(p *pedigree.Person)) error
	// Write runs fn on a person under the editor's lock, then stores the
	// node's properties and refreshes the menu if it shows the node. An
	// error from fn is returned and nothing is stored.
	Write(nodeID string, fn func(p *pedigree.Person) error) error
	// SetActions sets the record actions of a node.
	SetActions(nodeID string, a Actions)
}

// Prompter talks to the user.
type Prompter interface {
	Confirm(ctx context.Context, nodeID, message string) (bool, error)
	Notify(ctx context.Context, nodeID, message string)
	Open(ctx context.Context, nodeID, url string)
}

// Metrics receives synchronizer counters. All methods may be no-ops.
type Metrics interface {
	SyncOutcome(outcome string)
	StaleResponse()
	RecordCreated(complete bool)
}

// Outcome is how a lookup ended.
type Outcome string

const (
	OutcomeInvalid  Outcome = "invalid"
	OutcomeRegistry Outcome = "registry"
	OutcomeSpine    Outcome = "spine"
	OutcomeNotFound Outcome = "not_found"
	OutcomeStale    Outcome = "stale"
	OutcomeError    Outcome = "error"
)

// Config holds the registry context of the editor session.
type Config struct {
	// CohortID is the family cohort new and matched individuals join.
	CohortID string
	// SpecialtyID scopes the interpretation of created records.
	SpecialtyID string
	// ApplicationURL is the registry web application.
	ApplicationURL string
	// FindingWidth is the wrap width of reported findings.
	FindingWidth int
	// CaseNotes annotates the first case-history entry.
	CaseNotes string
}

// Synchronizer keeps people in step with the registry.
type Synchronizer struct {
	records Records
	host    Host
	prompt  Prompter
	metrics Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	cfg    Config
	tokens map[string]uint64
}

// New returns a Synchronizer. A nil logger discards output.
func New(records Records, host Host, prompt Prompter, cfg Config, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.FindingWidth <= 0 {
		cfg.FindingWidth = FindingWidth
	}
	if cfg.CaseNotes == "" {
		cfg.CaseNotes = "Added via pedigree editor"
	}
	return &Synchronizer{
		records: records,
		host:    host,
		prompt:  prompt,
		metrics: nopMetrics{},
		logger:  logger.With("component", "identity"),
		cfg:     cfg,
		tokens:  make(map[string]uint64),
	}
}

// SetMetrics attaches counters.
func (s *Synchronizer) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// SetCohort sets the family cohort once it is known.
func (s *Synchronizer) SetCohort(cohortID string) {
	s.mu.Lock()
	s.cfg.CohortID = cohortID
	s.mu.Unlock()
}

func (s *Synchronizer) config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *Synchronizer) nextToken(nodeID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[nodeID]++
	return s.tokens[nodeID]
}

func (s *Synchronizer) current(nodeID string, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[nodeID] == token
}

// Forget drops the request state of a removed node.
func (s *Synchronizer) Forget(nodeID string) {
	s.mu.Lock()
	delete(s.tokens, nodeID)
	s.mu.Unlock()
}

// writeIfCurrent runs fn under the host lock only if token is still the
// latest for the node.
func (s *Synchronizer) writeIfCurrent(nodeID string, token uint64, fn func(p *pedigree.Person) error) error {
	return s.host.Write(nodeID, func(p *pedigree.Person) error {
		if !s.current(nodeID, token) {
			return errStale
		}
		return fn(p)
	})
}

// Sync reconciles a person with the registry after its external ID
// changed. Lookup failures are logged and reported as OutcomeError; they
// never leave the person half-updated.
func (s *Synchronizer) Sync(ctx context.Context, nodeID string) (Outcome, error) {
	token := s.nextToken(nodeID)
	log := s.logger.With("node", nodeID, "token", token)

	var oldPhenopacket, nhsNumber string
	var valid bool
	err := s.writeIfCurrent(nodeID, token, func(p *pedigree.Person) error {
		oldPhenopacket = p.PhenopacketID()
		p.SetPhenopacketID("")
		nhsNumber = p.NormalizedExternalID()
		valid = p.HasNHSNumber()
		return nil
	})
	if err != nil {
		return s.finish(log, nodeID, token, OutcomeError, err)
	}
	if !valid {
		s.host.SetActions(nodeID, noActions)
		return s.finish(log, nodeID, token, OutcomeInvalid, nil)
	}

	ind, found, err := s.records.Demographics(ctx, nhsNumber)
	if err != nil {
		s.host.SetActions(nodeID, noActions)
		return s.finish(log, nodeID, token, OutcomeError, fmt.Errorf("registry lookup: %w", err))
	}
	if found {
		return s.applyRegistry(ctx, log, nodeID, token, oldPhenopacket, ind)
	}

	patient, found, err := s.records.SpineDemographics(ctx, nhsNumber)
	if err != nil {
		s.host.SetActions(nodeID, noActions)
		return s.finish(log, nodeID, token, OutcomeError, fmt.Errorf("spine lookup: %w", err))
	}
	if !found {
		if !s.current(nodeID, token) {
			return s.finish(log, nodeID, token, OutcomeStale, errStale)
		}
		s.host.SetActions(nodeID, createActions)
		return s.finish(log, nodeID, token, OutcomeNotFound, nil)
	}
	err = s.writeIfCurrent(nodeID, token, func(p *pedigree.Person) error {
		return applySpine(p, patient)
	})
	if err != nil {
		return s.finish(log, nodeID, token, OutcomeSpine, err)
	}
	s.host.SetActions(nodeID, createActions)
	return s.finish(log, nodeID, token, OutcomeSpine, nil)
}

func (s *Synchronizer) applyRegistry(ctx context.Context, log *slog.Logger, nodeID string, token uint64, oldPhenopacket string, ind clinical.Individual) (Outcome, error) {
	cfg := s.config()
	findings := Findings(ind.Phenopacket.GenomicInterpretations, cfg.FindingWidth)
	err := s.writeIfCurrent(nodeID, token, func(p *pedigree.Person) error {
		return applyIndividual(p, ind, findings)
	})
	if err != nil {
		return s.finish(log, nodeID, token, OutcomeRegistry, err)
	}
	s.host.SetActions(nodeID, linkedActions)

	// Cohort membership is best effort.
	if cfg.CohortID == "" {
		log.Debug("no family cohort, skipping membership")
	} else {
		if oldPhenopacket != "" && oldPhenopacket != ind.PhenopacketID {
			if _, err := s.records.RemoveCohortMember(ctx, cfg.CohortID, oldPhenopacket); err != nil {
				log.Warn("removing old cohort member failed", "phenopacket", oldPhenopacket, "err", err)
			}
		}
		if _, err := s.records.AddCohortMember(ctx, cfg.CohortID, ind.ID); err != nil {
			log.Warn("adding cohort member failed", "individual", ind.ID, "err", err)
		}
	}
	return s.finish(log, nodeID, token, OutcomeRegistry, nil)
}

func (s *Synchronizer) finish(log *slog.Logger, nodeID string, token uint64, outcome Outcome, err error) (Outcome, error) {
	switch {
	case errors.Is(err, errStale):
		outcome = OutcomeStale
		s.metrics.StaleResponse()
		s.mu.Lock()
		latest := s.tokens[nodeID]
		s.mu.Unlock()
		log.Warn("discarding stale lookup", "current_token", latest)
		err = nil
	case err != nil:
		outcome = OutcomeError
		log.Error("sync failed", "err", err)
	default:
		log.Info("synced", "outcome", outcome)
	}
	s.metrics.SyncOutcome(string(outcome))
	return outcome, err
}

func applyIndividual(p *pedigree.Person, ind clinical.Individual, findings []string) error {
	p.ClearDemographics(true)
	p.SetFirstName(ind.FirstName)
	p.SetLastName(ind.LastName)
	p.SetPhenopacketID(ind.PhenopacketID)
	if err := p.SetLifeStatus(ind.LifeStatus()); err != nil {
		return err
	}
	if err := p.SetBirthDate(ind.DateOfBirth); err != nil {
		return err
	}
	if !ind.DateOfDeath.IsZero() {
		if err := p.SetDeathDate(ind.DateOfDeath); err != nil {
			return err
		}
	}
	p.SetGender(types.ParseGender(ind.Sex))

	phenotypes := ind.Phenotypes()
	hpo := make([]*term.HPOTerm, 0, len(phenotypes))
	for _, h := range phenotypes {
		hpo = append(hpo, term.NewHPOTerm(h.ID, h.Name))
	}
	if err := p.SetHPO(hpo); err != nil {
		// Duplicates in the registry list are skipped, not fatal.
		if !errors.Is(err, pedigree.ErrDuplicateTerm) {
			return err
		}
	}
	p.SetComments(prependFindings(p.Comments(), findings))
	return nil
}

func applySpine(p *pedigree.Person, patient clinical.SpinePatient) error {
	p.ClearDemographics(false)
	if name, ok := PreferredName(patient.Name); ok {
		p.SetFirstName(name.FirstGiven())
		p.SetLastName(name.Family)
	}
	if err := p.SetLifeStatus(types.LifeStatusFromDeceased(patient.Deceased)); err != nil {
		return err
	}
	if err := p.SetBirthDate(patient.BirthDate); err != nil {
		return err
	}
	if !patient.DeceasedDateTime.IsZero() {
		if err := p.SetDeathDate(patient.DeceasedDateTime); err != nil {
			return err
		}
	}
	p.SetGender(types.ParseGender(patient.Gender))
	return nil
}

type nopMetrics struct{}

func (nopMetrics) SyncOutcome(string) {}
func (nopMetrics) StaleResponse()     {}
func (nopMetrics) RecordCreated(bool) {}

// DefaultBatchLimit bounds concurrent lookups in SyncAll.
const DefaultBatchLimit = 4

// SyncAll syncs every listed node, at most limit at a time, and returns
// the outcome per node.
func (s *Synchronizer) SyncAll(ctx context.Context, nodeIDs []string, limit int) map[string]Outcome {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	var (
		g   errgroup.Group
		mu  sync.Mutex
		out = make(map[string]Outcome, len(nodeIDs))
	)
	g.SetLimit(limit)
	for _, id := range nodeIDs {
		g.Go(func() error {
			outcome, _ := s.Sync(ctx, id)
			mu.Lock()
			out[id] = outcome
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
