package identity

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/matthewbaird/pedigree/internal/clinical"
	"github.com/matthewbaird/pedigree/internal/pedigree"
	"github.com/matthewbaird/pedigree/internal/types"
)

// Record creation steps, as reported by PartialCreationError.
const (
	StepPhenopacket    = "phenopacket"
	StepIndividual     = "individual"
	StepInterpretation = "interpretation"
	StepCaseHistory    = "case history"
	StepCohortMember   = "cohort member"
)

// PartialCreationError lists the creation steps that returned no ID. The
// steps that did succeed are not rolled back.
type PartialCreationError struct {
	Missing []string
}

func (e *PartialCreationError) Error() string {
	return "identity: record partially created, missing " + strings.Join(e.Missing, ", ")
}

// Change is one demographic difference between the registry and a node.
type Change struct {
	Field    string
	Registry string
	Node     string
}

func (c Change) String() string { return fmt.Sprintf("%s: %s -> %s", c.Field, c.Registry, c.Node) }

// Demographics is the part of a person compared against its registry
// record.
type Demographics struct {
	FirstName   string
	LastName    string
	LifeStatus  types.LifeStatus
	DateOfBirth types.Date
	DateOfDeath types.Date
	Sex         string
}

// snapshot is what record operations read from a person.
type snapshot struct {
	nhsNumber     string
	display       string
	valid         bool
	phenopacketID string
	demographics  Demographics
	input         clinical.IndividualInput
	phenotypes    []clinical.HPOOption
}

func (s *Synchronizer) snapshot(nodeID string) (snapshot, error) {
	var snap snapshot
	err := s.host.Read(nodeID, func(p *pedigree.Person) {
		snap = snapshot{
			nhsNumber:     p.NormalizedExternalID(),
			display:       p.ExternalID(),
			valid:         p.HasNHSNumber(),
			phenopacketID: p.PhenopacketID(),
			demographics:  demographicsOf(p),
			input:         individualInput(p),
			phenotypes:    phenotypes(p),
		}
	})
	return snap, err
}

func demographicsOf(p *pedigree.Person) Demographics {
	return Demographics{
		FirstName:   p.FirstName(),
		LastName:    p.LastName(),
		LifeStatus:  p.LifeStatus(),
		DateOfBirth: p.BirthDate(),
		DateOfDeath: p.DeathDate(),
		Sex:         string(p.Gender()),
	}
}

func individualInput(p *pedigree.Person) clinical.IndividualInput {
	return clinical.IndividualInput{
		PrimaryIdentifier: p.NormalizedExternalID(),
		PhenopacketID:     p.PhenopacketID(),
		FirstName:         p.FirstName(),
		LastName:          p.LastName(),
		Deceased:          p.LifeStatus() == types.Deceased,
		DateOfBirth:       p.BirthDate(),
		DateOfDeath:       p.DeathDate(),
		Sex:               string(p.Gender()),
	}
}

// phenotypes returns the ontology HPO terms of p. Free-text terms have no
// registry counterpart and are left out.
func phenotypes(p *pedigree.Person) []clinical.HPOOption {
	out := make([]clinical.HPOOption, 0, len(p.HPO()))
	for _, h := range p.HPO() {
		if h.UserDefined() {
			continue
		}
		out = append(out, clinical.HPOOption{ID: h.ExternalID(), Name: h.Name()})
	}
	return out
}

func invalidMessage(display string) string {
	return fmt.Sprintf("The external ID '%s' is not a 10-digit NHS number written as XXXXXXXXXX or XXX XXX XXXX.", display)
}

// Create makes a new registry record for a person after the user confirms.
func (s *Synchronizer) Create(ctx context.Context, nodeID string) error {
	snap, err := s.snapshot(nodeID)
	if err != nil {
		return err
	}
	if !snap.valid {
		s.prompt.Notify(ctx, nodeID, invalidMessage(snap.display))
		return ErrInvalidIdentifier
	}
	ok, err := s.prompt.Confirm(ctx, nodeID,
		fmt.Sprintf("Create a registry record for the patient with NHS number %s?", snap.display))
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		s.prompt.Notify(ctx, nodeID, "The registry record was not created.")
		return ErrCancelled
	}

	cfg := s.config()
	log := s.logger.With("node", nodeID)
	var missing []string
	step := func(name string, fn func() (string, error)) string {
		id, err := fn()
		if err != nil || id == "" {
			log.Error("record creation step returned no id", "step", name, "err", err)
			missing = append(missing, name)
			return ""
		}
		return id
	}
	skip := func(names ...string) {
		for _, name := range names {
			log.Error("record creation step skipped", "step", name)
			missing = append(missing, name)
		}
	}

	phenopacketID := step(StepPhenopacket, func() (string, error) { return s.records.InsertPhenopacket(ctx) })
	if phenopacketID == "" {
		skip(StepIndividual, StepInterpretation, StepCaseHistory, StepCohortMember)
		s.metrics.RecordCreated(false)
		return &PartialCreationError{Missing: missing}
	}
	err = s.host.Write(nodeID, func(p *pedigree.Person) error {
		p.SetPhenopacketID(phenopacketID)
		return nil
	})
	if err != nil {
		log.Warn("linking created phenopacket failed", "phenopacket", phenopacketID, "err", err)
	}

	input := snap.input
	input.PhenopacketID = phenopacketID
	individualID := step(StepIndividual, func() (string, error) { return s.records.UpsertIndividual(ctx, input) })
	step(StepInterpretation, func() (string, error) {
		return s.records.InsertInterpretation(ctx, phenopacketID, cfg.SpecialtyID)
	})
	step(StepCaseHistory, func() (string, error) {
		return s.records.AddCaseHistory(ctx, phenopacketID, clinical.DefaultCaseStatus, cfg.CaseNotes)
	})
	if err := s.records.ReplacePhenotypicFeatures(ctx, phenopacketID, snap.phenotypes); err != nil {
		log.Warn("pushing phenotypes failed", "phenopacket", phenopacketID, "err", err)
	}
	switch {
	case individualID == "":
		skip(StepCohortMember)
	case cfg.CohortID == "":
		log.Warn("no family cohort, individual not added")
		missing = append(missing, StepCohortMember)
	default:
		step(StepCohortMember, func() (string, error) {
			return s.records.AddCohortMember(ctx, cfg.CohortID, individualID)
		})
	}

	s.host.SetActions(nodeID, linkedActions)
	if len(missing) > 0 {
		s.metrics.RecordCreated(false)
		return &PartialCreationError{Missing: missing}
	}
	s.metrics.RecordCreated(true)
	log.Info("registry record created", "phenopacket", phenopacketID, "individual", individualID)
	return nil
}

// Diff compares the tracked demographics of a registry record and a node.
// The registry's deceased flag is compared as the life status it maps to,
// and its sex as the gender code it parses to.
func Diff(ind clinical.Individual, node Demographics) []Change {
	var out []Change
	add := func(field, registry, current string) {
		if registry != current {
			out = append(out, Change{Field: field, Registry: registry, Node: current})
		}
	}
	add("First name", ind.FirstName, node.FirstName)
	add("Last name", ind.LastName, node.LastName)
	add("Life status", string(ind.LifeStatus()), string(node.LifeStatus))
	add("Date of birth", ind.DateOfBirth.String(), node.DateOfBirth.String())
	add("Date of death", ind.DateOfDeath.String(), node.DateOfDeath.String())
	add("Gender", string(types.ParseGender(ind.Sex)), node.Sex)
	return out
}

// Update writes a person's demographics to its registry record after the
// user confirms the listed changes.
func (s *Synchronizer) Update(ctx context.Context, nodeID string) ([]Change, error) {
	snap, err := s.snapshot(nodeID)
	if err != nil {
		return nil, err
	}
	if !snap.valid {
		s.prompt.Notify(ctx, nodeID, invalidMessage(snap.display))
		return nil, ErrInvalidIdentifier
	}
	ind, found, err := s.records.Demographics(ctx, snap.nhsNumber)
	if err != nil {
		return nil, fmt.Errorf("registry lookup: %w", err)
	}
	if !found {
		s.prompt.Notify(ctx, nodeID, fmt.Sprintf("No registry record exists for NHS number %s.", snap.display))
		return nil, ErrNoRecord
	}

	changes := Diff(ind, snap.demographics)
	if len(changes) == 0 {
		s.prompt.Notify(ctx, nodeID, "Nothing to update, the patient's demographics data in the registry is the same.")
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are going to submit the following changes of the patient's (NHS number: %s) demographics data:\n", snap.nhsNumber)
	for _, c := range changes {
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	b.WriteString("Phenotype changes are synchronised automatically and are not listed here. ")
	b.WriteString("Disorders and genes are not stored in the registry.\n")
	b.WriteString("Please confirm the changes.")

	ok, err := s.prompt.Confirm(ctx, nodeID, b.String())
	if err != nil {
		return changes, fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		s.prompt.Notify(ctx, nodeID, "The patient's demographics data was not updated.")
		return changes, ErrCancelled
	}

	input := snap.input
	if input.PhenopacketID == "" {
		input.PhenopacketID = ind.PhenopacketID
	}
	if _, err := s.records.UpsertIndividual(ctx, input); err != nil {
		return changes, fmt.Errorf("upsert individual: %w", err)
	}
	s.prompt.Notify(ctx, nodeID, "The patient's demographics data was updated.")
	return changes, nil
}

// View opens the registry page of a linked person.
func (s *Synchronizer) View(ctx context.Context, nodeID string) (string, error) {
	snap, err := s.snapshot(nodeID)
	if err != nil {
		return "", err
	}
	if snap.phenopacketID == "" {
		return "", ErrNoRecord
	}
	u := strings.TrimRight(s.config().ApplicationURL, "/") + "/patients/" + url.PathEscape(snap.phenopacketID)
	s.prompt.Open(ctx, nodeID, u)
	return u, nil
}

// PushPhenotypes replaces the registry phenotypes of a linked person with
// its current HPO terms. Unlinked people are skipped.
func (s *Synchronizer) PushPhenotypes(ctx context.Context, nodeID string) error {
	snap, err := s.snapshot(nodeID)
	if err != nil {
		return err
	}
	if snap.phenopacketID == "" {
		s.logger.Debug("person not linked, phenotypes not pushed", "node", nodeID)
		return nil
	}
	if err := s.records.ReplacePhenotypicFeatures(ctx, snap.phenopacketID, snap.phenotypes); err != nil {
		return fmt.Errorf("push phenotypes: %w", err)
	}
	return nil
}

// RefreshActions recomputes a node's record actions from its state.
func (s *Synchronizer) RefreshActions(nodeID string) error {
	var a Actions
	if err := s.host.Read(nodeID, func(p *pedigree.Person) { a = ActionsFor(p) }); err != nil {
		return err
	}
	s.host.SetActions(nodeID, a)
	return nil
}
