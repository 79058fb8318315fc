// Package pedigree holds the Person domain object behind each editable
// pedigree node and the in-memory property store the editor works against.
//
// Person exposes typed getters and setters plus the flat Summary the node
// menu reads. Term-list setters keep the session legends balanced by diffing
// the old list against the new one.
package pedigree

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matthewbaird/pedigree/internal/legend"
	"github.com/matthewbaird/pedigree/internal/nhs"
	"github.com/matthewbaird/pedigree/internal/term"
	"github.com/matthewbaird/pedigree/internal/types"
)

var (
	ErrNodeNotFound        = errors.New("pedigree: node not found")
	ErrDuplicateTerm       = errors.New("pedigree: person already has this term")
	ErrMissingTerm         = errors.New("pedigree: person does not have this term")
	ErrInvalidLifeStatus   = errors.New("pedigree: invalid life status")
	ErrInvalidCarrier      = errors.New("pedigree: invalid carrier status")
	ErrDateOrder           = errors.New("pedigree: birth date must precede death date")
	ErrUnknownProperty     = errors.New("pedigree: unknown property")
	ErrPropertyType        = errors.New("pedigree: wrong value type for property")
	ErrUnknownModification = errors.New("pedigree: unknown modification")
)

// NodeTypePerson is the node type of every Person.
const NodeTypePerson = "Person"

// Relations are the facts about a node's place in the graph that shape its
// summary. The graph layer owns the topology and keeps these current.
type Relations struct {
	Proband           bool     `json:"proband,omitempty"`
	HasRelationships  bool     `json:"hasRelationships,omitempty"`
	RelatedToProband  bool     `json:"relatedToProband,omitempty"`
	MustBeAdopted     bool     `json:"mustBeAdopted,omitempty"`
	ImpossibleGenders []string `json:"impossibleGenders,omitempty"`
}

// Person is one individual in the pedigree. It is not safe for concurrent
// use; the editor serialises access.
type Person struct {
	id      string
	legends *legend.Set

	firstName     string
	lastName      string
	externalID    string
	phenopacketID string
	gender        types.Gender
	birthDate     types.Date
	deathDate     types.Date
	lifeStatus    types.LifeStatus
	gestationAge  int
	adopted       bool
	childless     string
	carrier       string
	disorders     []*term.Disorder
	hpo           []*term.HPOTerm
	genes         []*term.Gene
	comments      string
	evaluated     bool
	lostContact   bool
	placeholder   bool
	selected      bool

	relations Relations
}

func newPerson(id string, legends *legend.Set) *Person {
	p := &Person{id: id, legends: legends}
	p.reset()
	return p
}

func (p *Person) reset() {
	p.firstName, p.lastName = "", ""
	p.externalID, p.phenopacketID = "", ""
	p.gender = types.Unknown
	p.birthDate, p.deathDate = types.Date{}, types.Date{}
	p.lifeStatus = types.Alive
	p.gestationAge = 0
	p.adopted = false
	p.childless = ""
	p.carrier = CarrierNone
	p.comments = ""
	p.evaluated, p.lostContact, p.placeholder = false, false, false
}

func (p *Person) ID() string   { return p.id }
func (p *Person) Type() string { return NodeTypePerson }

// Relations returns the node's graph facts.
func (p *Person) Relations() Relations { return p.relations }

// SetRelations replaces the node's graph facts.
func (p *Person) SetRelations(r Relations) { p.relations = r }

// IsProband reports whether this is the main patient.
func (p *Person) IsProband() bool { return p.relations.Proband }

func (p *Person) FirstName() string { return p.firstName }

// SetFirstName stores name with its first letter upper-cased.
func (p *Person) SetFirstName(name string) { p.firstName = capitalize(name) }

func (p *Person) LastName() string { return p.lastName }

// SetLastName stores name with its first letter upper-cased.
func (p *Person) SetLastName(name string) { p.lastName = capitalize(name) }

// ExternalID returns the external identifier, formatted "XXX XXX XXXX" when
// it is an NHS number.
func (p *Person) ExternalID() string { return nhs.Format(p.externalID) }

// NormalizedExternalID returns the identifier without grouping spaces.
func (p *Person) NormalizedExternalID() string { return p.externalID }

// SetExternalID stores id, stripping the grouping spaces of an NHS number.
func (p *Person) SetExternalID(id string) { p.externalID = nhs.Normalize(strings.TrimSpace(id)) }

// HasNHSNumber reports whether the external identifier is an NHS number.
func (p *Person) HasNHSNumber() bool { return nhs.IsNHSNumber(p.externalID) }

func (p *Person) PhenopacketID() string        { return p.phenopacketID }
func (p *Person) SetPhenopacketID(id string)   { p.phenopacketID = strings.TrimSpace(id) }
func (p *Person) Gender() types.Gender         { return p.gender }
func (p *Person) BirthDate() types.Date        { return p.birthDate }
func (p *Person) DeathDate() types.Date        { return p.deathDate }
func (p *Person) LifeStatus() types.LifeStatus { return p.lifeStatus }
func (p *Person) IsFetus() bool                { return p.lifeStatus.IsFetus() }
func (p *Person) Adopted() bool                { return p.adopted }
func (p *Person) CarrierStatus() string        { return p.carrier }
func (p *Person) Comments() string             { return p.comments }
func (p *Person) SetComments(c string)         { p.comments = c }
func (p *Person) Evaluated() bool              { return p.evaluated }
func (p *Person) SetEvaluated(v bool)          { p.evaluated = v }
func (p *Person) LostContact() bool            { return p.lostContact }
func (p *Person) SetLostContact(v bool)        { p.lostContact = v }
func (p *Person) Placeholder() bool            { return p.placeholder }
func (p *Person) Selected() bool               { return p.selected }
func (p *Person) Disorders() []*term.Disorder  { return p.disorders }
func (p *Person) HPO() []*term.HPOTerm         { return p.hpo }
func (p *Person) Genes() []*term.Gene          { return p.genes }
func (p *Person) ChildlessStatus() string      { return p.childless }

// SetGender stores g, falling back to Unknown for unrecognised codes.
func (p *Person) SetGender(g types.Gender) {
	if !g.Valid() {
		g = types.Unknown
	}
	p.gender = g
}

// SetBirthDate stores d unless it falls on or after the death date. The
// zero Date clears the birth date.
func (p *Person) SetBirthDate(d types.Date) error {
	if !d.IsZero() && !p.deathDate.IsZero() && !d.Before(p.deathDate) {
		return ErrDateOrder
	}
	p.birthDate = d
	return nil
}

// SetDeathDate stores d unless it falls on or before the birth date. A death
// date on a living person makes them deceased.
func (p *Person) SetDeathDate(d types.Date) error {
	if !d.IsZero() && !p.birthDate.IsZero() && !p.birthDate.Before(d) {
		return ErrDateOrder
	}
	p.deathDate = d
	if !d.IsZero() && p.lifeStatus == types.Alive {
		p.lifeStatus = types.Deceased
	}
	return nil
}

// SetLifeStatus changes the life status. Any status but deceased clears the
// death date; fetal statuses also clear the birth date, adoption and
// childless status.
func (p *Person) SetLifeStatus(s types.LifeStatus) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLifeStatus, s)
	}
	p.lifeStatus = s
	if s != types.Deceased {
		p.deathDate = types.Date{}
	}
	if s == types.Alive {
		p.gestationAge = 0
	}
	if s.IsFetus() {
		p.birthDate = types.Date{}
		p.adopted = false
		p.childless = ""
	}
	return nil
}

// GestationAge returns the gestation age in weeks for a fetus, or 0.
func (p *Person) GestationAge() int {
	if !p.IsFetus() {
		return 0
	}
	return p.gestationAge
}

// SetGestationAge sets the gestation age in weeks. Negative values clear it.
func (p *Person) SetGestationAge(weeks int) {
	if weeks < 0 {
		weeks = 0
	}
	p.gestationAge = weeks
}

// SetAdopted sets the adoption flag. Fetuses are never adopted.
func (p *Person) SetAdopted(v bool) { p.adopted = v && !p.IsFetus() }

// SetChildlessStatus accepts "childless", "infertile", or anything else to
// clear the status.
func (p *Person) SetChildlessStatus(s string) {
	switch s {
	case ChildlessChildless, ChildlessInfertile:
		p.childless = s
	default:
		p.childless = ""
	}
}

// SetCarrierStatus sets the disorder carrier status. "affected" with no
// disorders adds the virtual affected disorder; clearing the status removes
// it again. A person with real disorders cannot have the empty status.
func (p *Person) SetCarrierStatus(status string) error {
	switch status {
	case CarrierNone, CarrierCarrier, CarrierAffected, CarrierPresymptomatic:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCarrier, status)
	}
	n := len(p.disorders)
	switch {
	case n > 0 && status == CarrierNone:
		if n == 1 && p.disorders[0].ID() == AffectedDisorderID {
			p.disorders, _ = removeTerm[*term.Disorder](p.legends.Disorders, p.id, p.disorders, AffectedDisorderID)
		} else {
			status = CarrierAffected
		}
	case n == 0 && status == CarrierAffected:
		p.disorders, _ = addTerm[*term.Disorder](p.legends.Disorders, p.id, p.disorders, term.NewDisorder(AffectedDisorderID, ""))
	}
	p.carrier = status
	return nil
}

// HasDisorder reports whether the person has the disorder with sanitized id.
func (p *Person) HasDisorder(id string) bool {
	for _, d := range p.disorders {
		if d.ID() == id {
			return true
		}
	}
	return false
}

// AddDisorder adds d. Adding a disorder the person already has is a no-op
// that returns ErrDuplicateTerm.
func (p *Person) AddDisorder(d *term.Disorder) error {
	var err error
	p.disorders, err = addTerm[*term.Disorder](p.legends.Disorders, p.id, p.disorders, d)
	if err == nil {
		p.dropVirtualAffected()
	}
	return err
}

// RemoveDisorder removes the disorder with sanitized id, or returns
// ErrMissingTerm.
func (p *Person) RemoveDisorder(id string) error {
	var err error
	p.disorders, err = removeTerm[*term.Disorder](p.legends.Disorders, p.id, p.disorders, id)
	return err
}

// SetDisorders replaces the disorder list. Duplicates in ds are skipped and
// reported in the returned error; the rest of the list is still applied.
func (p *Person) SetDisorders(ds []*term.Disorder) error {
	var err error
	p.disorders, err = replaceTerms[*term.Disorder](p.legends.Disorders, p.id, p.disorders, ds)
	p.dropVirtualAffected()
	return err
}

// dropVirtualAffected removes the "affected" stand-in once a real disorder
// is present.
func (p *Person) dropVirtualAffected() {
	if len(p.disorders) > 1 && p.HasDisorder(AffectedDisorderID) {
		p.disorders, _ = removeTerm[*term.Disorder](p.legends.Disorders, p.id, p.disorders, AffectedDisorderID)
	}
}

// HasHPO reports whether the person has the term with sanitized id.
func (p *Person) HasHPO(id string) bool {
	for _, h := range p.hpo {
		if h.ID() == id {
			return true
		}
	}
	return false
}

// AddHPO adds h, or returns ErrDuplicateTerm.
func (p *Person) AddHPO(h *term.HPOTerm) error {
	var err error
	p.hpo, err = addTerm[*term.HPOTerm](p.legends.HPO, p.id, p.hpo, h)
	return err
}

// RemoveHPO removes the term with sanitized id, or returns ErrMissingTerm.
func (p *Person) RemoveHPO(id string) error {
	var err error
	p.hpo, err = removeTerm[*term.HPOTerm](p.legends.HPO, p.id, p.hpo, id)
	return err
}

// SetHPO replaces the phenotype list.
func (p *Person) SetHPO(hs []*term.HPOTerm) error {
	var err error
	p.hpo, err = replaceTerms[*term.HPOTerm](p.legends.HPO, p.id, p.hpo, hs)
	return err
}

// AddGene adds g, or returns ErrDuplicateTerm when its symbol is present.
func (p *Person) AddGene(g *term.Gene) error {
	var err error
	p.genes, err = addTerm[*term.Gene](p.legends.Genes, p.id, p.genes, g)
	return err
}

// RemoveGene removes the gene with symbol, or returns ErrMissingTerm.
func (p *Person) RemoveGene(symbol string) error {
	var err error
	p.genes, err = removeTerm[*term.Gene](p.legends.Genes, p.id, p.genes, symbol)
	return err
}

// SetGenes replaces the candidate gene list.
func (p *Person) SetGenes(gs []*term.Gene) error {
	var err error
	p.genes, err = replaceTerms[*term.Gene](p.legends.Genes, p.id, p.genes, gs)
	return err
}

// ClearTerms releases every legend case held by the person.
func (p *Person) ClearTerms() {
	p.SetDisorders(nil)
	p.SetHPO(nil)
	p.SetGenes(nil)
}

// OnWidgetHide is called when the node menu stops editing this person.
func (p *Person) OnWidgetHide() { p.selected = false }

// OnWidgetShow is called when the node menu starts editing this person.
func (p *Person) OnWidgetShow() { p.selected = true }

// MakePlaceholder turns the person into an unnamed placeholder node. It
// drops every term and demographic field.
func (p *Person) MakePlaceholder() {
	p.ClearTerms()
	p.reset()
	p.placeholder = true
}

// ClearDemographics blanks the record-derived fields before an external
// record is applied. Phenotype terms are cleared only when withHPO is set.
func (p *Person) ClearDemographics(withHPO bool) {
	p.firstName, p.lastName = "", ""
	p.lifeStatus = types.Alive
	p.birthDate, p.deathDate = types.Date{}, types.Date{}
	p.gender = types.Unknown
	if withHPO {
		p.SetHPO(nil)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
