package pedigree

import (
	"errors"

	"github.com/matthewbaird/pedigree/internal/term"
	"github.com/matthewbaird/pedigree/internal/types"
)

// Properties is the stored form of a Person. Values equal to the defaults
// are omitted. Term lists hold external IDs, and genes hold display names.
type Properties struct {
	Gender          types.Gender     `json:"gender,omitempty"`
	FName           string           `json:"fName,omitempty"`
	LName           string           `json:"lName,omitempty"`
	ExternalID      string           `json:"externalID,omitempty"`
	PhenopacketID   string           `json:"phenopacketID,omitempty"`
	DOB             types.Date       `json:"dob,omitzero"`
	DOD             types.Date       `json:"dod,omitzero"`
	LifeStatus      types.LifeStatus `json:"lifeStatus,omitempty"`
	GestationAge    int              `json:"gestationAge,omitempty"`
	IsAdopted       bool             `json:"isAdopted,omitempty"`
	ChildlessStatus string           `json:"childlessStatus,omitempty"`
	CarrierStatus   string           `json:"carrierStatus,omitempty"`
	Disorders       []string         `json:"disorders,omitempty"`
	HPOTerms        []string         `json:"hpoTerms,omitempty"`
	CandidateGenes  []string         `json:"candidateGenes,omitempty"`
	Comments        string           `json:"comments,omitempty"`
	Evaluated       bool             `json:"evaluated,omitempty"`
	LostContact     bool             `json:"lostContact,omitempty"`
	Placeholder     bool             `json:"placeholder,omitempty"`
}

// Properties returns the stored form of the person.
func (p *Person) Properties() Properties {
	props := Properties{
		FName:           p.firstName,
		LName:           p.lastName,
		ExternalID:      p.ExternalID(),
		PhenopacketID:   p.phenopacketID,
		DOB:             p.birthDate,
		DOD:             p.deathDate,
		GestationAge:    p.GestationAge(),
		IsAdopted:       p.adopted,
		ChildlessStatus: p.childless,
		CarrierStatus:   p.carrier,
		Comments:        p.comments,
		Evaluated:       p.evaluated,
		LostContact:     p.lostContact,
		Placeholder:     p.placeholder,
	}
	if p.gender != types.Unknown {
		props.Gender = p.gender
	}
	if p.lifeStatus != types.Alive {
		props.LifeStatus = p.lifeStatus
	}
	for _, d := range p.disorders {
		props.Disorders = append(props.Disorders, d.ExternalID())
	}
	for _, h := range p.hpo {
		props.HPOTerms = append(props.HPOTerms, h.ExternalID())
	}
	for _, g := range p.genes {
		props.CandidateGenes = append(props.CandidateGenes, g.DisplayName())
	}
	return props
}

// Assign resets the person and applies props. Terms are resolved through
// the session legends, so stored IDs with unknown names start loading.
// The returned error joins any setter warnings; valid fields are applied
// regardless.
func (p *Person) Assign(props Properties) error {
	p.ClearTerms()
	p.reset()
	p.placeholder = props.Placeholder

	p.SetGender(props.Gender)
	p.SetFirstName(props.FName)
	p.SetLastName(props.LName)
	p.SetExternalID(props.ExternalID)
	p.SetPhenopacketID(props.PhenopacketID)

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	collect(p.SetBirthDate(props.DOB))

	disorders := make([]*term.Disorder, 0, len(props.Disorders))
	for _, id := range props.Disorders {
		disorders = append(disorders, p.legends.Disorders.Term(id))
	}
	collect(p.SetDisorders(disorders))

	hpo := make([]*term.HPOTerm, 0, len(props.HPOTerms))
	for _, id := range props.HPOTerms {
		hpo = append(hpo, p.legends.HPO.Term(id))
	}
	collect(p.SetHPO(hpo))

	genes := make([]*term.Gene, 0, len(props.CandidateGenes))
	for _, display := range props.CandidateGenes {
		genes = append(genes, term.ParseGene(display))
	}
	collect(p.SetGenes(genes))

	p.SetAdopted(props.IsAdopted)
	if props.LifeStatus != "" {
		collect(p.SetLifeStatus(props.LifeStatus))
	}
	collect(p.SetDeathDate(props.DOD))
	p.SetGestationAge(props.GestationAge)
	p.SetChildlessStatus(props.ChildlessStatus)
	if props.CarrierStatus != "" {
		collect(p.SetCarrierStatus(props.CarrierStatus))
	}
	p.SetComments(props.Comments)
	p.SetEvaluated(props.Evaluated)
	p.SetLostContact(props.LostContact)
	return errors.Join(errs...)
}
