package clinical

import (
	"encoding/json"

	"github.com/matthewbaird/pedigree/internal/types"
)

// GeneOption is one gene of the picker catalog.
type GeneOption struct {
	Symbol     string `json:"symbol"`
	HGNCID     string `json:"hgnc_id"`
	LocusGroup string `json:"locus_group"`
}

// DisorderOption is one disorder of the picker catalog.
type DisorderOption struct {
	OntologyID string `json:"ontology_id"`
	Name       string `json:"name"`
}

// HPOOption is one phenotype term, both in the picker catalog and on a
// phenopacket.
type HPOOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Family is the registry family row behind a pedigree.
type Family struct {
	ID               string `json:"id"`
	FamilyIdentifier string `json:"family_identifier"`
	CohortID         string `json:"cohort_id"`
	Phenopacket      struct {
		Individual struct {
			ID string `json:"id"`
		} `json:"individual"`
	} `json:"phenopacket"`
}

// IndividualID returns the individual of the family's own phenopacket.
func (f Family) IndividualID() string { return f.Phenopacket.Individual.ID }

// GenomicInterpretation is one reported genomic finding.
type GenomicInterpretation struct {
	DisplayText        string   `json:"display_text"`
	ReportCategory     string   `json:"report_category"`
	PathogenicityText  string   `json:"pathogenicity_text"`
	PathogenicityScore *float64 `json:"pathogenicity_score"`
}

// Individual is a registry patient record.
type Individual struct {
	ID                string     `json:"id"`
	PrimaryIdentifier string     `json:"primary_identifier"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Deceased          bool       `json:"deceased"`
	DateOfBirth       types.Date `json:"date_of_birth"`
	DateOfDeath       types.Date `json:"date_of_death"`
	Sex               string     `json:"sex"`
	PhenopacketID     string     `json:"phenopacket_id"`
	Phenopacket       struct {
		PhenotypicFeatures []struct {
			HPO HPOOption `json:"hpo"`
		} `json:"phenotypic_features"`
		GenomicInterpretations []GenomicInterpretation `json:"genomic_interpretations"`
	} `json:"phenopacket"`
}

// LifeStatus maps the deceased flag to a life status.
func (i Individual) LifeStatus() types.LifeStatus {
	return types.LifeStatusFromDeceased(i.Deceased)
}

// Phenotypes returns the present phenotype terms.
func (i Individual) Phenotypes() []HPOOption {
	out := make([]HPOOption, 0, len(i.Phenopacket.PhenotypicFeatures))
	for _, f := range i.Phenopacket.PhenotypicFeatures {
		out = append(out, f.HPO)
	}
	return out
}

// HumanName is a FHIR name entry.
type HumanName struct {
	Use    string   `json:"use"`
	Given  []string `json:"given"`
	Family string   `json:"family"`
	Period struct {
		Start string `json:"start"`
	} `json:"period"`
}

// FirstGiven returns the first given name, or "".
func (n HumanName) FirstGiven() string {
	if len(n.Given) == 0 {
		return ""
	}
	return n.Given[0]
}

// SpinePatient is a national spine demographic record.
type SpinePatient struct {
	BirthDate        types.Date  `json:"birthDate"`
	Deceased         bool        `json:"deceased"`
	DeceasedDateTime types.Date  `json:"deceasedDateTime"`
	Name             []HumanName `json:"name"`
	Gender           string      `json:"gender"`
}

// IndividualInput is the upsert payload for an individual.
type IndividualInput struct {
	PrimaryIdentifier string
	PhenopacketID     string
	FirstName         string
	LastName          string
	Deceased          bool
	DateOfBirth       types.Date
	DateOfDeath       types.Date
	Sex               string
}

func (in IndividualInput) variables() map[string]any {
	return map[string]any{
		"primary_identifier": in.PrimaryIdentifier,
		"phenopacket_id":     in.PhenopacketID,
		"first_name":         in.FirstName,
		"last_name":          in.LastName,
		"deceased":           in.Deceased,
		"date_of_birth":      in.DateOfBirth,
		"date_of_death":      in.DateOfDeath,
		"sex":                in.Sex,
	}
}

// pedigreeBlob is the stored wrapper around the exported graph.
type pedigreeBlob struct {
	JSONData json.RawMessage `json:"jsonData"`
}
