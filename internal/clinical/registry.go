// Package clinical wraps the clinical registry's GraphQL operations: patient
// demographics, the national spine fallback, record creation, family
// cohorts and the stored pedigree.
package clinical

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matthewbaird/pedigree/internal/graphql"
)

// DefaultCaseStatus is the status of the first case-history entry.
const DefaultCaseStatus = "Referred"

// ErrNoID is returned when a mutation reply carries no record ID.
var ErrNoID = errors.New("clinical: reply has no record id")

// Registry issues registry operations through a Submitter.
type Registry struct {
	gql graphql.Submitter
}

// NewRegistry returns a Registry using s.
func NewRegistry(s graphql.Submitter) *Registry { return &Registry{gql: s} }

func request(op, query string, vars map[string]any) graphql.Request {
	return graphql.Request{Query: query, OperationName: op, Variables: vars}
}

type idRow struct {
	ID string `json:"id"`
}

func (r *idRow) get(op string) (string, error) {
	if r == nil || r.ID == "" {
		return "", fmt.Errorf("%w: %s", ErrNoID, op)
	}
	return r.ID, nil
}

// Genes returns the HGNC gene catalog.
func (r *Registry) Genes(ctx context.Context) ([]GeneOption, error) {
	data, err := graphql.Do[struct {
		Gene []GeneOption `json:"gene"`
	}](ctx, r.gql, request(opGetGenes, qGetGenes, nil))
	if err != nil {
		return nil, err
	}
	return data.Gene, nil
}

// Disorders returns the disorder catalog.
func (r *Registry) Disorders(ctx context.Context) ([]DisorderOption, error) {
	data, err := graphql.Do[struct {
		Disorders []DisorderOption `json:"disorder_api"`
	}](ctx, r.gql, request(opGetDisorders, qGetDisorders, nil))
	if err != nil {
		return nil, err
	}
	return data.Disorders, nil
}

// HPOTerms returns the phenotype catalog.
func (r *Registry) HPOTerms(ctx context.Context) ([]HPOOption, error) {
	data, err := graphql.Do[struct {
		HPO []HPOOption `json:"hpo"`
	}](ctx, r.gql, request(opGetHPO, qGetHPO, nil))
	if err != nil {
		return nil, err
	}
	return data.HPO, nil
}

type familyData struct {
	Family *Family `json:"family"`
}

// Family returns the family of a phenopacket, creating it when absent.
func (r *Registry) Family(ctx context.Context, phenopacketID string) (Family, error) {
	data, err := graphql.Do[familyData](ctx, r.gql, request(opUpsertFamily, qUpsertFamily,
		map[string]any{"phenopacket_id": phenopacketID}))
	if err != nil {
		return Family{}, err
	}
	if data.Family == nil {
		return Family{}, fmt.Errorf("%w: %s", ErrNoID, opUpsertFamily)
	}
	return *data.Family, nil
}

// FamilyCohort returns the family of a phenopacket with its cohort. A
// family without one gets a new Family cohort seeded with the family's own
// individual.
func (r *Registry) FamilyCohort(ctx context.Context, phenopacketID string) (Family, error) {
	fam, err := r.Family(ctx, phenopacketID)
	if err != nil {
		return Family{}, fmt.Errorf("family: %w", err)
	}
	if fam.CohortID != "" {
		return fam, nil
	}

	cohort, err := graphql.Do[struct {
		Cohort *idRow `json:"cohort"`
	}](ctx, r.gql, request(opInsertCohort, qInsertCohort, map[string]any{
		"individual_id":                     fam.IndividualID(),
		"clinical_family_record_identifier": fam.FamilyIdentifier,
	}))
	if err != nil {
		return Family{}, fmt.Errorf("insert cohort: %w", err)
	}
	cohortID, err := cohort.Cohort.get(opInsertCohort)
	if err != nil {
		return Family{}, err
	}

	updated, err := graphql.Do[familyData](ctx, r.gql, request(opUpdateFamilyCohort, qUpdateFamilyCohort,
		map[string]any{"family_id": fam.ID, "cohort_id": cohortID}))
	if err != nil {
		return Family{}, fmt.Errorf("link cohort: %w", err)
	}
	if updated.Family == nil {
		return Family{}, fmt.Errorf("%w: %s", ErrNoID, opUpdateFamilyCohort)
	}
	return *updated.Family, nil
}

// AddCohortMember adds an individual to a cohort. Adding an existing member
// is a no-op on the registry side and returns no ID.
func (r *Registry) AddCohortMember(ctx context.Context, cohortID, individualID string) (string, error) {
	data, err := graphql.Do[struct {
		Member *idRow `json:"cohort_member"`
	}](ctx, r.gql, request(opAddCohortMember, qAddCohortMember,
		map[string]any{"cohort_id": cohortID, "individual_id": individualID}))
	if err != nil {
		return "", err
	}
	return data.Member.get(opAddCohortMember)
}

// RemoveCohortMember removes the individual of a phenopacket from a cohort
// and returns the number of rows removed.
func (r *Registry) RemoveCohortMember(ctx context.Context, cohortID, phenopacketID string) (int, error) {
	data, err := graphql.Do[struct {
		Member struct {
			AffectedRows int `json:"affected_rows"`
		} `json:"cohort_member"`
	}](ctx, r.gql, request(opRemoveCohortMember, qRemoveCohortMember,
		map[string]any{"cohortId": cohortID, "phenopacketId": phenopacketID}))
	if err != nil {
		return 0, err
	}
	return data.Member.AffectedRows, nil
}

// PedigreeData returns the stored pedigree export, or nil if none.
func (r *Registry) PedigreeData(ctx context.Context, phenopacketID string) (json.RawMessage, error) {
	data, err := graphql.Do[struct {
		Pedigree []struct {
			RawData *pedigreeBlob `json:"rawData"`
		} `json:"pedigree"`
	}](ctx, r.gql, request(opGetPedigree, qGetPedigree, map[string]any{"phenopacketId": phenopacketID}))
	if err != nil {
		return nil, err
	}
	if len(data.Pedigree) == 0 || data.Pedigree[0].RawData == nil {
		return nil, nil
	}
	raw := data.Pedigree[0].RawData.JSONData
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return raw, nil
}

// SavePedigreeData stores a pedigree export.
func (r *Registry) SavePedigreeData(ctx context.Context, phenopacketID string, doc json.RawMessage) error {
	_, err := graphql.Do[json.RawMessage](ctx, r.gql, request(opSavePedigree, qSavePedigree, map[string]any{
		"phenopacketId": phenopacketID,
		"rawData":       pedigreeBlob{JSONData: doc},
	}))
	return err
}

// Demographics looks up a registry patient by normalized NHS number.
func (r *Registry) Demographics(ctx context.Context, nhsNumber string) (Individual, bool, error) {
	data, err := graphql.Do[struct {
		Individual []Individual `json:"individual"`
	}](ctx, r.gql, request(opGetDemographics, qGetDemographics, map[string]any{"primaryIdentifier": nhsNumber}))
	if err != nil {
		return Individual{}, false, err
	}
	if len(data.Individual) == 0 {
		return Individual{}, false, nil
	}
	return data.Individual[0], true, nil
}

// SpineDemographics looks up a patient on the national spine.
func (r *Registry) SpineDemographics(ctx context.Context, nhsNumber string) (SpinePatient, bool, error) {
	data, err := graphql.Do[struct {
		Individual *SpinePatient `json:"individual"`
	}](ctx, r.gql, request(opGetSpine, qGetSpine, map[string]any{"nhsNumber": nhsNumber}))
	if err != nil {
		return SpinePatient{}, false, err
	}
	if data.Individual == nil {
		return SpinePatient{}, false, nil
	}
	return *data.Individual, true, nil
}

// InsertPhenopacket creates an empty phenopacket.
func (r *Registry) InsertPhenopacket(ctx context.Context) (string, error) {
	data, err := graphql.Do[struct {
		Phenopacket *idRow `json:"phenopacket"`
	}](ctx, r.gql, request(opInsertPhenopacket, qInsertPhenopacket, nil))
	if err != nil {
		return "", err
	}
	return data.Phenopacket.get(opInsertPhenopacket)
}

// UpsertIndividual creates or updates the individual with in's NHS number.
func (r *Registry) UpsertIndividual(ctx context.Context, in IndividualInput) (string, error) {
	data, err := graphql.Do[struct {
		Individual *idRow `json:"individual"`
	}](ctx, r.gql, request(opUpsertIndividual, qUpsertIndividual, in.variables()))
	if err != nil {
		return "", err
	}
	return data.Individual.get(opUpsertIndividual)
}

// InsertInterpretation creates an interpretation in a specialty.
func (r *Registry) InsertInterpretation(ctx context.Context, phenopacketID, specialtyID string) (string, error) {
	data, err := graphql.Do[struct {
		Interpretation *idRow `json:"interpretation"`
	}](ctx, r.gql, request(opInsertInterpretation, qInsertInterpretation,
		map[string]any{"phenopacket_id": phenopacketID, "specialty_id": specialtyID}))
	if err != nil {
		return "", err
	}
	return data.Interpretation.get(opInsertInterpretation)
}

// AddCaseHistory resolves status and adds a case-history entry with it.
func (r *Registry) AddCaseHistory(ctx context.Context, phenopacketID, status, notes string) (string, error) {
	statuses, err := graphql.Do[struct {
		CaseStatus []idRow `json:"case_status"`
	}](ctx, r.gql, request(opGetCaseStatus, qGetCaseStatus, map[string]any{"status": status}))
	if err != nil {
		return "", fmt.Errorf("case status: %w", err)
	}
	if len(statuses.CaseStatus) == 0 {
		return "", fmt.Errorf("%w: case status %q", ErrNoID, status)
	}

	data, err := graphql.Do[struct {
		CaseHistory *idRow `json:"case_history"`
	}](ctx, r.gql, request(opAddCaseHistory, qAddCaseHistory, map[string]any{
		"phenopacket_id": phenopacketID,
		"case_status_id": statuses.CaseStatus[0].ID,
		"notes":          notes,
	}))
	if err != nil {
		return "", err
	}
	return data.CaseHistory.get(opAddCaseHistory)
}

// ReplacePhenotypicFeatures makes terms the full set of present phenotypes
// of a phenopacket.
func (r *Registry) ReplacePhenotypicFeatures(ctx context.Context, phenopacketID string, terms []HPOOption) error {
	linked := make([]map[string]any, 0, len(terms))
	ids := make([]string, 0, len(terms))
	for _, t := range terms {
		linked = append(linked, map[string]any{"phenopacket_id": phenopacketID, "hpo_id": t.ID, "presence": "PRESENT"})
		ids = append(ids, t.ID)
	}
	_, err := graphql.Do[json.RawMessage](ctx, r.gql, request(opReplaceFeatures, qReplaceFeatures, map[string]any{
		"phenopacketId":  phenopacketID,
		"hpoTerms":       terms,
		"linkedHpoTerms": linked,
		"linkedHpoIds":   ids,
	}))
	return err
}
