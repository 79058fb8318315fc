package clinical

// Registry operations. The documents are the contract with the registry's
// GraphQL schema and are sent verbatim.
const (
	opGetGenes = "GetGene"
	qGetGenes  = `
query GetGene {
  gene(where: {source: {_eq: "HGNC"}}) {
    symbol
    hgnc_id
    locus_group
  }
}`

	opGetDisorders = "GetDisorderApi"
	qGetDisorders  = `
query GetDisorderApi {
  disorder_api {
    ontology_id
    name
  }
}`

	opGetHPO = "GetHpoApi"
	qGetHPO  = `
query GetHpoApi {
  hpo {
    id
    name
  }
}`

	opUpsertFamily = "GetFamilyDataForOpenPedigree"
	qUpsertFamily  = `
mutation GetFamilyDataForOpenPedigree($phenopacket_id: uuid!) {
  family: insert_family_one(
    object: {phenopacket_id: $phenopacket_id},
    on_conflict: {constraint: family_phenopacket_id_key, update_columns: [phenopacket_id]}
  ) {
    id
    family_identifier
    cohort_id
    phenopacket {
      individual {
        id
      }
    }
  }
}`

	opInsertCohort = "InsertCohort"
	qInsertCohort  = `
mutation InsertCohort($individual_id: uuid!, $clinical_family_record_identifier: String!) {
  cohort: insert_cohort_one(
    object: {
      name: $clinical_family_record_identifier,
      type: "Family",
      share_status: "Internal",
      cohort_members: {data: {individual_id: $individual_id}}
    }
  ) {
    id
  }
}`

	opUpdateFamilyCohort = "UpdateFamilyCohort"
	qUpdateFamilyCohort  = `
mutation UpdateFamilyCohort($family_id: uuid!, $cohort_id: uuid!) {
  family: update_family_by_pk(pk_columns: {id: $family_id}, _set: {cohort_id: $cohort_id}) {
    id
    cohort_id
    family_identifier
    phenopacket {
      individual {
        id
      }
    }
  }
}`

	opAddCohortMember = "InsertCohortMemberFromOpenPedigree"
	qAddCohortMember  = `
mutation InsertCohortMemberFromOpenPedigree($cohort_id: uuid!, $individual_id: uuid!) {
  cohort_member: insert_cohort_member_one(
    object: {cohort_id: $cohort_id, individual_id: $individual_id},
    on_conflict: {constraint: individual_appears_once_per_cohort, update_columns: []}
  ) {
    id
  }
}`

	opRemoveCohortMember = "RemoveCohortMemberFromOpenPedigree"
	qRemoveCohortMember  = `
mutation RemoveCohortMemberFromOpenPedigree($cohortId: uuid!, $phenopacketId: uuid!) {
  cohort_member: delete_cohort_member(
    where: {_and: {cohort_id: {_eq: $cohortId}, individual: {phenopacket_id: {_eq: $phenopacketId}}}}
  ) {
    affected_rows
  }
}`

	opGetPedigree = "GetOpenPedigreeData"
	qGetPedigree  = `
query GetOpenPedigreeData($phenopacketId: uuid!) {
  pedigree: family(where: {phenopacket_id: {_eq: $phenopacketId}}) {
    id
    rawData: raw_open_pedigree_data
  }
}`

	opSavePedigree = "UpdateOpenPedigreeData"
	qSavePedigree  = `
mutation UpdateOpenPedigreeData($phenopacketId: uuid!, $rawData: jsonb!) {
  insert_family_one(
    object: {phenopacket_id: $phenopacketId, raw_open_pedigree_data: $rawData},
    on_conflict: {constraint: family_phenopacket_id_key, update_columns: raw_open_pedigree_data}
  ) {
    id
  }
}`

	opGetDemographics = "GetDemographics"
	qGetDemographics  = `
query GetDemographics($primaryIdentifier: String!) {
  individual(where: {primary_identifier: {_eq: $primaryIdentifier}}) {
    id
    date_of_birth
    date_of_death
    deceased
    first_name
    last_name
    primary_identifier
    sex
    phenopacket_id
    phenopacket {
      phenotypic_features(where: {presence: {_eq: "PRESENT"}}) {
        hpo {
          id
          name
        }
      }
      genomic_interpretations {
        display_text
        report_category
        pathogenicity_text
        pathogenicity_score
      }
    }
  }
}`

	opGetSpine = "GetPatientDemographicsFromSpine"
	qGetSpine  = `
query GetPatientDemographicsFromSpine($nhsNumber: String!) {
  individual: getPatientFromFHIR(id: $nhsNumber) {
    birthDate
    deceased
    deceasedDateTime
    name {
      use
      given
      family
      period {
        start
      }
    }
    gender
  }
}`

	opInsertPhenopacket = "InsertPhenopacket"
	qInsertPhenopacket  = `
mutation InsertPhenopacket {
  phenopacket: insert_phenopacket_one(object: {}) {
    id
  }
}`

	opReplaceFeatures = "UpdatePhenotypicFeaturesViaPedigree"
	qReplaceFeatures  = `
mutation UpdatePhenotypicFeaturesViaPedigree(
  $phenopacketId: uuid!,
  $hpoTerms: [hpo_insert_input!]! = {},
  $linkedHpoTerms: [phenotypic_feature_insert_input!]! = {},
  $linkedHpoIds: [String!]! = ""
) {
  insert_hpo(objects: $hpoTerms, on_conflict: {constraint: hpo_pkey, update_columns: []}) {
    affected_rows
  }
  insert_phenotypic_feature(
    objects: $linkedHpoTerms,
    on_conflict: {constraint: phenotypic_feature_hpo_id_phenopacket_id_key, update_columns: []}
  ) {
    affected_rows
  }
  delete_phenotypic_feature(
    where: {hpo_id: {_nin: $linkedHpoIds}, _and: {phenopacket_id: {_eq: $phenopacketId}}}
  ) {
    affected_rows
  }
}`

	opInsertInterpretation = "InsertInterpretation"
	qInsertInterpretation  = `
mutation InsertInterpretation($phenopacket_id: uuid!, $specialty_id: uuid!) {
  interpretation: insert_interpretation_one(
    object: {phenopacket_id: $phenopacket_id, specialty_id: $specialty_id}
  ) {
    id
  }
}`

	opGetCaseStatus = "GetCaseStatus"
	qGetCaseStatus  = `
query GetCaseStatus($status: String! = "Referred") {
  case_status(where: {status: {_eq: $status}}) {
    id
  }
}`

	opAddCaseHistory = "AddCaseStatus"
	qAddCaseHistory  = `
mutation AddCaseStatus($phenopacket_id: uuid!, $case_status_id: uuid!, $notes: String) {
  case_history: insert_case_history_one(
    object: {phenopacket_id: $phenopacket_id, case_status_id: $case_status_id, notes: $notes}
  ) {
    id
  }
}`

	opUpsertIndividual = "UpsertIndividual"
	qUpsertIndividual  = `
mutation UpsertIndividual(
  $primary_identifier: String!,
  $phenopacket_id: uuid!,
  $first_name: String,
  $last_name: String,
  $deceased: Boolean,
  $date_of_birth: date,
  $date_of_death: date,
  $sex: sex
) {
  individual: insert_individual_one(
    object: {
      primary_identifier: $primary_identifier,
      phenopacket_id: $phenopacket_id,
      first_name: $first_name,
      last_name: $last_name,
      deceased: $deceased,
      date_of_birth: $date_of_birth,
      date_of_death: $date_of_death,
      sex: $sex
    },
    on_conflict: {
      constraint: individual_primary_identifier_key,
      update_columns: [first_name, last_name, deceased, date_of_birth, date_of_death, sex]
    }
  ) {
    id
  }
}`
)
