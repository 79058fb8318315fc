package pedigree

// Summary field names.
const (
	FieldIdentifier    = "identifier"
	FieldFirstName     = "first_name"
	FieldLastName      = "last_name"
	FieldExternalID    = "external_id"
	FieldPhenopacketID = "phenopacket_id"
	FieldGender        = "gender"
	FieldBirthDate     = "date_of_birth"
	FieldDeathDate     = "date_of_death"
	FieldLifeState     = "state"
	FieldGestationAge  = "gestation_age"
	FieldCarrier       = "carrier"
	FieldDisorders     = "disorders"
	FieldHPO           = "hpo_positive"
	FieldGenes         = "candidate_genes"
	FieldAdopted       = "adopted"
	FieldChildless     = "childlessSelect"
	FieldEvaluated     = "evaluated"
	FieldNoContact     = "nocontact"
	FieldPlaceholder   = "placeholder"
	FieldComments      = "comments"
)

// Mutator names. Names starting with "set" go through SetProperty; the rest
// are graph modifications.
const (
	SetFirstName       = "setFirstName"
	SetLastName        = "setLastName"
	SetExternalID      = "setExternalID"
	SetPhenopacketID   = "setPhenopacketID"
	SetGender          = "setGender"
	SetBirthDate       = "setBirthDate"
	SetDeathDate       = "setDeathDate"
	SetLifeStatus      = "setLifeStatus"
	SetGestationAge    = "setGestationAge"
	SetCarrierStatus   = "setCarrierStatus"
	SetDisorders       = "setDisorders"
	SetHPO             = "setHPO"
	SetGenes           = "setGenes"
	SetAdopted         = "setAdopted"
	SetChildlessStatus = "setChildlessStatus"
	SetEvaluated       = "setEvaluated"
	SetLostContact     = "setLostContact"
	SetComments        = "setComments"

	MakePlaceholder = "makePlaceholder"
)

// Carrier statuses.
const (
	CarrierNone           = ""
	CarrierCarrier        = "carrier"
	CarrierAffected       = "affected"
	CarrierPresymptomatic = "presymptomatic"
)

// AffectedDisorderID is the virtual disorder standing in for "affected, no
// known disorder".
const AffectedDisorderID = "affected"

// Childless statuses. The menu shows "none" for no status.
const (
	ChildlessNone      = "none"
	ChildlessChildless = "childless"
	ChildlessInfertile = "infertile"
)
