package pedigree

import (
	"strconv"

	"github.com/matthewbaird/pedigree/internal/types"
)

// Summary returns the menu view of the person. Fields whose availability
// depends on other properties carry inactive or disabled specs.
func (p *Person) Summary() Summary {
	fetus := p.IsFetus()

	var inactiveStates *Exclusion
	if p.relations.HasRelationships {
		inactiveStates = ExcludeValues(types.FetalStatuses...)
	} else {
		inactiveStates = ExcludeNone()
	}

	inactiveGenders := ExcludeNone()
	if len(p.relations.ImpossibleGenders) > 0 {
		inactiveGenders = ExcludeValues(p.relations.ImpossibleGenders...)
	}

	var carrierDisabled []string
	if n := len(p.disorders); n > 0 && (n != 1 || p.disorders[0].ID() != AffectedDisorderID) {
		carrierDisabled = append(carrierDisabled, CarrierNone)
	}
	if p.lifeStatus == types.Aborted || p.lifeStatus == types.Miscarriage {
		carrierDisabled = append(carrierDisabled, CarrierPresymptomatic)
	}

	gestation := ""
	if age := p.GestationAge(); age > 0 {
		gestation = strconv.Itoa(age)
	}
	childless := p.childless
	if childless == "" {
		childless = ChildlessNone
	}

	return Summary{
		FieldIdentifier:    {Value: p.id},
		FieldFirstName:     {Value: p.firstName},
		FieldLastName:      {Value: p.lastName},
		FieldExternalID:    {Value: p.ExternalID()},
		FieldPhenopacketID: {Value: p.phenopacketID},
		FieldGender:        {Value: string(p.gender), Inactive: inactiveGenders},
		FieldBirthDate:     {Value: p.birthDate, Inactive: ExcludeIf(fetus)},
		FieldCarrier:       {Value: p.carrier, Disabled: ExcludeValues(carrierDisabled...)},
		FieldDisorders:     {Value: p.disorders},
		FieldGenes:         {Value: p.genes},
		FieldAdopted:       {Value: p.adopted, Inactive: ExcludeIf(fetus || p.relations.MustBeAdopted)},
		FieldLifeState:     {Value: string(p.lifeStatus), Inactive: inactiveStates},
		FieldDeathDate:     {Value: p.deathDate, Inactive: ExcludeIf(fetus)},
		FieldComments:      {Value: p.comments, Inactive: ExcludeNone()},
		FieldGestationAge:  {Value: gestation, Inactive: ExcludeIf(!fetus)},
		FieldChildless:     {Value: childless, Inactive: ExcludeIf(fetus)},
		FieldPlaceholder:   {Value: false, Inactive: ExcludeAll()},
		FieldEvaluated:     {Value: p.evaluated},
		FieldHPO:           {Value: p.hpo},
		FieldNoContact:     {Value: p.lostContact, Inactive: ExcludeIf(p.relations.Proband || !p.relations.RelatedToProband)},
	}
}
