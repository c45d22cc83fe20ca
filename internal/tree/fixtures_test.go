package tree

import (
	"gedtree/pkg/domain"
)

type personSpec struct {
	id      domain.PersonID
	given   string
	surname string
	suffix  string
	childOf domain.FamilyID
	spouse  []domain.FamilyID
	birth   *domain.Event
}

type familySpec struct {
	id       domain.FamilyID
	husband  domain.PersonID
	wife     domain.PersonID
	children []domain.PersonID
	marriage *domain.Event
}

func buildTree(persons []personSpec, families []familySpec) *Tree {
	b := NewBuilder()
	for _, ps := range persons {
		p := b.Person(ps.id)
		p.Given, p.Surname, p.Suffix = ps.given, ps.surname, ps.suffix
		p.ChildOf = ps.childOf
		p.SpouseOf = append(p.SpouseOf, ps.spouse...)
		p.Birth = ps.birth
	}
	for _, fs := range families {
		f := b.Family(fs.id)
		f.Spouse1, f.Spouse2 = fs.husband, fs.wife
		f.Children = append(f.Children, fs.children...)
		f.Marriage = fs.marriage
	}
	return b.Build()
}

// kennedyTree is a four-generation fixture:
//
//	F0: I10 + I11 -> I1, I12
//	F1: I1 + I2 (m. 7 OCT 1914 Boston) -> I3, I4, I5
//	F5: I12 + I18 -> I19
//	F2: I3 + I6 -> I7, I8
//	F3: I4 + I9 -> I13, I14, I15
//	F4: I16 + I5 -> I17
//	F6: I20 + I19 -> I21
func kennedyTree() *Tree {
	return buildTree(
		[]personSpec{
			{id: "I10", given: "Patrick", surname: "Kennedy", spouse: []domain.FamilyID{"F0"}},
			{id: "I11", given: "Mary", surname: "Hickey", spouse: []domain.FamilyID{"F0"}},
			{id: "I1", given: "Joseph Patrick", surname: "Kennedy", childOf: "F0", spouse: []domain.FamilyID{"F1"}, birth: &domain.Event{Date: "6 SEP 1888", Place: "Boston"}},
			{id: "I12", given: "Loretta", surname: "Kennedy", childOf: "F0", spouse: []domain.FamilyID{"F5"}},
			{id: "I2", given: "Rose", surname: "Fitzgerald", spouse: []domain.FamilyID{"F1"}},
			{id: "I18", given: "George", surname: "Connelly", spouse: []domain.FamilyID{"F5"}},
			{id: "I3", given: "John Fitzgerald", surname: "Kennedy", childOf: "F1", spouse: []domain.FamilyID{"F2"}},
			{id: "I4", given: "Robert Francis", surname: "Kennedy", childOf: "F1", spouse: []domain.FamilyID{"F3"}},
			{id: "I5", given: "Eunice", surname: "Kennedy", childOf: "F1", spouse: []domain.FamilyID{"F4"}},
			{id: "I6", given: "Jacqueline", surname: "Bouvier", spouse: []domain.FamilyID{"F2"}},
			{id: "I9", given: "Ethel", surname: "Skakel", spouse: []domain.FamilyID{"F3"}},
			{id: "I16", given: "Sargent", surname: "Shriver", spouse: []domain.FamilyID{"F4"}},
			{id: "I19", given: "Mary Lou", surname: "Connelly", childOf: "F5", spouse: []domain.FamilyID{"F6"}},
			{id: "I20", given: "Paul", surname: "Doyle", spouse: []domain.FamilyID{"F6"}},
			{id: "I7", given: "Caroline", surname: "Kennedy", childOf: "F2"},
			{id: "I8", given: "John Fitzgerald", surname: "Kennedy", suffix: "Jr.", childOf: "F2"},
			{id: "I13", given: "Kathleen", surname: "Kennedy", childOf: "F3"},
			{id: "I14", given: "Joseph Patrick", surname: "Kennedy", suffix: "II", childOf: "F3"},
			{id: "I15", given: "Robert Francis", surname: "Kennedy", suffix: "Jr.", childOf: "F3"},
			{id: "I17", given: "Maria", surname: "Shriver", childOf: "F4"},
			{id: "I21", given: "Anne", surname: "Doyle", childOf: "F6"},
		},
		[]familySpec{
			{id: "F0", husband: "I10", wife: "I11", children: []domain.PersonID{"I1", "I12"}},
			{id: "F1", husband: "I1", wife: "I2", children: []domain.PersonID{"I3", "I4", "I5"}, marriage: &domain.Event{Date: "7 OCT 1914", Place: "Boston"}},
			{id: "F2", husband: "I3", wife: "I6", children: []domain.PersonID{"I7", "I8"}},
			{id: "F3", husband: "I4", wife: "I9", children: []domain.PersonID{"I13", "I14", "I15"}},
			{id: "F4", husband: "I16", wife: "I5", children: []domain.PersonID{"I17"}},
			{id: "F5", husband: "I18", wife: "I12", children: []domain.PersonID{"I19"}},
			{id: "F6", husband: "I20", wife: "I19", children: []domain.PersonID{"I21"}},
		},
	)
}

// remarriageTree gives I1 two spouse-families with different children and a
// sister whose son is their first cousin:
//
//	F0: I9 + I10 -> I1, I6
//	F1: I1 + I2 (m. 11 JUN 1509 Greenwich) -> I4
//	F2: I1 + I3 -> I5
//	F3: I7 + I6 -> I8
//	F4: I11 + I4 -> I12
func remarriageTree() *Tree {
	return buildTree(
		[]personSpec{
			{id: "I9", given: "Henry", surname: "Tudor", suffix: "VII", spouse: []domain.FamilyID{"F0"}},
			{id: "I10", given: "Elizabeth", surname: "York", spouse: []domain.FamilyID{"F0"}},
			{id: "I1", given: "Henry", surname: "Tudor", childOf: "F0", spouse: []domain.FamilyID{"F1", "F2"}},
			{id: "I6", given: "Margaret", surname: "Tudor", childOf: "F0", spouse: []domain.FamilyID{"F3"}},
			{id: "I2", given: "Catherine", surname: "Aragon", spouse: []domain.FamilyID{"F1"}},
			{id: "I3", given: "Anne", surname: "Boleyn", spouse: []domain.FamilyID{"F2"}},
			{id: "I7", given: "James", surname: "Stewart", spouse: []domain.FamilyID{"F3"}},
			{id: "I4", given: "Mary", surname: "Tudor", childOf: "F1", spouse: []domain.FamilyID{"F4"}},
			{id: "I5", given: "Elizabeth", surname: "Tudor", childOf: "F2"},
			{id: "I8", given: "James", surname: "Stewart", suffix: "V", childOf: "F3"},
			{id: "I11", given: "Philip", surname: "Habsburg", spouse: []domain.FamilyID{"F4"}},
			{id: "I12", given: "Carlos", surname: "Habsburg", childOf: "F4"},
		},
		[]familySpec{
			{id: "F0", husband: "I9", wife: "I10", children: []domain.PersonID{"I1", "I6"}},
			{id: "F1", husband: "I1", wife: "I2", children: []domain.PersonID{"I4"}, marriage: &domain.Event{Date: "11 JUN 1509", Place: "Greenwich"}},
			{id: "F2", husband: "I1", wife: "I3", children: []domain.PersonID{"I5"}},
			{id: "F3", husband: "I7", wife: "I6", children: []domain.PersonID{"I8"}},
			{id: "F4", husband: "I11", wife: "I4", children: []domain.PersonID{"I12"}},
		},
	)
}
