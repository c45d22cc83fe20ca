package tree

import (
	"fmt"
	"slices"

	"gedtree/pkg/domain"
)

const (
	ruleDanglingReference = "dangling_reference"
	ruleSelfLineage       = "self_lineage"
	ruleUnreciprocated    = "unreciprocated_link"
	ruleDuplicateChild    = "duplicate_child"
)

// CheckIntegrity reports dangling references and inconsistent links in a
// loaded tree. A well-formed file yields no violations. Results are ordered
// by persons then families, each sorted by identifier.
func CheckIntegrity(t *Tree) []domain.Violation {
	var out []domain.Violation

	for _, id := range t.personIDs {
		p := t.persons[id]
		for _, famID := range p.SpouseOf {
			fam, ok := t.families[famID]
			if !ok {
				out = append(out, personViolation(ruleDanglingReference, domain.SeverityBlock, id, fmt.Sprintf("person %s is spouse in missing family %s", id, famID)))
				continue
			}
			if fam.Spouse1 != id && fam.Spouse2 != id {
				out = append(out, personViolation(ruleUnreciprocated, domain.SeverityWarn, id, fmt.Sprintf("person %s lists family %s which does not name them as spouse", id, famID)))
			}
			if p.ChildOf == famID {
				out = append(out, personViolation(ruleSelfLineage, domain.SeverityBlock, id, fmt.Sprintf("person %s is both spouse and child in family %s", id, famID)))
			}
		}
		if p.ChildOf == "" {
			continue
		}
		fam, ok := t.families[p.ChildOf]
		if !ok {
			out = append(out, personViolation(ruleDanglingReference, domain.SeverityBlock, id, fmt.Sprintf("person %s is child of missing family %s", id, p.ChildOf)))
			continue
		}
		if !slices.Contains(fam.Children, id) {
			out = append(out, personViolation(ruleUnreciprocated, domain.SeverityWarn, id, fmt.Sprintf("person %s names family %s which does not list them as child", id, p.ChildOf)))
		}
	}

	for _, id := range t.familyIDs {
		fam := t.families[id]
		checkSpouse := func(role string, pid domain.PersonID) {
			if pid == "" {
				return
			}
			p, ok := t.persons[pid]
			if !ok {
				out = append(out, familyViolation(ruleDanglingReference, domain.SeverityBlock, id, fmt.Sprintf("family %s references missing %s %s", id, role, pid)))
				return
			}
			if !slices.Contains(p.SpouseOf, id) {
				out = append(out, familyViolation(ruleUnreciprocated, domain.SeverityWarn, id, fmt.Sprintf("family %s names %s %s who does not list it", id, role, pid)))
			}
		}
		checkSpouse("husband", fam.Spouse1)
		checkSpouse("wife", fam.Spouse2)

		seen := make(map[domain.PersonID]struct{}, len(fam.Children))
		for _, child := range fam.Children {
			if _, dup := seen[child]; dup {
				out = append(out, familyViolation(ruleDuplicateChild, domain.SeverityWarn, id, fmt.Sprintf("family %s lists child %s multiple times", id, child)))
				continue
			}
			seen[child] = struct{}{}
			p, ok := t.persons[child]
			if !ok {
				out = append(out, familyViolation(ruleDanglingReference, domain.SeverityBlock, id, fmt.Sprintf("family %s references missing child %s", id, child)))
				continue
			}
			if p.ChildOf != id {
				out = append(out, familyViolation(ruleUnreciprocated, domain.SeverityWarn, id, fmt.Sprintf("family %s lists child %s whose family of origin is %q", id, child, p.ChildOf)))
			}
		}
	}
	return out
}

func personViolation(rule string, sev domain.Severity, id domain.PersonID, msg string) domain.Violation {
	return domain.Violation{Rule: rule, Severity: sev, Message: msg, Entity: domain.EntityPerson, EntityID: string(id)}
}

func familyViolation(rule string, sev domain.Severity, id domain.FamilyID, msg string) domain.Violation {
	return domain.Violation{Rule: rule, Severity: sev, Message: msg, Entity: domain.EntityFamily, EntityID: string(id)}
}
