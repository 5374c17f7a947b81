package model

import "strings"

// FormOption is an alternate-form button for the detail view.
type FormOption struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// AlternateForms lists the species varieties that can be switched to from
// the current entity. Nothing is offered unless the species has more than one
// variety, and the variety currently shown is always excluded.
func AlternateForms(current *EntityDetail, species *SpeciesDetail) []FormOption {
	if current == nil || species == nil || len(species.Varieties) <= 1 {
		return nil
	}
	var forms []FormOption
	for _, v := range species.Varieties {
		if v.Pokemon.Name == current.Name {
			continue
		}
		forms = append(forms, FormOption{Name: v.Pokemon.Name, Label: formLabel(v)})
	}
	return forms
}

func formLabel(v Variety) string {
	if v.IsDefault {
		return "Base"
	}
	parts := strings.Split(v.Pokemon.Name, "-")
	if len(parts) > 1 {
		return Capitalize(parts[len(parts)-1])
	}
	return Capitalize(v.Pokemon.Name)
}
