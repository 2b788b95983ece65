package models

import (
	"encoding/json"
	"strings"
)

// FilterSet is the combination of query parameters sent to the maintenance
// query endpoint. Its normalized JSON form is used as the list cache key.
type FilterSet struct {
	Flows         []string `json:"flow,omitempty"`
	GetAll        bool     `json:"get_all,omitempty"`
	MechanicNames []string `json:"mechanic_name,omitempty"`
	IsBroken      *bool    `json:"is_broken,omitempty"`
	Truckplate    string   `json:"truckplate,omitempty"`
	DateStart     string   `json:"datestart,omitempty"` // YYYY-MM-DD
	DateEnd       string   `json:"dateend,omitempty"`   // YYYY-MM-DD
	Customer      string   `json:"customer,omitempty"`
	Plant         string   `json:"plant,omitempty"`
	SearchCode    string   `json:"search_code,omitempty"`
	SearchVehicle string   `json:"search_vehicle,omitempty"`
}

// Normalize trims every field and collapses empty values so that a blank
// string, a nil slice and an omitted field compare equal.
func (f FilterSet) Normalize() FilterSet {
	out := FilterSet{
		Flows:         trimAll(f.Flows),
		GetAll:        f.GetAll,
		MechanicNames: trimAll(f.MechanicNames),
		Truckplate:    strings.TrimSpace(f.Truckplate),
		DateStart:     strings.TrimSpace(f.DateStart),
		DateEnd:       strings.TrimSpace(f.DateEnd),
		Customer:      strings.TrimSpace(f.Customer),
		Plant:         strings.TrimSpace(f.Plant),
		SearchCode:    strings.TrimSpace(f.SearchCode),
		SearchVehicle: strings.TrimSpace(f.SearchVehicle),
	}
	if f.IsBroken != nil {
		v := *f.IsBroken
		out.IsBroken = &v
	}
	// get_all replaces the mechanic filter
	if out.GetAll {
		out.MechanicNames = nil
	}
	return out
}

// Key returns the deterministic serialization of the normalized filter set.
// Struct fields marshal in declaration order, so equal filters give equal keys.
func (f FilterSet) Key() string {
	b, err := json.Marshal(f.Normalize())
	if err != nil {
		// FilterSet holds only strings, bools and slices of strings
		panic("models: marshal filter set: " + err.Error())
	}
	return string(b)
}

// HasUserFilters reports whether any filter other than the actor identity
// and flow list is set.
func (f FilterSet) HasUserFilters() bool {
	n := f.Normalize()
	return n.IsBroken != nil || n.Truckplate != "" || n.DateStart != "" || n.DateEnd != "" ||
		n.Customer != "" || n.Plant != "" || n.SearchCode != "" || n.SearchVehicle != ""
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
