package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/lazypower/legacy/internal/store"
)

func TestValidateSettings_Valid(t *testing.T) {
	s := store.Settings{
		ThresholdDays:       30,
		BeneficiaryName:     "  Bob  ",
		BeneficiaryContact:  " Bob <bob@example.com> ",
		BeneficiaryRelation: "brother",
	}

	got, err := validateSettings(s, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.BeneficiaryName != "Bob" {
		t.Errorf("BeneficiaryName = %q, want Bob", got.BeneficiaryName)
	}
	if got.BeneficiaryContact != "bob@example.com" {
		t.Errorf("BeneficiaryContact = %q, want bare address", got.BeneficiaryContact)
	}
}

func TestValidateSettings_Threshold(t *testing.T) {
	tests := []struct {
		days int
		ok   bool
	}{
		{0, false},
		{-1, false},
		{1, true},
		{7, true},
		{3650, true},
		{3651, false},
	}
	for _, tt := range tests {
		_, err := validateSettings(store.Settings{ThresholdDays: tt.days}, false)
		if (err == nil) != tt.ok {
			t.Errorf("threshold %d: err = %v, want ok=%v", tt.days, err, tt.ok)
		}
	}
}

func TestValidateSettings_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		s     store.Settings
		email bool
		field string
	}{
		{"name without contact", store.Settings{ThresholdDays: 7, BeneficiaryName: "Bob"}, false, "beneficiary"},
		{"contact without name", store.Settings{ThresholdDays: 7, BeneficiaryContact: "bob@example.com"}, false, "beneficiary"},
		{"whitespace name", store.Settings{ThresholdDays: 7, BeneficiaryName: "   ", BeneficiaryContact: "bob@example.com"}, false, "beneficiary"},
		{"long name", store.Settings{ThresholdDays: 7, BeneficiaryName: strings.Repeat("a", 201), BeneficiaryContact: "b@example.com"}, false, "beneficiary_name"},
		{"long relation", store.Settings{ThresholdDays: 7, BeneficiaryName: "Bob", BeneficiaryContact: "b@example.com", BeneficiaryRelation: strings.Repeat("r", 101)}, false, "beneficiary_relation"},
		{"bad email", store.Settings{ThresholdDays: 7, BeneficiaryName: "Bob", BeneficiaryContact: "not an address"}, true, "beneficiary_contact"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateSettings(tt.s, tt.email)
			var cerr *ConfigurationError
			if !errors.As(err, &cerr) {
				t.Fatalf("err = %v, want ConfigurationError", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cerr.Field, tt.field)
			}
		})
	}
}

func TestValidateSettings_NonEmailContactWithoutRequirement(t *testing.T) {
	s := store.Settings{ThresholdDays: 7, BeneficiaryName: "Bob", BeneficiaryContact: "+1 555 0100"}
	got, err := validateSettings(s, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.BeneficiaryContact != "+1 555 0100" {
		t.Errorf("BeneficiaryContact = %q", got.BeneficiaryContact)
	}
}

func TestValidateSettings_ClearBeneficiary(t *testing.T) {
	if _, err := validateSettings(store.Settings{ThresholdDays: 14}, true); err != nil {
		t.Errorf("settings without a beneficiary should be accepted: %v", err)
	}
}
