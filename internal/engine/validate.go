package engine

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/lazypower/legacy/internal/store"
)

// Settings limits.
const (
	minThresholdDays     = 1
	maxThresholdDays     = 3650
	maxBeneficiaryName   = 200
	maxBeneficiaryRel    = 100
	maxBeneficiaryTarget = 320
)

// validateSettings trims and checks settings from a principal. It returns
// the normalized copy to store, or a *ConfigurationError.
//
// When requireEmail is set the contact must be an RFC 5322 address and
// is normalized to its bare addr-spec.
func validateSettings(s store.Settings, requireEmail bool) (store.Settings, error) {
	s.BeneficiaryName = strings.TrimSpace(s.BeneficiaryName)
	s.BeneficiaryContact = strings.TrimSpace(s.BeneficiaryContact)
	s.BeneficiaryRelation = strings.TrimSpace(s.BeneficiaryRelation)

	if s.ThresholdDays < minThresholdDays || s.ThresholdDays > maxThresholdDays {
		return s, &ConfigurationError{Field: "threshold_days", Reason: "must be between 1 and 3650"}
	}

	if (s.BeneficiaryName == "") != (s.BeneficiaryContact == "") {
		return s, &ConfigurationError{Field: "beneficiary", Reason: "name and contact must be set together"}
	}
	if utf8.RuneCountInString(s.BeneficiaryName) > maxBeneficiaryName {
		return s, &ConfigurationError{Field: "beneficiary_name", Reason: "too long"}
	}
	if utf8.RuneCountInString(s.BeneficiaryRelation) > maxBeneficiaryRel {
		return s, &ConfigurationError{Field: "beneficiary_relation", Reason: "too long"}
	}
	if len(s.BeneficiaryContact) > maxBeneficiaryTarget {
		return s, &ConfigurationError{Field: "beneficiary_contact", Reason: "too long"}
	}

	if s.BeneficiaryContact != "" && requireEmail {
		addr, err := mail.ParseAddress(s.BeneficiaryContact)
		if err != nil {
			return s, &ConfigurationError{Field: "beneficiary_contact", Reason: "not a valid email address"}
		}
		s.BeneficiaryContact = addr.Address
	}

	return s, nil
}
