package notify

import (
	"fmt"
	"strings"
)

// Subject is shared by both messages of an episode.
const Subject = "[Legacy notice] Inactivity reminder"

// Episode carries what the messages need to know about one inactivity
// episode.
type Episode struct {
	PrincipalName       string
	PrincipalEmail      string
	BeneficiaryName     string
	BeneficiaryContact  string
	BeneficiaryRelation string
	ThresholdDays       int
}

// BeneficiaryMessage asks the beneficiary to check on the principal.
func BeneficiaryMessage(e Episode) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", e.BeneficiaryName)
	fmt.Fprintf(&b, "%s (%s) has not signed in for more than %s. Please check on them.\n",
		displayName(e), e.PrincipalEmail, days(e.ThresholdDays))
	if e.BeneficiaryRelation != "" {
		fmt.Fprintf(&b, "Relationship to the account holder: %s\n", e.BeneficiaryRelation)
	}
	return Message{
		To:      e.BeneficiaryContact,
		Subject: Subject,
		Body:    b.String(),
	}
}

// PrincipalMessage warns the principal that their beneficiary was
// contacted.
func PrincipalMessage(e Episode) Message {
	body := fmt.Sprintf("You have not signed in for more than %s. "+
		"Your beneficiary %s has been notified. Please sign in as soon as possible to confirm you are safe.\n",
		days(e.ThresholdDays), e.BeneficiaryName)
	return Message{
		To:      e.PrincipalEmail,
		Subject: Subject,
		Body:    body,
	}
}

func displayName(e Episode) string {
	if e.PrincipalName != "" {
		return e.PrincipalName
	}
	return e.PrincipalEmail
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
