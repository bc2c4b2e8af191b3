package classify

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"unknown", "The quick brown fox.", Unknown},
		{"lease", "This Lease Agreement is between Landlord and Tenant. Tenant pays a security deposit.", "LEASE_AGREEMENT"},
		{"nda", "This Non-Disclosure Agreement protects Confidential Information and trade secrets.", "NON_DISCLOSURE"},
		{"employment", "This Employment Agreement sets the salary of the Employee and the Employer's duties.", "EMPLOYMENT_AGREEMENT"},
	}
	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			if got.Type != tt.want {
				t.Errorf("type = %s, want %s (%+v)", got.Type, tt.want, got)
			}
			if got.Confidence < 0 || got.Confidence > 1 {
				t.Errorf("confidence %v out of range", got.Confidence)
			}
		})
	}
}

func TestClassifyAlternativesCapped(t *testing.T) {
	text := "employee landlord buyer privacy policy terms of use service provider confidential information"
	got := NewClassifier().Classify(text)
	if len(got.Alternatives) > maxAlternative {
		t.Errorf("alternatives = %d", len(got.Alternatives))
	}
	for _, a := range got.Alternatives {
		if a.Score > got.Confidence {
			t.Errorf("alternative %s outranks primary", a.Type)
		}
	}
}
