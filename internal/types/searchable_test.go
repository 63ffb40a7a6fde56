package types

import "testing"

func TestSearchabilityBuckets(t *testing.T) {
	tests := []struct {
		s       Searchability
		general bool
		members bool
	}{
		{SearchabilityFindable, true, false},
		{SearchabilitySingleResult, true, false},
		{SearchabilityBundlePrice, true, false},
		{SearchabilityUnknown, true, false},
		{SearchabilityMembersOnly, false, true},
		{SearchabilityNotFound, false, false},
		{SearchabilityWarehouseOnly, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.s), func(t *testing.T) {
			if got := tt.s.InGeneralList(); got != tt.general {
				t.Errorf("InGeneralList() = %v, want %v", got, tt.general)
			}
			if got := tt.s.InMembersList(); got != tt.members {
				t.Errorf("InMembersList() = %v, want %v", got, tt.members)
			}
		})
	}
}
