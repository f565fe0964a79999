package models

import "testing"

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SomeUser", "someuser"},
		{"  Padded  ", "padded"},
		{"already_lower", "already_lower"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeUsername(tt.in); got != tt.want {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUserOffenseFlag(t *testing.T) {
	record := UserOffense{ShadowBanned: true, Tracked: false, WarningsMuted: true}

	tests := []struct {
		flag OffenseFlag
		want bool
	}{
		{FlagShadowBanned, true},
		{FlagTracked, false},
		{FlagWarningsMuted, true},
		{OffenseFlag("bogus"), false},
	}

	for _, tt := range tests {
		if got := record.Flag(tt.flag); got != tt.want {
			t.Errorf("Flag(%q) = %v, want %v", tt.flag, got, tt.want)
		}
	}
}

func TestValidOffenseField(t *testing.T) {
	valid := []OffenseField{
		FieldRemovedComments, FieldRemovedSubmissions,
		FieldApprovedComments, FieldApprovedSubmissions, FieldBans,
	}
	for _, field := range valid {
		if !ValidOffenseField(field) {
			t.Errorf("expected %q to be valid", field)
		}
	}
	if ValidOffenseField(OffenseField("drop table")) {
		t.Error("arbitrary field names must be rejected")
	}
}
