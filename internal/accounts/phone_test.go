package accounts

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+1 (415) 555-0199": "+14155550199",
		"415-555-0199":      "4155550199",
		"14155550199":       "14155550199",
		"  +44 20 7946 0958": "+442079460958",
		"":                  "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPhoneSuffix(t *testing.T) {
	if got := PhoneSuffix("+14155550199", 10); got != "4155550199" {
		t.Fatalf("suffix = %q", got)
	}
	if got := PhoneSuffix("4155550199", 10); got != "4155550199" {
		t.Fatalf("suffix = %q", got)
	}
	if got := PhoneSuffix("5550199", 10); got != "" {
		t.Fatalf("expected empty suffix for short number, got %q", got)
	}
}
