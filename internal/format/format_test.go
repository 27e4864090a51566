package format

import "testing"

func TestName(t *testing.T) {
	tests := map[string]string{
		"":           "",
		"pikachu":    "Pikachu",
		"mr-mime":    "Mr Mime",
		"nidoran-f":  "Nidoran F",
		"farfetchd":  "Farfetchd",
		"ho--oh":     "Ho  Oh",
		"porygon-z-": "Porygon Z ",
	}
	for in, want := range tests {
		if got := Name(in); got != want {
			t.Errorf("Name(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDexNumber(t *testing.T) {
	tests := map[int]string{1: "#001", 25: "#025", 151: "#151", 1000: "#1000"}
	for in, want := range tests {
		if got := DexNumber(in); got != want {
			t.Errorf("DexNumber(%d) = %q, want %q", in, got, want)
		}
	}
}
