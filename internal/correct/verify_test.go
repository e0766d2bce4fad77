package correct_test

// Notes:
// - The tolerance boundary is pinned exactly: 19% drift passes, 21%
//   drift fails with the default 20% tolerance.

import (
	"strings"
	"testing"

	"github.com/alonsovb/sermonkit/internal/correct"
)

// makeOriginal returns a 100-byte text with distinctive phrases.
func makeOriginal() string {
	s := "El Señor es mi pastor y nada me faltará porque su misericordia permanece para siempre jamás"
	// Pad to exactly 100 bytes so percentage math is exact.
	for len(s) < 100 {
		s += "."
	}
	return s[:100]
}

func TestVerifyIntegrity_ToleranceBoundary(t *testing.T) {
	t.Parallel()

	orig := makeOriginal()

	tests := []struct {
		name      string
		corrected string
		want      bool
	}{
		{
			name:      "identical text passes",
			corrected: orig,
			want:      true,
		},
		{
			name:      "19 percent longer passes",
			corrected: orig + strings.Repeat(" y", 19/2) + strings.Repeat(" ", 19%2),
			want:      true,
		},
		{
			name:      "21 percent longer fails",
			corrected: orig + strings.Repeat("x", 21),
			want:      false,
		},
		{
			name:      "21 percent shorter fails",
			corrected: orig[:79],
			want:      false,
		},
		{
			name:      "empty correction of non-empty original fails",
			corrected: "",
			want:      false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := correct.VerifyIntegrity(orig, tt.corrected, 0); got != tt.want {
				t.Errorf("VerifyIntegrity(len %d -> len %d) = %v, want %v",
					len(orig), len(tt.corrected), got, tt.want)
			}
		})
	}
}

func TestVerifyIntegrity_ContentRetention(t *testing.T) {
	t.Parallel()

	orig := strings.Repeat(
		"La gracia del Señor Jesucristo sea con todos los hermanos amados en la fe verdadera. ", 4) +
		"Amén y bendición para el pueblo santo."

	t.Run("case-insensitive survival passes", func(t *testing.T) {
		t.Parallel()
		if !correct.VerifyIntegrity(orig, strings.ToUpper(orig), 0) {
			t.Error("case changes must not fail the retention check")
		}
	})

	t.Run("same-length paraphrase fails", func(t *testing.T) {
		t.Parallel()
		paraphrase := strings.Repeat("z ", len(orig)/2)[:len(orig)]
		if correct.VerifyIntegrity(orig, paraphrase, 0) {
			t.Error("a paraphrase sharing no phrases must fail")
		}
	})

	t.Run("minor corrections pass", func(t *testing.T) {
		t.Parallel()
		minor := strings.Replace(orig, "bendición", "bendiciones", 1)
		if !correct.VerifyIntegrity(orig, minor, 0) {
			t.Error("a single word change must pass")
		}
	})
}

func TestVerifyIntegrity_EmptyOriginal(t *testing.T) {
	t.Parallel()

	if !correct.VerifyIntegrity("", "", 0) {
		t.Error("empty-to-empty should pass")
	}
	if correct.VerifyIntegrity("", "algo", 0) {
		t.Error("content appearing from nothing should fail")
	}
}

func TestSignaturePhrases(t *testing.T) {
	t.Parallel()

	t.Run("caps at ten phrases", func(t *testing.T) {
		t.Parallel()
		text := strings.Repeat("palabras suficientemente largas ", 50)
		got := correct.SignaturePhrases(text)
		if len(got) != 10 {
			t.Errorf("got %d phrases, want 10", len(got))
		}
	})

	t.Run("short windows are skipped", func(t *testing.T) {
		t.Parallel()
		if got := correct.SignaturePhrases("a b c d e"); len(got) != 0 {
			t.Errorf("expected no phrases for short words, got %v", got)
		}
	})

	t.Run("too few words yields nothing", func(t *testing.T) {
		t.Parallel()
		if got := correct.SignaturePhrases("dos palabras"); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})
}
