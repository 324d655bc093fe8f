package parsing

import (
	"strings"
	"testing"
)

func TestDedupeKeyExactWhenRoundKnown(t *testing.T) {
	got := DedupeKey(11, 5, "2024-01-10", "나는 SOLO 11기 5화")
	if got != "s11:e005" {
		t.Fatalf("DedupeKey = %q, want s11:e005", got)
	}
	// Upload date and title must not influence the exact key.
	other := DedupeKey(11, 5, "", "완전히 다른 제목")
	if other != got {
		t.Fatalf("exact key changed with title/date: %q vs %q", other, got)
	}
}

func TestDedupeKeyFallback(t *testing.T) {
	got := DedupeKey(11, 0, "2024-01-10", "[풀버전] 나는 SOLO, 11기 하이라이트!")
	want := "s11:d2024-01-10:나는 solo 11기 하이라이트"
	if got != want {
		t.Fatalf("DedupeKey = %q, want %q", got, want)
	}
}

func TestDedupeKeyFallbackDefaults(t *testing.T) {
	got := DedupeKey(0, 0, "", "")
	if got != "s00:d0000-00-00:untitled" {
		t.Fatalf("DedupeKey = %q", got)
	}
}

func TestDedupeKeyFallbackTruncates(t *testing.T) {
	long := strings.Repeat("가나다 ", 40)
	got := DedupeKey(3, 0, "2023-05-01", long)
	norm := strings.TrimPrefix(got, "s03:d2023-05-01:")
	if runeCount := len([]rune(norm)); runeCount > titleKeyMaxLen {
		t.Fatalf("normalized title length = %d, want <= %d", runeCount, titleKeyMaxLen)
	}
}

func TestNormalizeTitleKey(t *testing.T) {
	got := NormalizeTitleKey("[EP.5] 나는 SOLO (풀버전) — 11기!!")
	if got != "나는 solo 11기" {
		t.Fatalf("NormalizeTitleKey = %q", got)
	}
}

func TestNormalizeForHash(t *testing.T) {
	got := NormalizeForHash("  안녕하세요!  Hello,   WORLD. ")
	if got != "안녕하세요 hello world" {
		t.Fatalf("NormalizeForHash = %q", got)
	}
}

func TestTranscriptHashStableUnderFormatting(t *testing.T) {
	a := TranscriptHash("안녕하세요 여러분")
	b := TranscriptHash("  안녕하세요,   여러분!  ")
	if a != b {
		t.Fatalf("hashes differ: %s vs %s", a, b)
	}
	if a == TranscriptHash("다른 내용") {
		t.Fatal("distinct content produced equal hashes")
	}
}

func TestParseUploadDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"20240110", "2024-01-10"},
		{"2024-01-10", "2024-01-10"},
		{"2024.01.10", "2024-01-10"},
		{"2024/01/10", "2024-01-10"},
		{"nonsense", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseUploadDate(tt.in); got != tt.want {
			t.Errorf("ParseUploadDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
