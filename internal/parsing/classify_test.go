package parsing

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        ContentClass
	}{
		{"main keyword", "나는 SOLO 11기 1화", "솔로나라 입성", ClassMain},
		{"spinoff keyword", "나솔사계 3화", "", ClassSpinoff},
		{"spinoff wins over main", "나는솔로 사랑은 계속된다 EP.2", "", ClassSpinoff},
		{"keyword in description only", "풀버전", "나는솔로 16기 모음", ClassMain},
		{"neither", "주간 예능 하이라이트", "", ClassUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.title, tt.description); got != tt.want {
				t.Errorf("Classify(%q, %q) = %s, want %s", tt.title, tt.description, got, tt.want)
			}
		})
	}
}

func TestIsPureMainContent(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        bool
	}{
		{"regular episode", "나는 SOLO 11기 5화", "", true},
		{"live excluded", "나는솔로 11기 라이브 특집", "", false},
		{"behind excluded", "나는솔로 비하인드", "", false},
		{"interview excluded", "나는솔로 11기", "출연자 인터뷰 풀영상", false},
		{"no main keyword", "솔로민박 1화", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPureMainContent(tt.title, tt.description); got != tt.want {
				t.Errorf("IsPureMainContent(%q, %q) = %v, want %v", tt.title, tt.description, got, tt.want)
			}
		})
	}
}

func TestHasCoreKeyword(t *testing.T) {
	if !HasCoreKeyword("나솔 11기 하이라이트") {
		t.Fatal("expected core keyword match")
	}
	if HasCoreKeyword("솔로 지옥 시즌2") {
		t.Fatal("unexpected core keyword match")
	}
}
