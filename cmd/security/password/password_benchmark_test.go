package password

import "testing"

func BenchmarkHash_DefaultConfig(b *testing.B) {
	cfg := DefaultConfig()
	pw := "benchmark password 123"

	b.ReportAllocs()
	for b.Loop() {
		if _, err := cfg.Hash(pw); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkVerify_DefaultConfig(b *testing.B) {
	cfg := DefaultConfig()
	pw := "benchmark password 123"

	h, err := cfg.Hash(pw)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	for b.Loop() {
		if _, err := cfg.Verify(h, pw); err != nil {
			b.Fatal(err)
		}
	}
}
