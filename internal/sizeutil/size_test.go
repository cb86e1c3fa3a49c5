package sizeutil

import "testing"

func TestParseSize(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1M", MiB, false},
		{"500K", 500 * KiB, false},
		{"2GB", 2 * GiB, false},
		{"1024", 1024, false},
		{"0", 0, false},
		{"1.5M", int64(1.5 * float64(MiB)), false},
		{"", 0, true},
		{"-5M", 0, true},
		{"abc", 0, true},
	}

	for _, c := range cases {
		got, err := ParseSize(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseSize(%q): expected error, got nil", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSize(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{1023, "1023"},
		{1024, "1K"},
		{1536, "1.5K"},
		{MiB, "1M"},
		{GiB, "1G"},
	}
	for _, c := range cases {
		if got := FormatBytes(c.in); got != c.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSizeBucket(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{512, "(0,1KiB]"},
		{50 * KiB, "(1KiB,100KiB]"},
		{500 * KiB, "(100KiB,1MiB]"},
		{50 * MiB, "(1MiB,100MiB]"},
		{500 * MiB, "(100MiB,inf)"},
	}
	for _, c := range cases {
		if got := SizeBucket(c.in); got != c.want {
			t.Errorf("SizeBucket(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}
