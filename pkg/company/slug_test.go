package company

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Test Company", "test-company"},
		{"Test  Company", "test-company"},
		{"  Autohaus Müller  ", "autohaus-m-ller"},
		{"ACME GmbH & Co. KG", "acme-gmbh-co-kg"},
		{"---", "company"},
		{"", "company"},
		{"already-a-slug", "already-a-slug"},
		{"123 Motors", "123-motors"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.name); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
