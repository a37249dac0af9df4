package roles

import "testing"

func TestLoad(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := len(c.Areas); got != 8 {
		t.Errorf("len(Areas) = %d, want 8", got)
	}
	if got := len(c.Roles); got != 4 {
		t.Errorf("len(Roles) = %d, want 4", got)
	}
	if got := len(c.Phases); got != 4 {
		t.Errorf("len(Phases) = %d, want 4", got)
	}

	for _, name := range []string{"Finance Director", "Head of AP", "Head of AR", "Head of Treasury"} {
		r, ok := c.Role(name)
		if !ok {
			t.Errorf("Role(%q) missing", name)
			continue
		}
		if len(r.Topics) != 9 {
			t.Errorf("Role(%q) has %d topics, want 9", name, len(r.Topics))
		}
		if len(r.ExpectedTopics) != 9 {
			t.Errorf("Role(%q) has %d expected topics, want 9", name, len(r.ExpectedTopics))
		}
		if r.Domain == "" {
			t.Errorf("Role(%q) has empty domain", name)
		}
	}
}

func TestAreaKeywords(t *testing.T) {
	c := MustLoad()
	for _, a := range c.Areas {
		if len(a.Keywords) < 7 {
			t.Errorf("area %q has %d keywords, want at least 7", a.Key, len(a.Keywords))
		}
	}
	overview, ok := c.Area("overview")
	if !ok {
		t.Fatal("area overview missing")
	}
	if overview.Name != "Overview" || overview.Prompt == "" {
		t.Errorf("overview area malformed: %+v", overview)
	}
}

func TestTopicRequiredAreasAreKnown(t *testing.T) {
	c := MustLoad()
	for _, r := range c.Roles {
		for _, topic := range r.Topics {
			if topic.ID == "" || topic.Name == "" {
				t.Errorf("role %q has malformed topic %+v", r.Name, topic)
			}
			for _, key := range topic.RequiredAreas {
				if _, ok := c.Area(key); !ok {
					t.Errorf("role %q topic %q requires unknown area %q", r.Name, topic.ID, key)
				}
			}
		}
	}
}

func TestValidRole(t *testing.T) {
	c := MustLoad()
	if !c.ValidRole("Head of AP") {
		t.Error(`ValidRole("Head of AP") = false, want true`)
	}
	if c.ValidRole("Head of Payroll") {
		t.Error(`ValidRole("Head of Payroll") = true, want false`)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Finance Director", "finance-director"},
		{"Head of Treasury", "head-of-treasury"},
		{"Head of AP", "head-of-ap"},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
