package mandate

import "testing"

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"none_to_requested", StatusNone, StatusRequested, true},
		{"empty_to_requested", Status(""), StatusRequested, true},
		{"requested_to_sent", StatusRequested, StatusSent, true},
		{"sent_to_completed", StatusSent, StatusCompleted, true},
		{"none_to_sent_skips_step", StatusNone, StatusSent, false},
		{"none_to_completed_skips_steps", StatusNone, StatusCompleted, false},
		{"requested_to_completed_skips_step", StatusRequested, StatusCompleted, false},
		{"sent_to_requested_backward", StatusSent, StatusRequested, false},
		{"completed_is_terminal", StatusCompleted, StatusRequested, false},
		{"requested_to_requested_repeat", StatusRequested, StatusRequested, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.from.CanTransitionTo(tt.to)

			if got != tt.want {
				t.Fatalf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestActive(t *testing.T) {
	if StatusNone.Active() {
		t.Fatal("NONE should not be active")
	}

	if Status("").Active() {
		t.Fatal("empty status should not be active")
	}

	for _, s := range []Status{StatusRequested, StatusSent, StatusCompleted} {
		if !s.Active() {
			t.Fatalf("%s should be active", s)
		}
	}
}

func TestIsValid(t *testing.T) {
	for _, s := range []Status{StatusNone, StatusRequested, StatusSent, StatusCompleted} {
		if !s.IsValid() {
			t.Fatalf("%s should be valid", s)
		}
	}

	if Status("RELEASED").IsValid() {
		t.Fatal("unknown status should be invalid")
	}
}
