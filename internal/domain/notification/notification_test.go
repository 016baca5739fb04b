package notification

import "testing"

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		n    Notification
		want Category
	}{
		{
			name: "explicit_field_wins",
			n:    Notification{Category: CategoryMandate, Message: "아무 내용"},
			want: CategoryMandate,
		},
		{
			name: "explicit_field_wins_over_marker",
			n:    Notification{Category: CategoryGeneral, Message: "수임 동의 신청"},
			want: CategoryGeneral,
		},
		{
			name: "legacy_mandate_marker",
			n:    Notification{Message: "홍길동님이 수임 동의를 신청했습니다."},
			want: CategoryMandate,
		},
		{
			name: "legacy_release_marker",
			n:    Notification{Message: "세무사가 수임 해제를 요청했습니다."},
			want: CategoryRelease,
		},
		{
			name: "release_wins_when_both_markers_present",
			n:    Notification{Message: "수임 해제 후 다시 수임 동의 신청을 진행해주세요."},
			want: CategoryRelease,
		},
		{
			name: "untagged_unmatched_is_general",
			n:    Notification{Message: "시스템 점검 안내"},
			want: CategoryGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategoryOf(tt.n)

			if got != tt.want {
				t.Fatalf("CategoryOf() = %s, want %s", got, tt.want)
			}
		})
	}
}
