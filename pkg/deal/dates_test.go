package deal

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := Date(raw)
	if err != nil {
		t.Fatalf("Date(%q): %v", raw, err)
	}
	return d
}

func TestAddMonth_ClampsToMonthEnd(t *testing.T) {
	cases := map[string]struct {
		from   string
		months int
		want   string
	}{
		"plain":          {from: "2024-01-15", months: 1, want: "2024-02-15"},
		"leap february":  {from: "2024-01-31", months: 1, want: "2024-02-29"},
		"plain february": {from: "2023-01-31", months: 1, want: "2023-02-28"},
		"year roll":      {from: "2024-11-30", months: 3, want: "2025-02-28"},
		"thirty days":    {from: "2024-08-31", months: 6, want: "2025-02-28"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := AddMonth(mustDate(t, tc.from), tc.months).Format(DateLayout)
			if got != tc.want {
				t.Fatalf("AddMonth(%s, %d) = %s, want %s", tc.from, tc.months, got, tc.want)
			}
		})
	}
}

func TestCashFlowDates(t *testing.T) {
	got := formatDates(CashFlowDates(
		mustDate(t, "2024-01-10"),
		mustDate(t, "2025-01-31"),
		mustDate(t, "2024-03-31"),
		3,
	))
	want := []string{
		"2024-01-10", "2024-03-31", "2024-06-30", "2024-09-30", "2024-12-30",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("dates mismatch (-want +got):\n%s", diff)
	}
}

func TestCashFlowDates_StubOnly(t *testing.T) {
	got := formatDates(CashFlowDates(
		mustDate(t, "2024-01-01"),
		mustDate(t, "2024-06-01"),
		mustDate(t, "2024-06-01"),
		12,
	))
	if diff := cmp.Diff([]string{"2024-01-01", "2024-06-01"}, got); diff != "" {
		t.Fatalf("dates mismatch (-want +got):\n%s", diff)
	}
}

func TestDate_RejectsLooseFormats(t *testing.T) {
	for _, raw := range []string{"", "2024-1-01", "01/02/2024", "2024-02-30"} {
		if _, err := Date(raw); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("Date(%q) expected ErrInvalidDate, got %v", raw, err)
		}
	}
	if _, err := ParseDates([]string{"2024-01-01", "nope"}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate from ParseDates, got %v", err)
	}
}
