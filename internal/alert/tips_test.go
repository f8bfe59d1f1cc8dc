package alert

import (
	"strings"
	"testing"
	"time"
)

func TestTips_ByLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  int
	}{
		{LevelOK, 0},
		{LevelAttention, 2},
		{LevelAlert, 2},
		{LevelOver, 3},
	}
	for _, tt := range tests {
		if got := Tips(Assessment{Level: tt.level, AssessedAt: now}); len(got) != tt.want {
			t.Errorf("Tips(%s) = %d tips, want %d", tt.level, len(got), tt.want)
		}
	}
}

func TestTips_DailyCutWhenExhaustionIsClose(t *testing.T) {
	soon := now.Add(4 * 24 * time.Hour)
	a := Assessment{Level: LevelAlert, BurnRate: dec("50"), Forecast: &soon, AssessedAt: now}
	tips := Tips(a)
	if len(tips) != 3 || !strings.Contains(tips[0], "15.00/day") {
		t.Fatalf("Tips = %q, want a 15.00/day cut first", tips)
	}

	later := now.Add(9 * 24 * time.Hour)
	a.Forecast = &later
	if tips := Tips(a); len(tips) != 2 {
		t.Fatalf("Tips with distant forecast = %q, want no cut", tips)
	}
}
