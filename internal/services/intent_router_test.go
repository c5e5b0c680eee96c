package services

import (
	"testing"

	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

func TestClassifyKeywordRouting(t *testing.T) {
	router := NewIntentRouter()

	tests := []struct {
		name    string
		message string
		want    types.AgentRole
	}{
		{"daily study question goes to coach", "오늘 뭐 공부해?", types.RoleCoach},
		{"level test request", "레벨 테스트 다시 보고 싶어요", types.RoleAdmission},
		{"placement in english", "Can I take a placement test?", types.RoleAdmission},
		{"plan request", "다음 달 시험 준비 계획 세워줘", types.RolePlanner},
		{"schedule in english", "help me build a study plan for June", types.RolePlanner},
		{"stats request", "이번 주 진도율 분석해줘", types.RoleAnalyst},
		{"progress in english", "show me my progress report", types.RoleAnalyst},
		{"explain is not a plan request", "can you explain fractions again", types.RoleCoach},
		{"empty message defaults to coach", "", types.RoleCoach},
		{"gibberish defaults to coach", "asdf qwer 1234", types.RoleCoach},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := router.Classify(tt.message, nil, types.BurnoutLow, false)
			if got != tt.want {
				t.Fatalf("Classify(%q) = %s, want %s", tt.message, got, tt.want)
			}
		})
	}
}

func TestClassifyHighBurnoutForcesCoach(t *testing.T) {
	router := NewIntentRouter()

	// Strong planner and analyst keywords must not survive the override.
	for _, msg := range []string{"시험 준비 계획 세워줘", "진도율 분석해줘", "study plan please"} {
		got := router.Classify(msg, nil, types.BurnoutHigh, false)
		if got != types.RoleCoach {
			t.Fatalf("HIGH burnout must force coach, got %s for %q", got, msg)
		}
	}
}

func TestClassifyActiveLevelTestForcesAdmission(t *testing.T) {
	router := NewIntentRouter()
	got := router.Classify("오늘 뭐 공부해?", nil, types.BurnoutLow, true)
	if got != types.RoleAdmission {
		t.Fatalf("active level test must force admission, got %s", got)
	}
}

func TestClassifyUsesRecentHistory(t *testing.T) {
	router := NewIntentRouter()
	history := []string{"이번 달 시험 준비 계획 세워줘", "좋아요"}
	got := router.Classify("그래서?", history, types.BurnoutLow, false)
	if got != types.RolePlanner {
		t.Fatalf("bare follow-up should keep the thread's role, got %s", got)
	}
}

func TestScheduleHintDetection(t *testing.T) {
	queries := []string{"오늘 뭐 공부해?", "What should I study today?"}
	for _, q := range queries {
		if !IsScheduleQuery(q) {
			t.Fatalf("expected schedule query: %q", q)
		}
	}
	mutations := []string{"오늘 퀘스트 내일로 미뤄줘", "please reschedule today's quest"}
	for _, m := range mutations {
		if !IsScheduleMutation(m) {
			t.Fatalf("expected schedule mutation: %q", m)
		}
	}
	if IsScheduleMutation("오늘 뭐 공부해?") {
		t.Fatal("plain study question misread as mutation")
	}
}
