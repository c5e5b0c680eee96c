package services

import (
	"strings"

	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

// IntentRouter maps a student message to exactly one agent role. Pure
// function of its inputs; unclassifiable input falls through to coaching,
// never to an error.
type IntentRouter struct{}

func NewIntentRouter() *IntentRouter { return &IntentRouter{} }

// Keyword tables cover the planner app's Korean vocabulary plus English
// equivalents. First match wins within a table; tables are checked in
// admission, analyst, planner order so the narrower intents outrank the
// broad planning vocabulary.
var (
	admissionKeywords = []string{
		"레벨 테스트", "레벨테스트", "수준 테스트", "진단 평가", "진단평가", "처음",
		"가입", "시작하기", "온보딩",
		"level test", "placement", "onboarding", "get started", "diagnostic",
	}
	analystKeywords = []string{
		"통계", "분석", "성적", "점수", "리포트", "진도율", "얼마나 했",
		"약점", "취약",
		"stats", "statistics", "progress report", "analysis", "analyze",
		"how am i doing", "weak topic", "performance",
	}
	plannerKeywords = []string{
		"계획", "플랜", "스케줄", "일정", "시간표", "계획 세워", "몇 주",
		"시험 준비", "시험준비", "커리큘럼",
		// Bare "plan" is avoided: it substring-matches "explain".
		"study plan", "make a plan", "new plan", "schedule", "curriculum",
		"syllabus", "how many weeks", "exam prep",
	}
)

// Classify picks the agent role for a message. An active level test forces
// the admission role; HIGH burnout is a hard override to coaching that wins
// over every keyword signal.
func (r *IntentRouter) Classify(message string, recentHistory []string, burnoutRisk types.BurnoutRisk, activeLevelTest bool) types.AgentRole {
	if activeLevelTest {
		return types.RoleAdmission
	}
	if burnoutRisk == types.BurnoutHigh {
		return types.RoleCoach
	}

	text := normalizeMessage(message)
	// Recent turns extend the signal window so a bare follow-up ("그래서?")
	// keeps the thread's role.
	for i := len(recentHistory) - 1; i >= 0 && i >= len(recentHistory)-3; i-- {
		text += " " + normalizeMessage(recentHistory[i])
	}

	if matchesAny(text, admissionKeywords) {
		return types.RoleAdmission
	}
	if matchesAny(text, analystKeywords) {
		return types.RoleAnalyst
	}
	if matchesAny(text, plannerKeywords) {
		return types.RolePlanner
	}
	return types.RoleCoach
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func normalizeMessage(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// scheduleQueryHints flag messages the supervisor can answer straight from
// the quest store, without any agent call.
var scheduleQueryHints = []string{
	"오늘 뭐", "오늘 할", "오늘 공부", "오늘 퀘스트", "내일 뭐", "이번 주 뭐",
	"what should i study", "today's quests", "what do i do today",
	"what's on today",
}

// scheduleMutationHints flag messages asking to move or postpone work; the
// supervisor routes these into the reschedule contract.
var scheduleMutationHints = []string{
	"미뤄", "미루", "연기", "다음에", "옮겨", "옮기", "못 했", "못했", "빼줘",
	"reschedule", "postpone", "move it", "push it", "skip today", "missed it",
}

func IsScheduleQuery(message string) bool {
	return matchesAny(normalizeMessage(message), scheduleQueryHints)
}

func IsScheduleMutation(message string) bool {
	return matchesAny(normalizeMessage(message), scheduleMutationHints)
}
