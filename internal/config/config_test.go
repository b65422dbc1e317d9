package config

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLoad_ExamDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, DefaultExam().MarksCorrect, cfg.Exam.MarksCorrect)
	assert.Equal(t, DefaultExam().MarksIncorrect, cfg.Exam.MarksIncorrect)
	assert.Equal(t, 3, cfg.Exam.TabSwitchThreshold)
	assert.Equal(t, time.Second, cfg.Exam.TickInterval)
}

func TestLoad_ExamOverrides(t *testing.T) {
	t.Setenv("EXAM_MARKS_CORRECT", "3")
	t.Setenv("EXAM_MARKS_INCORRECT", "-0.25")
	t.Setenv("EXAM_TAB_SWITCH_THRESHOLD", "5")
	t.Setenv("EXAM_TICK_INTERVAL_MS", "250")

	cfg := Load()

	assert.Equal(t, 3.0, cfg.Exam.MarksCorrect)
	assert.Equal(t, -0.25, cfg.Exam.MarksIncorrect)
	assert.Equal(t, 5, cfg.Exam.TabSwitchThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.Exam.TickInterval)
}

func TestLoad_MalformedFallsBack(t *testing.T) {
	t.Setenv("EXAM_MARKS_CORRECT", "four")
	t.Setenv("EXAM_TAB_SWITCH_THRESHOLD", "x")

	cfg := Load()

	assert.Equal(t, 4.0, cfg.Exam.MarksCorrect)
	assert.Equal(t, 3, cfg.Exam.TabSwitchThreshold)
}

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, parseOrigins(""))
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, parseOrigins(" https://a.test, ,https://b.test "))
}

func TestLoad_RateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_START_PER_MINUTE", "5")

	cfg := Load()

	assert.Equal(t, 5, cfg.RateLimit.StartPerMinute)
	assert.Equal(t, 240, cfg.RateLimit.SignalPerMinute)
}

func TestKeys_Namespaced(t *testing.T) {
	id := uuid.MustParse("7d7a4f6e-2f8a-4a39-9a51-0f3b1d1c2e55")

	assert.Equal(t, "exstem:session:7d7a4f6e-2f8a-4a39-9a51-0f3b1d1c2e55:result", CacheKey.SessionResultKey(id))
	assert.Equal(t, "exstem:session:7d7a4f6e-2f8a-4a39-9a51-0f3b1d1c2e55:monitor", CacheKey.SessionMonitorChannel(id))
	assert.Equal(t, "exstem:sessions:monitor", CacheKey.MonitorChannel())
	assert.Equal(t, []string{"exstem:persist_results_queue", "exstem:persist_integrity_queue"}, WorkerKey.Queues())
}
