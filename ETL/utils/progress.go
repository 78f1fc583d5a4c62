package utils

import (
	"time"
)

// Фазы этапов выполнения
const (
	PhaseRunStarted  = "run_started"
	PhaseExtracted   = "extracted"
	PhaseTransformed = "transformed"
	PhaseLoadStage   = "load_stage"
	PhaseLoaded      = "loaded"
	PhaseRunFailed   = "run_failed"
)

// Milestone - уведомление о ходе запуска
type Milestone struct {
	RunID   string         `json:"run_id"`
	Phase   string         `json:"phase"`
	Stage   string         `json:"stage,omitempty"`
	Rows    int            `json:"rows"`
	Details map[string]int `json:"details,omitempty"`
	Error   string         `json:"error,omitempty"`
	At      time.Time      `json:"at"`
}

// Notifier получает этапы выполнения
type Notifier interface {
	Notify(m Milestone)
}

// MultiNotifier рассылает этап нескольким получателям
type MultiNotifier []Notifier

// Notify передает m каждому получателю
func (mn MultiNotifier) Notify(m Milestone) {
	for _, n := range mn {
		if n != nil {
			n.Notify(m)
		}
	}
}

// Notify логирует этап выполнения
func (l *ETLLogger) Notify(m Milestone) {
	switch m.Phase {
	case PhaseRunFailed:
		l.Error("[%s] запуск завершился ошибкой: %s", m.RunID, m.Error)
	case PhaseLoadStage:
		l.Info("[%s] этап загрузки %s завершен (%d строк)", m.RunID, m.Stage, m.Rows)
	default:
		l.Info("[%s] %s (%d rows)", m.RunID, m.Phase, m.Rows)
	}
}
