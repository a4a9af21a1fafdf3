package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Matviy-commands/math-nmt-bot/internal/application/command"
	"github.com/Matviy-commands/math-nmt-bot/internal/application/query"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/quiz"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ HANDLER
// Drives the whole practice flow: category → topic → level selection,
// then the task queue with answers, skips and end-of-queue summary.
// Every non-command text lands here once a session exists.
// ══════════════════════════════════════════════════════════════════════════════

// QuizHandler handles the selection and solving flows.
type QuizHandler struct {
	sessions    quiz.SessionStore
	startSel    *command.StartSelectionHandler
	advance     *command.AdvanceSelectionHandler
	submit      *command.SubmitAnswerHandler
	currentItem *query.GetCurrentItemHandler
	keyboards   *presenter.KeyboardBuilder
	taskCards   *presenter.TaskCardPresenter
	events      shared.EventPublisher
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(
	sessions quiz.SessionStore,
	startSel *command.StartSelectionHandler,
	advance *command.AdvanceSelectionHandler,
	submit *command.SubmitAnswerHandler,
	currentItem *query.GetCurrentItemHandler,
	keyboards *presenter.KeyboardBuilder,
	taskCards *presenter.TaskCardPresenter,
	events shared.EventPublisher,
) *QuizHandler {
	return &QuizHandler{
		sessions:    sessions,
		startSel:    startSel,
		advance:     advance,
		submit:      submit,
		currentItem: currentItem,
		keyboards:   keyboards,
		taskCards:   taskCards,
		events:      events,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Entry points
// ─────────────────────────────────────────────────────────────────────────────

// StartSelection resets the flow to the category step.
func (h *QuizHandler) StartSelection(ctx context.Context, telegramID int64) (*Response, error) {
	result, err := h.startSel.Handle(ctx, command.StartSelectionCommand{TelegramID: telegramID})
	if err != nil {
		return h.serviceTrouble(), nil
	}
	if len(result.Categories) == 0 {
		return HTML("😕 Завдання ще не завантажені. Зазирніть пізніше!", h.keyboards.MainMenu()), nil
	}

	return HTML(
		"📚 <b>Оберіть розділ</b>\nАбо перегляньте всі теми одразу.",
		h.keyboards.Categories(result.Categories),
	), nil
}

// LeaveToMenu discards any session and shows the main menu.
func (h *QuizHandler) LeaveToMenu(ctx context.Context, telegramID int64) (*Response, error) {
	if err := h.startSel.ClearSession(ctx, telegramID); err != nil {
		return h.serviceTrouble(), nil
	}
	return HTML("Гаразд, повертаємось у меню.", h.keyboards.MainMenu()), nil
}

// HandleText routes a free-text message by the current session step:
// solving gets it as an answer, selection steps as a choice.
func (h *QuizHandler) HandleText(ctx context.Context, telegramID int64, text string) (*Response, error) {
	s, err := h.sessions.Get(ctx, shared.TelegramID(telegramID))
	if err != nil {
		if errors.Is(err, shared.ErrStaleSession) {
			return h.noSession(), nil
		}
		return h.serviceTrouble(), nil
	}

	if s.Step == quiz.StepSolving {
		return h.HandleAnswer(ctx, telegramID, text, text == presenter.BtnSkip)
	}
	return h.HandleChoice(ctx, telegramID, text)
}

// ─────────────────────────────────────────────────────────────────────────────
// Selection steps
// ─────────────────────────────────────────────────────────────────────────────

// HandleChoice advances the selection flow by one user choice.
func (h *QuizHandler) HandleChoice(ctx context.Context, telegramID int64, choice string) (*Response, error) {
	result, err := h.advance.Handle(ctx, command.AdvanceSelectionCommand{
		TelegramID: telegramID,
		Choice:     choice,
	})
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrEmptyQueue):
			return HTML(
				"😕 У цій темі поки немає завдань. Оберіть іншу!",
				h.keyboards.MainMenu(),
			), nil
		case errors.Is(err, shared.ErrStaleSession):
			return h.noSession(), nil
		default:
			return h.serviceTrouble(), nil
		}
	}

	if result.QueueStarted {
		return h.queueStarted(ctx, telegramID, result)
	}

	prompt := h.stepPrompt(result)
	return HTML(prompt, h.stepKeyboard(result)), nil
}

// queueStarted announces the queue and shows the first task.
func (h *QuizHandler) queueStarted(ctx context.Context, telegramID int64, result *command.AdvanceSelectionResult) (*Response, error) {
	var intro strings.Builder
	if result.IsRepeatLap {
		intro.WriteString(fmt.Sprintf(
			"🔁 Всі завдання теми «%s» (%s) вже виконані — повторімо їх!",
			presenter.EscapeHTML(result.Topic), result.Level.String(),
		))
	} else {
		intro.WriteString(fmt.Sprintf(
			"🚀 Тема «%s», рівень <b>%s</b>: %d %s.",
			presenter.EscapeHTML(result.Topic), result.Level.String(),
			result.QueueLength, taskWord(result.QueueLength),
		))
	}

	resp := HTML(intro.String(), nil)
	if err := h.appendCurrentTask(ctx, telegramID, resp); err != nil {
		return h.serviceTrouble(), nil
	}
	return resp, nil
}

// stepPrompt builds the message for a selection step result.
func (h *QuizHandler) stepPrompt(result *command.AdvanceSelectionResult) string {
	var prefix string
	if result.Invalid {
		prefix = "🤔 Не впізнаю такий варіант. Оберіть кнопкою:\n\n"
	}

	switch result.Step {
	case quiz.StepCategory:
		return prefix + "📚 <b>Оберіть розділ</b>"
	case quiz.StepTopic:
		return prefix + "📖 <b>Оберіть тему</b>"
	case quiz.StepLevel:
		return prefix + "🎚 <b>Оберіть рівень складності</b>"
	default:
		return prefix + "Оберіть варіант:"
	}
}

// stepKeyboard builds the keyboard for a selection step result.
func (h *QuizHandler) stepKeyboard(result *command.AdvanceSelectionResult) *presenter.Keyboard {
	switch result.Step {
	case quiz.StepCategory:
		return h.keyboards.Categories(result.Options)
	case quiz.StepTopic:
		return h.keyboards.Topics(result.Options)
	case quiz.StepLevel:
		return h.keyboards.Levels(result.Options)
	default:
		return h.keyboards.MainMenu()
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Answers
// ─────────────────────────────────────────────────────────────────────────────

// HandleAnswer submits an answer (or a skip) for the current task.
func (h *QuizHandler) HandleAnswer(ctx context.Context, telegramID int64, text string, isSkip bool) (*Response, error) {
	result, err := h.submit.Handle(ctx, command.SubmitAnswerCommand{
		TelegramID:  telegramID,
		RawResponse: text,
		IsSkip:      isSkip,
	})
	if err != nil {
		if errors.Is(err, shared.ErrStaleSession) {
			return h.noSession(), nil
		}
		return HTML(
			"😔 Не вдалося зарахувати відповідь. Надішліть її ще раз.",
			h.keyboards.Solving(),
		), nil
	}

	publishAll(h.events, result.Events)

	outcome := h.taskCards.FormatOutcome(result)

	if result.SessionEnded {
		keyboard := h.keyboards.AfterQueue()
		if result.Topic == "" {
			keyboard = h.keyboards.MainMenu()
		}
		return HTML(outcome.Text, keyboard), nil
	}

	resp := HTML(outcome.Text, nil)
	if err := h.appendCurrentTask(ctx, telegramID, resp); err != nil {
		return h.serviceTrouble(), nil
	}
	return resp, nil
}

// appendCurrentTask appends the current task card to the response.
func (h *QuizHandler) appendCurrentTask(ctx context.Context, telegramID int64, resp *Response) error {
	item, err := h.currentItem.Handle(ctx, query.GetCurrentItemQuery{TelegramID: telegramID})
	if err != nil {
		return err
	}

	view := h.taskCards.FormatTask(item)
	resp.Append(Message{
		Text:      view.Text,
		ParseMode: view.ParseMode,
		MediaRef:  view.MediaRef,
		Keyboard:  h.keyboards.Solving(),
	})
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared replies
// ─────────────────────────────────────────────────────────────────────────────

func (h *QuizHandler) noSession() *Response {
	return HTML(
		"🤷 Активної сесії немає. Оберіть «"+presenter.BtnPractice+"», щоб почати!",
		h.keyboards.MainMenu(),
	)
}

func (h *QuizHandler) serviceTrouble() *Response {
	return HTML(
		"😔 Щось пішло не так. Спробуйте ще раз за хвилину.",
		h.keyboards.MainMenu(),
	)
}

// taskWord підбирає форму слова "завдання" до числа.
func taskWord(n int) string {
	n = n % 100
	if n >= 11 && n <= 14 {
		return "завдань"
	}
	switch n % 10 {
	case 1:
		return "завдання"
	case 2, 3, 4:
		return "завдання"
	default:
		return "завдань"
	}
}
