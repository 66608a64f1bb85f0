package conversation

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/m3rciful/boxingcrm/core/telegram/state"
	"github.com/m3rciful/boxingcrm/crm/locale"
)

// Conversation steps.
const (
	StepIdle                       = state.StateIdle
	StepChooseLanguage state.State = "choose_language"
	StepParentName     state.State = "parent_name"
	StepParentPhone    state.State = "parent_phone"
	StepChildName      state.State = "child_name"
	StepChildAge       state.State = "child_age"
	StepKidPhone       state.State = "kid_phone"
	StepSupportAsk     state.State = "support_ask"
	StepKidSupport     state.State = "kid_support"
	StepAfterSign      state.State = "after_sign"
)

// Session field keys.
const (
	fieldRefCode   = "ref_code"
	fieldChildName = "child_name"
	fieldChildID   = "child_id"
)

const idleName = "idle"

func stepName(s state.State) string {
	if s == StepIdle {
		return idleName
	}
	return string(s)
}

var allSteps = []string{
	idleName,
	string(StepChooseLanguage),
	string(StepParentName),
	string(StepParentPhone),
	string(StepChildName),
	string(StepChildAge),
	string(StepKidPhone),
	string(StepSupportAsk),
	string(StepKidSupport),
	string(StepAfterSign),
}

// Every event is named after its destination step. /start, inline buttons
// and resets may arrive in any step; the rest follow the data collection order.
var graph = fsm.Events{
	{Name: idleName, Src: allSteps, Dst: idleName},
	{Name: string(StepChooseLanguage), Src: allSteps, Dst: string(StepChooseLanguage)},
	{Name: string(StepParentName), Src: allSteps, Dst: string(StepParentName)},
	{Name: string(StepParentPhone), Src: []string{string(StepParentName)}, Dst: string(StepParentPhone)},
	{Name: string(StepChildName), Src: []string{idleName, string(StepChildAge)}, Dst: string(StepChildName)},
	{Name: string(StepChildAge), Src: []string{string(StepChildName)}, Dst: string(StepChildAge)},
	{Name: string(StepSupportAsk), Src: []string{idleName}, Dst: string(StepSupportAsk)},
	{Name: string(StepKidPhone), Src: allSteps, Dst: string(StepKidPhone)},
	{Name: string(StepKidSupport), Src: []string{idleName, string(StepKidPhone)}, Dst: string(StepKidSupport)},
	{Name: string(StepAfterSign), Src: allSteps, Dst: string(StepAfterSign)},
}

func stepOf(name string) state.State {
	if name == idleName {
		return StepIdle
	}
	return state.State(name)
}

// machine returns the turn's state machine, started at the stored step.
// Entering a state commits it to the session and sends its prompt.
func (t *turn) machine() *fsm.FSM {
	if t.fsm == nil {
		t.fsm = fsm.NewFSM(stepName(t.sess.Step), graph, fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				var fields map[string]string
				if len(e.Args) > 0 {
					fields, _ = e.Args[0].(map[string]string)
				}
				t.commit(stepOf(e.Dst), fields)
			},
		})
	}
	return t.fsm
}

// enter moves the session to step with fresh fields given as key/value pairs.
// Re-entering the current step resets its fields and repeats the prompt.
func (t *turn) enter(step state.State, kv ...string) error {
	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	if step == t.sess.Step {
		t.commit(step, fields)
		return nil
	}
	if err := t.machine().Event(t.ctx, stepName(step), fields); err != nil {
		return fmt.Errorf("step %s -> %s: %w", stepName(t.sess.Step), stepName(step), err)
	}
	return nil
}

func (t *turn) clear() error {
	return t.enter(StepIdle)
}

func (t *turn) commit(step state.State, fields map[string]string) {
	t.sess = state.Session{Step: step, Fields: fields}
	t.touched = true
	t.prompt(step)
}

// prompt sends the fixed question of step. Idle and the kid phone step are
// answered by their callers.
func (t *turn) prompt(step state.State) {
	switch step {
	case StepChooseLanguage:
		t.reply(locale.ChooseLang, langKB())
	case StepParentName:
		t.reply(t.tr(locale.AskParentName), stepKB(t.lang))
	case StepParentPhone:
		t.reply(t.tr(locale.AskParentPhone), phoneKB(t.lang))
	case StepChildName:
		t.reply(t.tr(locale.AskChildName), stepKB(t.lang))
	case StepChildAge:
		t.reply(t.tr(locale.AskChildAge), stepKB(t.lang))
	case StepSupportAsk:
		t.reply(t.tr(locale.HelpText), stepKB(t.lang))
	case StepKidSupport:
		t.reply(t.tr(locale.KidHelpPrompt), stepKB(t.lang))
	case StepAfterSign:
		t.reply(t.tr(locale.SignDone), afterSignKB(t.lang))
	}
}

// CanTransition reports whether the graph allows from -> to.
func CanTransition(from, to state.State) bool {
	if from == to {
		return true
	}
	return fsm.NewFSM(stepName(from), graph, fsm.Callbacks{}).Can(stepName(to))
}
