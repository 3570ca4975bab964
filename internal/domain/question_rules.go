package domain

import "strings"

// Labels of the two true_false options.
const (
	TrueLabel  = "True"
	FalseLabel = "False"
)

// fillerDistractors pad choice questions that came back with too few options.
var fillerDistractors = []string{
	"None of the above",
	"All of the above",
	"Not enough information to decide",
	"It depends on the context",
	"None of these statements apply",
}

// EnforceQuestionInvariants returns a copy of q whose options satisfy the
// structural rules of q.Type. prior is the question as it was before the
// transformation and may be nil; it is only consulted to keep the
// correctness polarity of true_false questions.
func EnforceQuestionInvariants(q Question, prior *Question) Question {
	out := q
	out.Text = strings.TrimSpace(q.Text)
	out.Options = cleanOptions(q.Options)

	switch q.Type {
	case QuestionTrueFalse:
		out.Options = trueFalseOptions(out.Options, prior)
	case QuestionSingleChoice:
		out.Options = boundChoiceOptions(out.Options)
		if countCorrect(out.Options) != 1 {
			for i := range out.Options {
				out.Options[i].IsCorrect = i == 0
			}
		}
	case QuestionMultipleChoice:
		out.Options = boundChoiceOptions(out.Options)
		if countCorrect(out.Options) < 2 {
			out.Options[0].IsCorrect = true
			out.Options[1].IsCorrect = true
		}
	}

	assignOptionIDs(&out)
	return out
}

func cleanOptions(in []Option) []Option {
	out := make([]Option, 0, len(in))
	for _, o := range in {
		o.Text = strings.TrimSpace(o.Text)
		if o.Text == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}

func countCorrect(opts []Option) int {
	n := 0
	for _, o := range opts {
		if o.IsCorrect {
			n++
		}
	}
	return n
}

// boundChoiceOptions pads to MinChoiceOptions with filler distractors and
// then truncates to MaxChoiceOptions.
func boundChoiceOptions(opts []Option) []Option {
	used := make(map[string]struct{}, len(opts))
	for _, o := range opts {
		used[strings.ToLower(o.Text)] = struct{}{}
	}

	for _, filler := range fillerDistractors {
		if len(opts) >= MinChoiceOptions {
			break
		}
		if _, taken := used[strings.ToLower(filler)]; taken {
			continue
		}
		opts = append(opts, Option{Text: filler})
		used[strings.ToLower(filler)] = struct{}{}
	}

	if len(opts) > MaxChoiceOptions {
		opts = opts[:MaxChoiceOptions]
	}
	return opts
}

// trueFalseOptions rebuilds the option pair. The correct answer is taken from
// prior when it was a true_false question with a determinable answer, then
// from the supplied options, and defaults to True.
func trueFalseOptions(opts []Option, prior *Question) []Option {
	trueIsCorrect := true
	if polarity, ok := trueFalsePolarity(prior); ok {
		trueIsCorrect = polarity
	} else if polarity, ok := polarityOf(opts); ok {
		trueIsCorrect = polarity
	}

	trueOpt := Option{Text: TrueLabel, IsCorrect: trueIsCorrect}
	falseOpt := Option{Text: FalseLabel, IsCorrect: !trueIsCorrect}

	// Keep existing ids so clients can diff the change.
	for _, source := range [][]Option{opts, priorOptions(prior)} {
		for _, o := range source {
			switch {
			case trueOpt.ID == "" && strings.EqualFold(o.Text, TrueLabel):
				trueOpt.ID = o.ID
			case falseOpt.ID == "" && strings.EqualFold(o.Text, FalseLabel):
				falseOpt.ID = o.ID
			}
		}
	}
	if trueOpt.ID != "" && trueOpt.ID == falseOpt.ID {
		falseOpt.ID = ""
	}

	return []Option{trueOpt, falseOpt}
}

func priorOptions(prior *Question) []Option {
	if prior == nil {
		return nil
	}
	return prior.Options
}

func trueFalsePolarity(prior *Question) (bool, bool) {
	if prior == nil || prior.Type != QuestionTrueFalse {
		return false, false
	}
	return polarityOf(prior.Options)
}

// polarityOf reports whether "True" is the single correct label among opts.
func polarityOf(opts []Option) (bool, bool) {
	var trueCorrect, falseCorrect, sawTrue, sawFalse bool
	for _, o := range opts {
		switch {
		case strings.EqualFold(strings.TrimSpace(o.Text), TrueLabel):
			sawTrue = true
			trueCorrect = trueCorrect || o.IsCorrect
		case strings.EqualFold(strings.TrimSpace(o.Text), FalseLabel):
			sawFalse = true
			falseCorrect = falseCorrect || o.IsCorrect
		}
	}
	if !sawTrue && !sawFalse {
		return false, false
	}
	if trueCorrect == falseCorrect {
		return false, false
	}
	return trueCorrect, true
}
