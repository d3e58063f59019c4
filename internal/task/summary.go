package task

import (
	"context"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/swarmguard/judge-engine/internal/model"
)

// SummaryTask aggregates every subtask's TestDataResults into a
// SubtaskResult, folds dependency-subtask skipping, then aggregates every
// SubtaskResult into the challenge's TotalResult. It runs once per
// challenge, after every Scoring task has finished.
type SummaryTask struct{}

func (t *SummaryTask) Setup(chal *model.Challenge, _ *model.TaskEntry) (bool, error) {
	if chal.ProblemContext.SummaryKind() == model.SummaryCustom &&
		chal.Result.Total.Status != nil && *chal.Result.Total.Status == model.JudgeError {
		return false, nil
	}
	return true, nil
}

func (t *SummaryTask) Run(_ context.Context, _ *model.Env, chal *model.Challenge, _ *model.TaskEntry) error {
	if chal.ProblemContext.SummaryKind() == model.SummaryCustom {
		chal.Result.Total.Status = model.StatusPtr(model.JudgeError)
		chal.Result.Total.IEMessage = "custom summary scoring is not supported by this deployment"
		chal.Result.Total.MessageType = model.MessageText
		return nil
	}

	result := chal.Result
	checkerKind := chal.ProblemContext.CheckerKind()
	summaryType := chal.ProblemContext.SummaryKind()

	for subtaskID, subtaskResult := range result.SubtaskResults {
		subtask := chal.Subtasks[subtaskID]
		score := decimal.Zero
		finite := false

		for _, td := range subtask.TestDatas {
			tr := result.TestDataResults[td.ID]
			if tr.Status != nil && *tr.Status != model.Skipped {
				subtaskResult.Memory += tr.Memory
				if tr.Time > subtaskResult.Time {
					subtaskResult.Time = tr.Time
				}
				if subtaskResult.Status != nil {
					if *tr.Status > *subtaskResult.Status {
						subtaskResult.Status = tr.Status
					}
				} else {
					subtaskResult.Status = tr.Status
				}
			}

			if subtaskResult.Status != nil &&
				(*subtaskResult.Status == model.Accepted || *subtaskResult.Status == model.PartialCorrect) {
				if checkerKind.AwardsFractionalCredit() {
					var candidate decimal.Decimal
					switch summaryType {
					case model.SummaryGroupMin:
						candidate = subtask.Score.Mul(tr.Score)
					case model.SummaryOverwrite:
						candidate = tr.Score
					}
					if !finite || candidate.LessThan(score) {
						score = candidate
						finite = true
					}
				} else {
					score = subtask.Score
					finite = true
				}
			} else {
				finite = false
				score = decimal.Zero
			}
		}

		if !finite {
			score = decimal.Zero
		}
		subtaskResult.Score = score
	}

	// Skips propagate transitively (A depends on B depends on C): ranging
	// over result.SubtaskResults, a Go map, gives no guaranteed order, so a
	// single pass can read a dependency's pre-skip status. Repeat the pass
	// to a fixpoint so the final skip set no longer depends on map
	// iteration order, matching the original's reliance on insertion order.
	for {
		changed := false
		for subtaskID, subtaskResult := range result.SubtaskResults {
			if subtaskResult.Status != nil && *subtaskResult.Status == model.Skipped {
				continue
			}
			subtask := chal.Subtasks[subtaskID]
			for _, dep := range subtask.DependencySubtasks {
				depResult := result.SubtaskResults[dep]
				if depResult.Status == nil || (*depResult.Status != model.Accepted && *depResult.Status != model.PartialCorrect) {
					subtaskResult.Status = model.StatusPtr(model.Skipped)
					subtaskResult.Score = decimal.Zero
					subtaskResult.Memory = 0
					subtaskResult.Time = 0
					changed = true
					break
				}
			}
		}
		if !changed {
			break
		}
	}

	for _, tr := range result.TestDataResults {
		if tr.Status == nil {
			tr.Status = model.StatusPtr(model.Skipped)
		}
	}

	for subtaskID, subtaskResult := range result.SubtaskResults {
		if subtaskResult.Status == nil {
			if len(chal.Subtasks[subtaskID].TestDatas) == 0 {
				subtaskResult.Status = model.StatusPtr(model.JudgeError)
				continue
			}
			subtaskResult.Status = model.StatusPtr(model.Skipped)
		}
	}

	if result.Total.Status == nil {
		for _, subtaskResult := range result.SubtaskResults {
			result.Total.Memory += subtaskResult.Memory
			if subtaskResult.Time > result.Total.Time {
				result.Total.Time = subtaskResult.Time
			}
			if subtaskResult.Status != nil && *subtaskResult.Status != model.Skipped {
				if result.Total.Status != nil {
					if *subtaskResult.Status > *result.Total.Status {
						result.Total.Status = subtaskResult.Status
					}
				} else {
					result.Total.Status = subtaskResult.Status
				}
			}
			result.Total.Score = result.Total.Score.Add(subtaskResult.Score)
		}
	}

	if result.Total.Status == nil {
		result.Total.Status = model.StatusPtr(model.JudgeError)
		result.Total.IEMessage = "problem has no testdata or subtask, please contact administrator or problem setter"
		result.Total.MessageType = model.MessageText
	}
	return nil
}

func (t *SummaryTask) Finish(chal *model.Challenge, _ *model.TaskEntry) {
	if chal.Reporter != nil {
		chal.Reporter(chal.ChalID, "summary", nil, chal.Result)
	}

	if path := chal.ProblemContext.CheckerPath(); path != "" {
		chal.Box.DeleteFile(filepath.Base(path))
	}
	if path := chal.ProblemContext.UserProgPath(); path != "" {
		chal.Box.DeleteFile(filepath.Base(path))
	}
}
