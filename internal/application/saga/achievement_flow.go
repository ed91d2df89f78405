// Package saga contains multi-step application flows that coordinate
// several repositories and emit follow-up events.
package saga

import (
	"context"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/progression"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT FLOW
// Runs after a lesson completion: snapshots the user's progress history,
// finds newly satisfied achievement rules and awards each one exactly once.
// A broken rule or a failed award never blocks the others.
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFlow evaluates and awards achievements for one user.
type AchievementFlow struct {
	achievementRepo progression.AchievementRepository
	progressRepo    progression.ProgressRepository
	evaluator       *progression.Evaluator
	publisher       shared.EventPublisher
	logger          *logger.Logger
}

// NewAchievementFlow creates a new AchievementFlow.
func NewAchievementFlow(
	achievementRepo progression.AchievementRepository,
	progressRepo progression.ProgressRepository,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *AchievementFlow {
	if log == nil {
		log = logger.Default()
	}
	return &AchievementFlow{
		achievementRepo: achievementRepo,
		progressRepo:    progressRepo,
		evaluator:       progression.NewEvaluator(),
		publisher:       publisher,
		logger:          log.With(logger.Component("achievement_flow")),
	}
}

// AwardedAchievement is one award made by a flow run.
type AwardedAchievement struct {
	Achievement *progression.Achievement
	XPBonus     int
	NewXPTotal  int
	LeveledUp   bool
}

// FlowResult summarizes one evaluation run.
type FlowResult struct {
	// Awarded lists the achievements newly granted in this run.
	Awarded []AwardedAchievement

	// SkippedExisting counts rules that were satisfied but already earned
	// by the time the award ran (lost a race to a concurrent evaluation).
	SkippedExisting int

	// RuleFailures counts rules that failed validation and were skipped.
	RuleFailures int
}

// Run evaluates all rules for the user and awards the newly satisfied ones.
//
// Each award is atomic and idempotent in the repository: the uniqueness
// constraint on (user, achievement) makes concurrent flow runs safe, and an
// already-earned rule reports Awarded=false rather than an error. Failures
// are isolated per rule so one bad row cannot starve the rest.
func (f *AchievementFlow) Run(ctx context.Context, userID string) (*FlowResult, error) {
	rules, err := f.achievementRepo.GetAllRules(ctx)
	if err != nil {
		return nil, err
	}

	earned, err := f.achievementRepo.GetEarnedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot, err := f.progressRepo.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	satisfied, failures := f.evaluator.NewlySatisfied(rules, earned, snapshot)

	result := &FlowResult{RuleFailures: len(failures)}
	for _, failure := range failures {
		f.logger.Warn("achievement rule skipped",
			logger.AchievementSlug(failure.Slug),
			logger.Err(failure.Err),
		)
	}

	now := time.Now().UTC()
	for _, rule := range satisfied {
		f.award(ctx, userID, rule, now, result)
	}

	return result, nil
}

// award grants one achievement, swallowing per-rule failures.
func (f *AchievementFlow) award(
	ctx context.Context,
	userID string,
	rule *progression.Achievement,
	at time.Time,
	result *FlowResult,
) {
	outcome, err := f.achievementRepo.Award(ctx, userID, rule, at)
	if err != nil {
		f.logger.Error("achievement award failed",
			logger.UserID(userID),
			logger.AchievementSlug(rule.Slug),
			logger.Err(err),
		)
		return
	}

	if !outcome.Awarded {
		result.SkippedExisting++
		return
	}

	result.Awarded = append(result.Awarded, AwardedAchievement{
		Achievement: rule,
		XPBonus:     rule.XPReward,
		NewXPTotal:  outcome.NewXP,
		LeveledUp:   outcome.NewLevel > outcome.OldLevel,
	})

	f.logger.Info("achievement awarded",
		logger.UserID(userID),
		logger.AchievementSlug(rule.Slug),
		logger.XPAmount(rule.XPReward),
	)

	f.publishAwardEvents(userID, rule, outcome)
}

func (f *AchievementFlow) publishAwardEvents(
	userID string,
	rule *progression.Achievement,
	outcome *progression.AwardOutcome,
) {
	if f.publisher == nil {
		return
	}

	events := []shared.Event{
		shared.NewAchievementUnlockedEvent(userID, rule.ID, rule.Slug, rule.XPReward),
	}
	if outcome.NewXP > outcome.OldXP {
		events = append(events,
			shared.NewXPGainedEvent(userID, outcome.OldXP, outcome.NewXP, "achievement_bonus"))
	}
	if outcome.NewLevel > outcome.OldLevel {
		events = append(events,
			shared.NewLevelUpEvent(userID, outcome.OldLevel, outcome.NewLevel))
	}

	for _, event := range events {
		if err := f.publisher.Publish(event); err != nil {
			f.logger.Error("failed to publish event",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err),
			)
		}
	}
}
