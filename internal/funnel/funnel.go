// Package funnel drives an anonymous visitor through the freemium
// assessment: lead capture, question-by-question answers, completion,
// results. The container is the source of truth for local funnel state and
// persists a snapshot after every mutation so a restart resumes mid-funnel.
//
// Progress is always the server's number. The container never derives a
// percentage from its local answer count: the server may insert adaptive
// follow-up questions, so the two legitimately diverge.
package funnel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/complyon/complyon-go/internal/api"
	"github.com/complyon/complyon-go/internal/apierrors"
	"github.com/complyon/complyon-go/internal/transport"
	"github.com/complyon/complyon-go/internal/types"
)

// Stage is the funnel position. Transitions are forward-only; a completed
// assessment never regresses to in-progress.
type Stage string

const (
	StageAnonymous            Stage = "anonymous"
	StageLeadCaptured         Stage = "lead_captured"
	StageAssessmentStarted    Stage = "assessment_started"
	StageAssessmentInProgress Stage = "assessment_in_progress"
	StageAssessmentCompleted  Stage = "assessment_completed"
	StageResultsViewed        Stage = "results_viewed"
)

var stageRank = map[Stage]int{
	StageAnonymous:            0,
	StageLeadCaptured:         1,
	StageAssessmentStarted:    2,
	StageAssessmentInProgress: 3,
	StageAssessmentCompleted:  4,
	StageResultsViewed:        5,
}

// ErrNoSession is returned by operations that need a live funnel session.
var ErrNoSession = errors.New("no funnel session: capture a lead first")

// ErrSessionExpired is returned when the funnel session token has lapsed.
var ErrSessionExpired = errors.New("funnel session expired")

// Container owns one visitor's funnel state.
type Container struct {
	mu sync.Mutex

	tc    *transport.Client
	store SnapshotStore
	log   zerolog.Logger
	now   func() time.Time

	stage     Stage
	lead      types.Lead
	sessionID string
	answers   []types.Answer
	progress  types.Progress
	results   *types.FunnelResultsResponse
	lastErr   error
}

// New builds a container and resumes from a persisted snapshot when one
// exists and passes its checksum. Corrupt snapshots are discarded with a
// log line, never loaded.
func New(tc *transport.Client, store SnapshotStore, log zerolog.Logger) *Container {
	c := &Container{
		tc:    tc,
		store: store,
		log:   log,
		now:   time.Now,
		stage: StageAnonymous,
	}
	if store == nil {
		return c
	}
	snap, err := store.Load()
	switch {
	case errors.Is(err, ErrSnapshotCorrupt):
		snapshotCorruptionsTotal.Inc()
		log.Warn().Msg("discarding corrupt funnel snapshot")
		_ = store.Clear()
	case err != nil:
		log.Warn().Err(err).Msg("funnel snapshot unreadable")
	case snap != nil:
		c.stage = snap.Stage
		c.lead = snap.Lead
		c.sessionID = snap.SessionID
		c.answers = snap.Answers
		c.progress = snap.Progress
	}
	return c
}

// WithClock overrides the container's clock. Test helper.
func (c *Container) WithClock(now func() time.Time) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// CaptureLead validates locally, opens a funnel session, and moves to
// lead_captured. Obviously invalid input never reaches the network.
func (c *Container) CaptureLead(ctx context.Context, email string, consent types.Consent, utm map[string]string) error {
	if err := types.ValidateEmail(email); err != nil {
		return c.fail(apierrors.Validation(err))
	}
	if err := types.ValidateConsent(consent); err != nil {
		return c.fail(apierrors.Validation(err))
	}

	c.mu.Lock()
	if c.stage != StageAnonymous && !c.sessionExpiredLocked() {
		c.mu.Unlock()
		return c.fail(apierrors.Validation(errors.New("lead already captured for this session")))
	}
	c.mu.Unlock()

	resp, err := api.CaptureLead(ctx, c.tc, types.CaptureLeadRequest{Email: email, Consent: consent, UTM: utm})
	if err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	c.lead = types.Lead{
		LeadID:        resp.LeadID,
		Email:         email,
		Consent:       consent,
		SessionToken:  resp.SessionToken,
		SessionExpiry: resp.SessionExpiry,
		UTM:           utm,
	}
	c.stage = StageLeadCaptured
	c.answers = nil
	c.sessionID = ""
	c.progress = types.Progress{Status: types.StatusNotStarted}
	c.lastErr = nil
	c.persistLocked()
	c.mu.Unlock()
	return nil
}

// StartAssessment begins the Q&A phase. Requires a valid session and at
// least lead_captured.
func (c *Container) StartAssessment(ctx context.Context) error {
	c.mu.Lock()
	if err := c.sessionGuardLocked(); err != nil {
		c.mu.Unlock()
		return c.fail(err)
	}
	token := c.lead.SessionToken
	c.mu.Unlock()

	resp, err := api.StartAssessment(ctx, c.tc, token)
	if err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	c.sessionID = resp.SessionID
	c.progress = resp.Progress
	c.advanceLocked(StageAssessmentStarted)
	c.lastErr = nil
	c.persistLocked()
	c.mu.Unlock()
	return nil
}

// SubmitAnswer records the answer locally first (append, or replace the
// existing answer for the same question, last write wins), then submits
// it. On success the server's progress is adopted wholesale. On failure
// the local answer is retained with Submitted=false and the error is kept
// in Err(); accumulated lead/session/answer state is never rolled back.
func (c *Container) SubmitAnswer(ctx context.Context, questionID, answer string) error {
	if err := types.ValidateIDPresent(questionID, "questionId"); err != nil {
		return c.fail(apierrors.Validation(err))
	}

	c.mu.Lock()
	if err := c.sessionGuardLocked(); err != nil {
		c.mu.Unlock()
		return c.fail(err)
	}
	c.upsertAnswerLocked(types.Answer{
		QuestionID: questionID,
		Value:      answer,
		AnsweredAt: c.now(),
	})
	token := c.lead.SessionToken
	c.persistLocked()
	c.mu.Unlock()

	resp, err := api.SubmitAnswer(ctx, c.tc, token, types.SubmitAnswerRequest{QuestionID: questionID, Answer: answer})
	if err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	c.markSubmittedLocked(questionID)
	c.progress = resp.Progress
	if resp.Progress.Status == types.StatusCompleted {
		c.advanceLocked(StageAssessmentCompleted)
	} else {
		c.advanceLocked(StageAssessmentInProgress)
	}
	c.lastErr = nil
	c.persistLocked()
	c.mu.Unlock()
	return nil
}

// Results fetches the completed assessment's results and marks them viewed.
func (c *Container) Results(ctx context.Context) (*types.FunnelResultsResponse, error) {
	c.mu.Lock()
	if c.results != nil {
		res := c.results
		c.mu.Unlock()
		return res, nil
	}
	if err := c.sessionGuardLocked(); err != nil {
		c.mu.Unlock()
		return nil, c.fail(err)
	}
	if stageRank[c.stage] < stageRank[StageAssessmentCompleted] {
		c.mu.Unlock()
		return nil, c.fail(apierrors.Validation(errors.New("assessment not completed")))
	}
	token := c.lead.SessionToken
	c.mu.Unlock()

	resp, err := api.FunnelResults(ctx, c.tc, token)
	if err != nil {
		return nil, c.fail(err)
	}

	c.mu.Lock()
	c.results = resp
	c.advanceLocked(StageResultsViewed)
	c.lastErr = nil
	c.persistLocked()
	c.mu.Unlock()
	return resp, nil
}

// Reset drops all funnel state and the persisted snapshot. Explicit only;
// errors never trigger it.
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stage = StageAnonymous
	c.lead = types.Lead{}
	c.sessionID = ""
	c.answers = nil
	c.progress = types.Progress{}
	c.results = nil
	c.lastErr = nil
	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			c.log.Warn().Err(err).Msg("clearing funnel snapshot failed")
		}
	}
}

// ------------------------------
// Derived predicates
// ------------------------------
//
// These are recomputed on every call, never cached: a cached boolean is a
// staleness bug waiting for a forgotten invalidation.

// IsSessionExpired reports whether the funnel session has lapsed. The
// boundary instant counts as expired. No session counts as expired.
func (c *Container) IsSessionExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionExpiredLocked()
}

// HasValidSession reports a live session token with time remaining.
func (c *Container) HasValidSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lead.SessionToken != "" && !c.sessionExpiredLocked()
}

// CanStartAssessment reports whether the visitor may begin the Q&A phase.
func (c *Container) CanStartAssessment() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lead.SessionToken != "" &&
		!c.sessionExpiredLocked() &&
		c.lead.Consent.Terms &&
		stageRank[c.stage] >= stageRank[StageLeadCaptured]
}

// ------------------------------
// Accessors
// ------------------------------

// CurrentStage returns the funnel position.
func (c *Container) CurrentStage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Lead returns a copy of the captured lead.
func (c *Container) Lead() types.Lead {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lead
}

// Answers returns a copy of the recorded answers, in answer order.
func (c *Container) Answers() []types.Answer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Answer, len(c.answers))
	copy(out, c.answers)
	return out
}

// Progress returns the last server-reported progress.
func (c *Container) Progress() types.Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// Err returns the last failed operation's error, or nil.
func (c *Container) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError clears the error field without touching any other state, so a
// transient failure never costs accumulated progress.
func (c *Container) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil
}

// ------------------------------
// Internals
// ------------------------------

func (c *Container) sessionExpiredLocked() bool {
	if c.lead.SessionExpiry.IsZero() {
		return true
	}
	return !c.now().Before(c.lead.SessionExpiry)
}

func (c *Container) sessionGuardLocked() error {
	if c.lead.SessionToken == "" {
		return ErrNoSession
	}
	if c.sessionExpiredLocked() {
		return ErrSessionExpired
	}
	return nil
}

// advanceLocked moves the stage forward only; regressions are ignored.
func (c *Container) advanceLocked(to Stage) {
	if stageRank[to] > stageRank[c.stage] {
		c.stage = to
	}
}

// upsertAnswerLocked keeps at most one answer per question, last write wins.
func (c *Container) upsertAnswerLocked(a types.Answer) {
	for i := range c.answers {
		if c.answers[i].QuestionID == a.QuestionID {
			c.answers[i] = a
			return
		}
	}
	c.answers = append(c.answers, a)
}

func (c *Container) markSubmittedLocked(questionID string) {
	for i := range c.answers {
		if c.answers[i].QuestionID == questionID {
			c.answers[i].Submitted = true
			return
		}
	}
}

// persistLocked saves a snapshot best-effort; a save failure is logged and
// otherwise ignored, it never fails the triggering operation.
func (c *Container) persistLocked() {
	if c.store == nil {
		return
	}
	snap := Snapshot{
		Stage:     c.stage,
		Lead:      c.lead,
		SessionID: c.sessionID,
		Answers:   c.answers,
		Progress:  c.progress,
		SavedAt:   c.now(),
	}
	if err := c.store.Save(snap); err != nil {
		c.log.Warn().Err(err).Msg("funnel snapshot save failed")
		return
	}
	snapshotSavesTotal.Inc()
}

// fail records err as the container's last error and returns it.
func (c *Container) fail(err error) error {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	return err
}
