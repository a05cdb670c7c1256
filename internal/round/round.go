// Package round implements the gated progression through the three placement
// rounds: aptitude, the branch-dependent second round, and the mock interview.
package round

import (
	"errors"
	"math/rand/v2"
	"strconv"

	"github.com/pranavkale/placement-cell/internal/model"
	"github.com/pranavkale/placement-cell/internal/store"
)

var (
	// ErrRoundLocked means a prerequisite round has not been completed.
	ErrRoundLocked = errors.New("previous round not completed")
	// ErrRoundComplete means the round was already taken and cannot be retaken.
	ErrRoundComplete = errors.New("round already completed")
	// ErrWrongBranch means the student's department routes to the other
	// round-2 track.
	ErrWrongBranch = errors.New("round not available for this branch")
	// ErrNoDepartment means the student has no department on record.
	ErrNoDepartment = errors.New("no department on record")
	// ErrPoolTooSmall means the department's question pool cannot fill a test.
	// This is a data-integrity failure, never silently served short.
	ErrPoolTooSmall = errors.New("question pool smaller than test size")
)

// Completion holds the derived round-completion state for one student.
type Completion struct {
	Aptitude  bool
	RoundTwo  bool
	Interview bool
}

// Engine evaluates round gates against the store. Completion state is always
// derived from persisted attempts, never cached.
type Engine struct {
	store *store.Store
	cfg   model.Config
}

func NewEngine(s *store.Store, cfg model.Config) *Engine {
	return &Engine{store: s, cfg: cfg}
}

// Completion derives the student's progression state. Round 2 counts as
// complete once at least one submission exists on the student's branch.
func (e *Engine) Completion(u *model.User) (Completion, error) {
	var c Completion
	var err error
	c.Aptitude, err = e.store.HasAptitudeAttempt(u.ID)
	if err != nil {
		return c, err
	}
	switch e.cfg.BranchFor(u.Department) {
	case model.BranchTechnical:
		n, err := e.store.CountCodingSubmissions(u.ID)
		if err != nil {
			return c, err
		}
		c.RoundTwo = n > 0
	case model.BranchNonTechnical:
		n, err := e.store.CountNonTechnicalSubmissions(u.ID)
		if err != nil {
			return c, err
		}
		c.RoundTwo = n > 0
	}
	c.Interview, err = e.store.HasInterviewAttempt(u.ID)
	if err != nil {
		return c, err
	}
	return c, nil
}

// GateAptitudeFetch allows fetching an aptitude test: the student must have a
// department and must not have taken the round.
func (e *Engine) GateAptitudeFetch(u *model.User) error {
	if u.Department == "" {
		return ErrNoDepartment
	}
	done, err := e.store.HasAptitudeAttempt(u.ID)
	if err != nil {
		return err
	}
	if done {
		return ErrRoundComplete
	}
	return nil
}

// GateAptitudeSubmit allows submitting the aptitude round.
func (e *Engine) GateAptitudeSubmit(u *model.User) error {
	done, err := e.store.HasAptitudeAttempt(u.ID)
	if err != nil {
		return err
	}
	if done {
		return ErrRoundComplete
	}
	return nil
}

// GateCodingFetch allows viewing the coding round: aptitude done, round 2 not
// yet complete, technical branch only.
func (e *Engine) GateCodingFetch(u *model.User) error {
	if e.cfg.BranchFor(u.Department) != model.BranchTechnical {
		return ErrWrongBranch
	}
	c, err := e.Completion(u)
	if err != nil {
		return err
	}
	if !c.Aptitude {
		return ErrRoundLocked
	}
	if c.RoundTwo {
		return ErrRoundComplete
	}
	return nil
}

// GateCodingRun allows trial execution, under the same conditions as viewing.
func (e *Engine) GateCodingRun(u *model.User) error {
	return e.GateCodingFetch(u)
}

// GateCodingSubmit allows submitting a coding answer. Unlike viewing, a
// student who already has one submission may still submit the remaining
// questions; per-question resubmission is rejected by the store.
func (e *Engine) GateCodingSubmit(u *model.User) error {
	if e.cfg.BranchFor(u.Department) != model.BranchTechnical {
		return ErrWrongBranch
	}
	done, err := e.store.HasAptitudeAttempt(u.ID)
	if err != nil {
		return err
	}
	if !done {
		return ErrRoundLocked
	}
	return nil
}

// GateNonTechnicalFetch allows viewing the non-technical round.
func (e *Engine) GateNonTechnicalFetch(u *model.User) error {
	if e.cfg.BranchFor(u.Department) != model.BranchNonTechnical {
		return ErrWrongBranch
	}
	c, err := e.Completion(u)
	if err != nil {
		return err
	}
	if !c.Aptitude {
		return ErrRoundLocked
	}
	if c.RoundTwo {
		return ErrRoundComplete
	}
	return nil
}

// GateNonTechnicalSubmit allows submitting a non-technical answer.
func (e *Engine) GateNonTechnicalSubmit(u *model.User) error {
	return e.GateNonTechnicalFetch(u)
}

// GateInterview allows the mock interview: both earlier rounds complete and
// the interview not yet taken.
func (e *Engine) GateInterview(u *model.User) error {
	c, err := e.Completion(u)
	if err != nil {
		return err
	}
	if !c.Aptitude || !c.RoundTwo {
		return ErrRoundLocked
	}
	if c.Interview {
		return ErrRoundComplete
	}
	return nil
}

// SampleAptitude draws a uniform random test of cfg.AptitudeCount questions
// from the student's department pool. A pool smaller than the test size is
// ErrPoolTooSmall.
func (e *Engine) SampleAptitude(department string) ([]model.AptitudeQuestion, error) {
	pool, err := e.store.ListAptitudeQuestions(department)
	if err != nil {
		return nil, err
	}
	if len(pool) < e.cfg.AptitudeCount {
		return nil, ErrPoolTooSmall
	}
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool[:e.cfg.AptitudeCount], nil
}

// ScoreAptitude grades an answer map against the stored correct answers.
// Keys are question ids as decimal strings; unparseable keys, unknown
// questions, and wrong labels all score zero for that entry.
func (e *Engine) ScoreAptitude(answers map[string]string) (int, error) {
	score := 0
	for key, label := range answers {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		q, err := e.store.GetAptitudeQuestion(id)
		if err != nil {
			return 0, err
		}
		if q == nil {
			continue
		}
		if label == q.CorrectAnswer {
			score++
		}
	}
	return score, nil
}
