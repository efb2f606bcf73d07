/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stop

import (
	"maps"
	"math/rand/v2"
	"slices"
	"time"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomLetter() string {
	i := rand.IntN(len(alphabet))
	return alphabet[i : i+1]
}

// State returns the current round state.
func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// StartGame draws a letter and begins the reveal. Only the host may start,
// from the lobby or from the results of the previous round.
func (r *Room) StartGame(by SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(by); err != nil {
		return err
	}
	if r.state != StateLobby && r.state != StateResults {
		return ErrInvalidTransition
	}

	r.enterSpinningLocked()

	return nil
}

// StopRound ends answer entry for everyone. The first call while PLAYING
// wins; calls arriving during VOTING only record the caller's answers.
func (r *Room) StopRound(by SessionID, answers Answers) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireMemberLocked(by); err != nil {
		return err
	}

	switch r.state {
	case StatePlaying:
		if answers != nil {
			r.recordAnswersLocked(by, answers)
		}
		r.enterVotingLocked(by)
	case StateVoting:
		if answers == nil {
			return ErrInvalidTransition
		}
		r.recordAnswersLocked(by, answers)
		r.broadcastSnapshotLocked()
	default:
		return ErrInvalidTransition
	}

	return nil
}

// SubmitAnswers records the caller's answers while answers are still
// accepted, which includes the grace period after someone called stop.
func (r *Room) SubmitAnswers(by SessionID, answers Answers) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireMemberLocked(by); err != nil {
		return err
	}
	if r.state != StatePlaying && r.state != StateVoting {
		return ErrInvalidTransition
	}

	r.recordAnswersLocked(by, answers)
	r.broadcastSnapshotLocked()

	return nil
}

// SubmitVotes replaces the caller's ballot. The round is scored as soon as
// every player in the room has voted.
func (r *Room) SubmitVotes(by SessionID, ballot Ballot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireMemberLocked(by); err != nil {
		return err
	}
	if r.state != StateVoting {
		return ErrInvalidTransition
	}

	r.votes[by] = r.sanitizeBallotLocked(ballot)
	if p, ok := r.playerLocked(by); ok {
		p.Status = StatusVoted
	}
	r.touchLocked()

	if r.allVotedLocked() {
		r.finishVotingLocked()
		return nil
	}

	r.broadcastSnapshotLocked()

	return nil
}

// EndVoting lets the host score the round with the ballots present.
func (r *Room) EndVoting(by SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(by); err != nil {
		return err
	}
	if r.state != StateVoting {
		return ErrInvalidTransition
	}

	r.finishVotingLocked()

	return nil
}

// ReturnToLobby abandons whatever is in progress.
func (r *Room) ReturnToLobby(by SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(by); err != nil {
		return err
	}

	r.setStateLocked(StateLobby)
	r.resetRoundLocked()
	r.currentLetter = UnsetLetter
	r.broadcastSnapshotLocked()

	r.log.Debug().Msg("returned to lobby")

	return nil
}

func (r *Room) requireMemberLocked(id SessionID) error {
	if r.deleted {
		return ErrRoomNotFound
	}
	if r.indexLocked(id) < 0 {
		return ErrNotMember
	}
	return nil
}

func (r *Room) requireHostLocked(id SessionID) error {
	if err := r.requireMemberLocked(id); err != nil {
		return err
	}
	if r.hostID != id {
		return ErrNotAuthorized
	}
	return nil
}

// setStateLocked moves to s and invalidates any scheduled transition.
func (r *Room) setStateLocked(s State) {
	r.state = s
	r.generation++
	r.stopTimerLocked()
	r.touchLocked()
}

// scheduleLocked runs fn under the room lock after d, unless the room has
// changed state or been destroyed in the meantime.
func (r *Room) scheduleLocked(d time.Duration, fn func()) {
	r.stopTimerLocked()

	generation := r.generation
	r.timer = time.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.deleted || r.generation != generation {
			return
		}
		fn()
	})
}

func (r *Room) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Room) resetRoundLocked() {
	r.roundData = make(RoundData)
	r.votes = make(Votes)
	r.stopperID = ""
	for i := range r.players {
		r.players[i].Status = StatusIdle
	}
}

func (r *Room) enterSpinningLocked() {
	r.setStateLocked(StateSpinning)
	r.resetRoundLocked()
	r.currentLetter = randomLetter()

	r.log.Debug().Str("letter", r.currentLetter).Msg("round starting")

	r.broadcastSnapshotLocked()
	r.scheduleLocked(r.opts.SpinDelay, r.enterPlayingLocked)
}

func (r *Room) enterPlayingLocked() {
	r.setStateLocked(StatePlaying)

	r.broadcastLocked(GameStartedMessage{Type: EvtGameStarted, Letter: r.currentLetter})
	r.broadcastSnapshotLocked()

	if r.opts.RoundLimit > 0 {
		r.scheduleLocked(r.opts.RoundLimit, func() {
			r.log.Debug().Msg("round limit reached")
			r.enterVotingLocked("")
		})
	}
}

// enterVotingLocked closes answer entry. stopper is empty when the round
// ran out of time.
func (r *Room) enterVotingLocked(stopper SessionID) {
	r.setStateLocked(StateVoting)
	r.stopperID = stopper

	if stopper != "" {
		name := ""
		if p, ok := r.playerLocked(stopper); ok {
			name = p.Name
		}
		r.broadcastLocked(StopCalledMessage{Type: EvtStopCalled, StopperID: stopper, StopperName: name})
	}

	r.broadcastSnapshotLocked()
}

func (r *Room) finishVotingLocked() {
	res, updated := ScoreRound(r.players, r.categories, r.roundData, r.votes)
	r.players = updated
	r.lastRoundScores = res.Awards

	r.setStateLocked(StateResults)

	scores := make([]PlayerScore, len(r.players))
	for i, p := range r.players {
		scores[i] = PlayerScore{ID: p.ID, Name: p.Name, Score: p.Score}
	}

	r.log.Debug().Int("ballots", len(r.votes)).Msg("round scored")

	r.broadcastLocked(RoundResultsMessage{
		Type:        EvtRoundResults,
		Scores:      scores,
		RoundScores: maps.Clone(res.Awards),
		Breakdown:   res.Breakdown,
	})
	r.broadcastSnapshotLocked()
}

// afterLeaveLocked settles the room once a player has gone: their missing
// ballot may have been the last one outstanding.
func (r *Room) afterLeaveLocked() {
	if r.state == StateVoting && r.allVotedLocked() {
		r.finishVotingLocked()
		return
	}
	r.broadcastSnapshotLocked()
}

func (r *Room) allVotedLocked() bool {
	if len(r.players) == 0 {
		return false
	}
	for _, p := range r.players {
		if _, ok := r.votes[p.ID]; !ok {
			return false
		}
	}
	return true
}

func (r *Room) recordAnswersLocked(by SessionID, answers Answers) {
	kept := make(Answers, len(r.categories))
	for category, text := range answers {
		if slices.Contains(r.categories, category) {
			kept[category] = text
		}
	}
	r.roundData[by] = kept

	if p, ok := r.playerLocked(by); ok && p.Status != StatusVoted {
		p.Status = StatusAnswered
	}
	r.touchLocked()
}

// sanitizeBallotLocked keeps judgments about this room's categories and
// current players only.
func (r *Room) sanitizeBallotLocked(ballot Ballot) Ballot {
	kept := make(Ballot, len(ballot))
	for category, judgments := range ballot {
		if !slices.Contains(r.categories, category) {
			continue
		}
		for answerer, valid := range judgments {
			if r.indexLocked(answerer) < 0 {
				continue
			}
			if kept[category] == nil {
				kept[category] = make(map[SessionID]bool)
			}
			kept[category][answerer] = valid
		}
	}
	return kept
}
