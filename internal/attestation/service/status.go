package service

import (
	"context"

	"socialkyc/internal/chain"
	id "socialkyc/pkg/domain"
	"socialkyc/pkg/platform/task"
)

// State is where a session stands in the attestation flow.
type State string

const (
	StateNone      State = "none"
	StateConfirmed State = "confirmed"
	StateRequested State = "requested"
	StatePending   State = "pending"
	StateAttested  State = "attested"
	StateFailed    State = "failed"
)

// Status is the retrievable attestation status of a session.
type Status struct {
	State       State              `json:"status"`
	CTypeHash   string             `json:"cTypeHash,omitempty"`
	Attestation *chain.Attestation `json:"attestation,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Status reports the attestation state without blocking on a running submission.
func (p *Pipeline) Status(ctx context.Context, sessionID id.SessionID) (Status, error) {
	session, err := p.sessions.GetBasic(ctx, sessionID)
	if err != nil {
		return Status{}, err
	}

	var st Status
	if session.Claim != nil {
		st.CTypeHash = session.Claim.CTypeHash
	}

	if t := session.Attestation; t != nil {
		switch t.Status() {
		case task.StatusRunning:
			st.State = StatePending
		case task.StatusSucceeded:
			attestation, _ := t.Wait(ctx)
			st.State = StateAttested
			st.Attestation = attestation
			if attestation != nil {
				st.CTypeHash = attestation.CTypeHash
			}
		default:
			st.State = StateFailed
			st.Error = t.Err().Error()
		}
		return st, nil
	}

	switch {
	case session.LastAttestationError != "":
		st.State = StateFailed
		st.Error = session.LastAttestationError
	case session.Credential != nil:
		st.State = StateRequested
	case session.Confirmed:
		st.State = StateConfirmed
	default:
		st.State = StateNone
	}
	return st, nil
}
