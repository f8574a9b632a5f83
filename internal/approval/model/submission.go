package model

import (
	"github.com/google/uuid"
)

// SubmissionStatus represents the overall workflow status of a submission.
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "PENDING"
	SubmissionStatusApproved SubmissionStatus = "APPROVED"
	SubmissionStatusRejected SubmissionStatus = "REJECTED"
)

// IsTerminal reports whether the status is terminal. Terminal submissions
// are immutable; actions against them are rejected with a state error.
func (s SubmissionStatus) IsTerminal() bool {
	return s == SubmissionStatusApproved || s == SubmissionStatusRejected
}

// NodeState is the explicit per-node status of a submission's workflow pass.
// Satisfaction is tracked here rather than re-derived by scanning approval
// records, so a satisfied OR node stays satisfied even as records accumulate.
type NodeState string

const (
	NodeStatePending   NodeState = "PENDING"
	NodeStateSatisfied NodeState = "SATISFIED"
	NodeStateRejected  NodeState = "REJECTED"
)

// NodeStateMap maps a node sequence index to its state within the current pass.
// Serialized as jsonb; JSON object keys are strings, so the map key is the
// decimal form of the sequence index.
type NodeStateMap map[string]NodeState

// TransferMap records per-node approver reassignments for the current pass.
// The key is "<seq>:<fromUserID>" and the value is the user the slot was
// transferred to.
type TransferMap map[string]uuid.UUID

// Submission is an instance of a form template moving through an approval flow.
type Submission struct {
	BaseModel
	FlowID         uuid.UUID        `gorm:"type:uuid;column:flow_id;not null;index" json:"flowId"`
	FormTemplateID uuid.UUID        `gorm:"type:uuid;column:form_template_id;not null" json:"formTemplateId"`
	SubmitterID    uuid.UUID        `gorm:"type:uuid;column:submitter_id;not null;index" json:"submitterId"`
	CampusID       uuid.UUID        `gorm:"type:uuid;column:campus_id;not null" json:"campusId"`
	Values         map[string]any   `gorm:"type:jsonb;column:values;not null;serializer:json" json:"values"`            // User-entered field values
	DetailRows     []map[string]any `gorm:"type:jsonb;column:detail_rows;serializer:json" json:"detailRows,omitempty"`  // Optional tabular detail rows
	CurrentSeq     int              `gorm:"type:int;column:current_seq;not null" json:"currentSeq"`                     // Sequence index of the pending node
	Status         SubmissionStatus `gorm:"type:varchar(20);column:status;not null" json:"status"`
	Pass           int              `gorm:"type:int;column:pass;not null;default:1" json:"pass"`                        // Workflow pass counter; RETURN starts a new pass
	NodeStates     NodeStateMap     `gorm:"type:jsonb;column:node_states;not null;serializer:json" json:"nodeStates"`   // Explicit per-node status for the current pass
	Transfers      TransferMap      `gorm:"type:jsonb;column:transfers;serializer:json" json:"transfers,omitempty"`     // Approver reassignments for the current pass
	Version        int64            `gorm:"type:bigint;column:version;not null;default:1" json:"version"`               // Optimistic concurrency token

	// Relationships
	Flow    *ApprovalFlow    `gorm:"foreignKey:FlowID;references:ID" json:"-"`
	Records []ApprovalRecord `gorm:"foreignKey:SubmissionID;references:ID" json:"records,omitempty"`
}

func (s *Submission) TableName() string {
	return "submissions"
}

// NodeState returns the state of the node at seq for the current pass.
// Nodes with no recorded state are PENDING.
func (s *Submission) NodeState(seq int) NodeState {
	if s.NodeStates == nil {
		return NodeStatePending
	}
	if state, ok := s.NodeStates[seqKey(seq)]; ok {
		return state
	}
	return NodeStatePending
}

// SetNodeState records the state of the node at seq for the current pass.
func (s *Submission) SetNodeState(seq int, state NodeState) {
	if s.NodeStates == nil {
		s.NodeStates = make(NodeStateMap)
	}
	s.NodeStates[seqKey(seq)] = state
}

// ResetPass starts a new workflow pass positioned at seq. Node states and
// transfers from the previous pass are discarded; approval records remain
// in the audit trail but no longer count toward node satisfaction.
func (s *Submission) ResetPass(seq int) {
	s.Pass++
	s.CurrentSeq = seq
	s.NodeStates = make(NodeStateMap)
	s.SetNodeState(seq, NodeStatePending)
	s.Transfers = nil
}

// TransferredApprover returns the substitute for the given approver at the
// node, or the approver itself when no transfer is recorded.
func (s *Submission) TransferredApprover(seq int, approverID uuid.UUID) uuid.UUID {
	if s.Transfers == nil {
		return approverID
	}
	if to, ok := s.Transfers[transferKey(seq, approverID)]; ok {
		return to
	}
	return approverID
}

// RecordTransfer reassigns the approver's slot at the node to another user.
func (s *Submission) RecordTransfer(seq int, fromID, toID uuid.UUID) {
	if s.Transfers == nil {
		s.Transfers = make(TransferMap)
	}
	s.Transfers[transferKey(seq, fromID)] = toID
}
