package model

import (
	"github.com/google/uuid"
)

// CreateFlowDTO is the request body for creating an approval flow.
type CreateFlowDTO struct {
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	FormTemplateID uuid.UUID       `json:"formTemplateId"`
	CampusID       uuid.UUID       `json:"campusId"`
	Nodes          []CreateNodeDTO `json:"nodes"`
}

// CreateNodeDTO describes one node of a flow being created or inserted.
type CreateNodeDTO struct {
	Name           string         `json:"name"`
	Mode           NodeMode       `json:"mode"`
	ParallelPolicy ParallelPolicy `json:"parallelPolicy,omitempty"`
	ApproverType   ApproverType   `json:"approverType"`
	ApproverIDs    []uuid.UUID    `json:"approverIds,omitempty"`
	RoleID         *uuid.UUID     `json:"roleId,omitempty"`
	PositionID     *uuid.UUID     `json:"positionId,omitempty"`
	RejectBehavior RejectBehavior `json:"rejectBehavior"`
	CanReject      bool           `json:"canReject"`
	CanReturn      bool           `json:"canReturn"`
	CanTransfer    bool           `json:"canTransfer"`
	TimeoutSeconds *int64         `json:"timeoutSeconds,omitempty"`
}

// InsertNodeDTO inserts a node at a sequence position; nodes at and after the
// position shift down by one.
type InsertNodeDTO struct {
	At   int           `json:"at"` // 1-based position; 0 or past the end appends
	Node CreateNodeDTO `json:"node"`
}

// MoveNodeDTO moves the node at From to position To, renumbering the rest.
type MoveNodeDTO struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// UpdateFlowDTO patches a flow's metadata; nil fields are left unchanged.
// Clearing Active retires the flow: in-flight submissions keep evaluating,
// new submissions against it are refused.
type UpdateFlowDTO struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// CreateSubmissionDTO is the request body for submitting a form instance.
type CreateSubmissionDTO struct {
	FlowID     uuid.UUID        `json:"flowId"`
	Values     map[string]any   `json:"values"`
	DetailRows []map[string]any `json:"detailRows,omitempty"`
}

// ApprovalActionDTO is the request body for acting on a submission's current node.
type ApprovalActionDTO struct {
	Action          ApprovalAction `json:"action"`
	Comment         string         `json:"comment,omitempty"`
	TransferToID    *uuid.UUID     `json:"transferToId,omitempty"`    // Required for TRANSFER
	ExpectedVersion *int64         `json:"expectedVersion,omitempty"` // Optional optimistic concurrency guard supplied by the client
}

// ActionResult describes the outcome of applying an approval action.
type ActionResult struct {
	Submission    *Submission `json:"submission"`
	NodeSatisfied bool        `json:"nodeSatisfied"` // Whether the acted-on node became satisfied
	Advanced      bool        `json:"advanced"`      // Whether the workflow position moved
}

// PendingApprovalDTO is one entry in a user's pending approval list.
type PendingApprovalDTO struct {
	SubmissionID uuid.UUID `json:"submissionId"`
	FlowID       uuid.UUID `json:"flowId"`
	FlowName     string    `json:"flowName"`
	NodeSeq      int       `json:"nodeSeq"`
	NodeName     string    `json:"nodeName"`
	SubmitterID  uuid.UUID `json:"submitterId"`
	SubmittedAt  string    `json:"submittedAt"`
}

// SubmissionFilter narrows submission list queries.
type SubmissionFilter struct {
	SubmitterID *uuid.UUID        `json:"submitterId,omitempty"`
	FlowID      *uuid.UUID        `json:"flowId,omitempty"`
	Status      *SubmissionStatus `json:"status,omitempty"`
	Offset      *int              `json:"offset,omitempty"`
	Limit       *int              `json:"limit,omitempty"`
}
