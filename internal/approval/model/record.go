package model

import (
	"fmt"

	"github.com/google/uuid"
)

// ApprovalAction enumerates the actions an approver can take at a node.
type ApprovalAction string

const (
	ActionApprove  ApprovalAction = "APPROVE"
	ActionReject   ApprovalAction = "REJECT"
	ActionReturn   ApprovalAction = "RETURN"   // Send the submission back to node 1 without rejecting it
	ActionTransfer ApprovalAction = "TRANSFER" // Hand the approver's slot to another user
)

// ApprovalRecord is the immutable audit row written for every action taken
// at a node, before any workflow position mutation. Records from superseded
// passes are kept; they stop counting toward node satisfaction but preserve
// the full history of the submission.
type ApprovalRecord struct {
	BaseModel
	SubmissionID uuid.UUID      `gorm:"type:uuid;column:submission_id;not null;index" json:"submissionId"`
	NodeSeq      int            `gorm:"type:int;column:node_seq;not null" json:"nodeSeq"`
	Pass         int            `gorm:"type:int;column:pass;not null" json:"pass"`
	ApproverID   uuid.UUID      `gorm:"type:uuid;column:approver_id;not null;index" json:"approverId"`
	Action       ApprovalAction `gorm:"type:varchar(20);column:action;not null" json:"action"`
	Comment      string         `gorm:"type:text;column:comment" json:"comment,omitempty"`
	TransferToID *uuid.UUID     `gorm:"type:uuid;column:transfer_to_id" json:"transferToId,omitempty"` // Set for TRANSFER actions
}

func (r *ApprovalRecord) TableName() string {
	return "approval_records"
}

// seqKey renders a node sequence index as a jsonb map key.
func seqKey(seq int) string {
	return fmt.Sprintf("%d", seq)
}

// transferKey renders a node sequence and approver ID as a transfer map key.
func transferKey(seq int, approverID uuid.UUID) string {
	return fmt.Sprintf("%d:%s", seq, approverID)
}
