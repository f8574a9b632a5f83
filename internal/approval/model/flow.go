package model

import (
	"github.com/google/uuid"
)

// NodeMode determines how a node's approvers act.
type NodeMode string

const (
	NodeModeSerial   NodeMode = "SERIAL"   // Any one resolved approver satisfies the node
	NodeModeParallel NodeMode = "PARALLEL" // Multiple approvers act according to the parallel policy
)

// ParallelPolicy determines how a PARALLEL node is satisfied.
type ParallelPolicy string

const (
	ParallelPolicyAnd ParallelPolicy = "AND" // Unanimous: every resolved approver must approve
	ParallelPolicyOr  ParallelPolicy = "OR"  // Any-one: the first approval satisfies the node
)

// ApproverType determines how a node's approver set is resolved.
type ApproverType string

const (
	ApproverTypeFixed    ApproverType = "FIXED"    // The node's stored user list
	ApproverTypeRole     ApproverType = "ROLE"     // Current holders of a role, looked up at evaluation time
	ApproverTypePosition ApproverType = "POSITION" // Current holders of a position, looked up at evaluation time
	ApproverTypeSuperior ApproverType = "SUPERIOR" // Nearest superior of the submitter in the position hierarchy
)

// RejectBehavior determines what happens to a submission when a node rejects it.
type RejectBehavior string

const (
	RejectBehaviorEnd            RejectBehavior = "END"                // Submission becomes terminally REJECTED
	RejectBehaviorReturnToStart  RejectBehavior = "RETURN_TO_START"    // Position resets to node 1, a new pass begins
	RejectBehaviorReturnPrevious RejectBehavior = "RETURN_TO_PREVIOUS" // Position resets to the previous node; END when already at node 1
)

// ApprovalFlow is an ordered sequence of approval nodes attached to a form template.
type ApprovalFlow struct {
	BaseModel
	Name           string    `gorm:"type:varchar(255);column:name;not null" json:"name"`
	Description    string    `gorm:"type:text;column:description" json:"description,omitempty"`
	FormTemplateID uuid.UUID `gorm:"type:uuid;column:form_template_id;not null" json:"formTemplateId"` // Form template submissions of this flow are created from
	CampusID       uuid.UUID `gorm:"type:uuid;column:campus_id;not null" json:"campusId"`
	Active         bool      `gorm:"type:boolean;column:active;not null;default:true" json:"active"`

	// Relationships
	Nodes []ApprovalNode `gorm:"foreignKey:FlowID;references:ID" json:"nodes"`
}

func (f *ApprovalFlow) TableName() string {
	return "approval_flows"
}

// NodeAt returns the node with the given sequence index, or nil if none exists.
func (f *ApprovalFlow) NodeAt(seq int) *ApprovalNode {
	for i := range f.Nodes {
		if f.Nodes[i].Seq == seq {
			return &f.Nodes[i]
		}
	}
	return nil
}

// MaxSeq returns the highest sequence index in the flow, or 0 for an empty flow.
func (f *ApprovalFlow) MaxSeq() int {
	max := 0
	for i := range f.Nodes {
		if f.Nodes[i].Seq > max {
			max = f.Nodes[i].Seq
		}
	}
	return max
}

// ApprovalNode is one stage of an approval flow.
// Sequence indices are 1-based and contiguous within a flow; every node
// insert, delete, and move renumbers the remaining nodes to preserve this.
type ApprovalNode struct {
	BaseModel
	FlowID         uuid.UUID      `gorm:"type:uuid;column:flow_id;not null;index" json:"flowId"`
	Seq            int            `gorm:"type:int;column:seq;not null" json:"seq"`
	Name           string         `gorm:"type:varchar(255);column:name;not null" json:"name"`
	Mode           NodeMode       `gorm:"type:varchar(20);column:mode;not null" json:"mode"`
	ParallelPolicy ParallelPolicy `gorm:"type:varchar(10);column:parallel_policy" json:"parallelPolicy,omitempty"` // Only meaningful for PARALLEL nodes
	ApproverType   ApproverType   `gorm:"type:varchar(20);column:approver_type;not null" json:"approverType"`
	ApproverIDs    UUIDArray      `gorm:"type:jsonb;column:approver_ids;serializer:json" json:"approverIds,omitempty"` // Fixed user list for FIXED nodes
	RoleID         *uuid.UUID     `gorm:"type:uuid;column:role_id" json:"roleId,omitempty"`                            // Role reference for ROLE nodes
	PositionID     *uuid.UUID     `gorm:"type:uuid;column:position_id" json:"positionId,omitempty"`                    // Position reference for POSITION nodes
	RejectBehavior RejectBehavior `gorm:"type:varchar(30);column:reject_behavior;not null" json:"rejectBehavior"`
	CanReject      bool           `gorm:"type:boolean;column:can_reject;not null;default:true" json:"canReject"`
	CanReturn      bool           `gorm:"type:boolean;column:can_return;not null;default:false" json:"canReturn"`
	CanTransfer    bool           `gorm:"type:boolean;column:can_transfer;not null;default:false" json:"canTransfer"`
	TimeoutSeconds *int64         `gorm:"type:bigint;column:timeout_seconds" json:"timeoutSeconds,omitempty"` // Optional per-node approval deadline
}

func (n *ApprovalNode) TableName() string {
	return "approval_nodes"
}
