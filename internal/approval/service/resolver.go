package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/approval/model"
	directorymodel "github.com/OpenKinder/kinder/internal/directory/model"
)

// Directory is the slice of the user directory the resolver needs.
// Lookups run against live membership at evaluation time; role and position
// changes between flow design and execution are picked up on the next action.
type Directory interface {
	GetActiveUserIDsByRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error)
	GetActiveUserIDsByPosition(ctx context.Context, positionID uuid.UUID) ([]uuid.UUID, error)
	GetPrimaryPositionOfUser(ctx context.Context, userID uuid.UUID) (*directorymodel.Position, error)
	GetPositionByID(ctx context.Context, positionID uuid.UUID) (*directorymodel.Position, error)
	GetPositionsByCampus(ctx context.Context, campusID uuid.UUID) ([]directorymodel.Position, error)
}

// ApproverResolver resolves the concrete approver set for a node of a submission.
type ApproverResolver interface {
	Resolve(ctx context.Context, node *model.ApprovalNode, submission *model.Submission) ([]uuid.UUID, error)
}

// DirectoryResolver resolves approvers against the live user directory.
type DirectoryResolver struct {
	dir Directory
}

func NewDirectoryResolver(dir Directory) *DirectoryResolver {
	return &DirectoryResolver{dir: dir}
}

// Resolve returns the required approver set for the node, with any transfer
// overrides recorded on the submission applied. A required node resolving to
// zero approvers is a configuration error surfaced to the submitter, never a
// silent skip.
func (r *DirectoryResolver) Resolve(ctx context.Context, node *model.ApprovalNode, submission *model.Submission) ([]uuid.UUID, error) {
	if node == nil {
		return nil, apperr.Configf("approval node is not configured")
	}

	var approvers []uuid.UUID
	var err error

	switch node.ApproverType {
	case model.ApproverTypeFixed:
		approvers = append(approvers, node.ApproverIDs...)
	case model.ApproverTypeRole:
		if node.RoleID == nil {
			return nil, apperr.Configf("node %d has approver type ROLE but no role reference", node.Seq)
		}
		approvers, err = r.dir.GetActiveUserIDsByRole(ctx, *node.RoleID)
	case model.ApproverTypePosition:
		if node.PositionID == nil {
			return nil, apperr.Configf("node %d has approver type POSITION but no position reference", node.Seq)
		}
		approvers, err = r.dir.GetActiveUserIDsByPosition(ctx, *node.PositionID)
	case model.ApproverTypeSuperior:
		approvers, err = r.resolveSuperior(ctx, submission)
	default:
		return nil, apperr.Configf("node %d has unknown approver type %q", node.Seq, node.ApproverType)
	}
	if err != nil {
		return nil, err
	}

	if len(approvers) == 0 {
		return nil, apperr.Configf("node %d (%s) resolves to no approvers; check the flow configuration", node.Seq, node.Name)
	}

	// Apply transfer overrides and dedupe the result.
	seen := make(map[uuid.UUID]struct{}, len(approvers))
	resolved := make([]uuid.UUID, 0, len(approvers))
	for _, id := range approvers {
		id = submission.TransferredApprover(node.Seq, id)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		resolved = append(resolved, id)
	}
	return resolved, nil
}

// resolveSuperior finds the submitter's nearest superior within the same campus.
// It walks the submitter's position parent chain first; when no parent link
// exists it scans the campus's position levels in ascending numeric order
// (lower level number is higher rank), considering only positions ranked
// strictly above the submitter's own, and takes the first one held by a user.
// Yields at most one approver.
func (r *DirectoryResolver) resolveSuperior(ctx context.Context, submission *model.Submission) ([]uuid.UUID, error) {
	position, err := r.dir.GetPrimaryPositionOfUser(ctx, submission.SubmitterID)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, apperr.Configf("submitter %s holds no position; cannot resolve a superior", submission.SubmitterID)
	}

	if position.ParentID != nil {
		return r.walkParentChain(ctx, position, submission.CampusID, submission.SubmitterID)
	}
	return r.scanLevels(ctx, position, submission.CampusID, submission.SubmitterID)
}

// walkParentChain climbs the position tree and returns the first ancestor
// position in the submitter's campus that is held by a user.
func (r *DirectoryResolver) walkParentChain(ctx context.Context, position *directorymodel.Position, campusID, submitterID uuid.UUID) ([]uuid.UUID, error) {
	const maxDepth = 32 // guards against a cyclic parent chain

	current := position
	for depth := 0; current.ParentID != nil && depth < maxDepth; depth++ {
		parent, err := r.dir.GetPositionByID(ctx, *current.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.CampusID == campusID {
			holders, err := r.dir.GetActiveUserIDsByPosition(ctx, parent.ID)
			if err != nil {
				return nil, err
			}
			if id, ok := firstOther(holders, submitterID); ok {
				return []uuid.UUID{id}, nil
			}
		}
		current = parent
	}
	return nil, nil
}

// scanLevels is the fallback for positions with no parent link: campus
// positions are scanned by ascending level and the first higher-ranked
// position held by a user wins.
func (r *DirectoryResolver) scanLevels(ctx context.Context, position *directorymodel.Position, campusID, submitterID uuid.UUID) ([]uuid.UUID, error) {
	positions, err := r.dir.GetPositionsByCampus(ctx, campusID)
	if err != nil {
		return nil, err
	}

	for _, candidate := range positions {
		if candidate.Level >= position.Level {
			continue
		}
		holders, err := r.dir.GetActiveUserIDsByPosition(ctx, candidate.ID)
		if err != nil {
			return nil, err
		}
		if id, ok := firstOther(holders, submitterID); ok {
			return []uuid.UUID{id}, nil
		}
	}
	return nil, nil
}

// firstOther returns the first ID in the list that is not the excluded user.
func firstOther(ids []uuid.UUID, exclude uuid.UUID) (uuid.UUID, bool) {
	for _, id := range ids {
		if id != exclude {
			return id, true
		}
	}
	return uuid.Nil, false
}
