package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/OpenKinder/kinder/internal/apperr"
	"github.com/OpenKinder/kinder/internal/approval/model"
)

func namedNode(name string, seq int) model.ApprovalNode {
	node := serialNode(seq)
	node.Name = name
	return node
}

func nodeNames(nodes []model.ApprovalNode) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return names
}

func assertContiguous(t *testing.T, nodes []model.ApprovalNode) {
	t.Helper()
	for i, n := range nodes {
		assert.Equal(t, i+1, n.Seq)
	}
}

func TestNormalizeSequence(t *testing.T) {
	nodes := []model.ApprovalNode{namedNode("c", 7), namedNode("a", 2), namedNode("b", 5)}
	normalized := NormalizeSequence(nodes)

	assert.Equal(t, []string{"a", "b", "c"}, nodeNames(normalized))
	assertContiguous(t, normalized)
}

func TestInsertNodeAt(t *testing.T) {
	t.Run("Insert In Middle Shifts Later Nodes", func(t *testing.T) {
		nodes := []model.ApprovalNode{namedNode("a", 1), namedNode("b", 2), namedNode("c", 3)}
		result := InsertNodeAt(nodes, namedNode("x", 0), 2)

		assert.Equal(t, []string{"a", "x", "b", "c"}, nodeNames(result))
		assertContiguous(t, result)
	})

	t.Run("Position Zero Appends", func(t *testing.T) {
		nodes := []model.ApprovalNode{namedNode("a", 1), namedNode("b", 2)}
		result := InsertNodeAt(nodes, namedNode("x", 0), 0)

		assert.Equal(t, []string{"a", "b", "x"}, nodeNames(result))
		assertContiguous(t, result)
	})

	t.Run("Position Past End Appends", func(t *testing.T) {
		nodes := []model.ApprovalNode{namedNode("a", 1)}
		result := InsertNodeAt(nodes, namedNode("x", 0), 10)

		assert.Equal(t, []string{"a", "x"}, nodeNames(result))
		assertContiguous(t, result)
	})

	t.Run("Insert Into Empty Flow", func(t *testing.T) {
		result := InsertNodeAt(nil, namedNode("x", 0), 1)

		assert.Equal(t, []string{"x"}, nodeNames(result))
		assertContiguous(t, result)
	})
}

func TestRemoveNodeAt(t *testing.T) {
	t.Run("Remove Renumbers Remaining", func(t *testing.T) {
		nodes := []model.ApprovalNode{namedNode("a", 1), namedNode("b", 2), namedNode("c", 3)}
		remaining, removed := RemoveNodeAt(nodes, 2)

		assert.NotNil(t, removed)
		assert.Equal(t, "b", removed.Name)
		assert.Equal(t, []string{"a", "c"}, nodeNames(remaining))
		assertContiguous(t, remaining)
	})

	t.Run("Missing Sequence Returns Nil", func(t *testing.T) {
		nodes := []model.ApprovalNode{namedNode("a", 1)}
		remaining, removed := RemoveNodeAt(nodes, 5)

		assert.Nil(t, removed)
		assert.Equal(t, []string{"a"}, nodeNames(remaining))
	})
}

func TestMoveNode(t *testing.T) {
	t.Run("Move Forward", func(t *testing.T) {
		nodes := []model.ApprovalNode{namedNode("a", 1), namedNode("b", 2), namedNode("c", 3)}
		result, ok := MoveNode(nodes, 1, 3)

		assert.True(t, ok)
		assert.Equal(t, []string{"b", "c", "a"}, nodeNames(result))
		assertContiguous(t, result)
	})

	t.Run("Move Backward", func(t *testing.T) {
		nodes := []model.ApprovalNode{namedNode("a", 1), namedNode("b", 2), namedNode("c", 3)}
		result, ok := MoveNode(nodes, 3, 1)

		assert.True(t, ok)
		assert.Equal(t, []string{"c", "a", "b"}, nodeNames(result))
		assertContiguous(t, result)
	})

	t.Run("Target Clamped To Range", func(t *testing.T) {
		nodes := []model.ApprovalNode{namedNode("a", 1), namedNode("b", 2)}
		result, ok := MoveNode(nodes, 1, 99)

		assert.True(t, ok)
		assert.Equal(t, []string{"b", "a"}, nodeNames(result))
	})

	t.Run("Missing Source Fails", func(t *testing.T) {
		nodes := []model.ApprovalNode{namedNode("a", 1)}
		_, ok := MoveNode(nodes, 4, 1)

		assert.False(t, ok)
	})
}

func TestFlowService_UpdateFlow_Deactivate(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	service := NewFlowService(db)
	ctx := context.Background()

	flowID := uuid.New()
	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`SELECT \* FROM "approval_flows" WHERE id = \$1`).
		WithArgs(flowID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "active"}).
			AddRow(flowID, "expense approval", true))
	sqlMock.ExpectQuery(`SELECT \* FROM "approval_nodes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "flow_id", "seq"}).
			AddRow(uuid.New(), flowID, 1))
	sqlMock.ExpectExec(`UPDATE "approval_flows"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectCommit()

	inactive := false
	flow, err := service.UpdateFlow(ctx, flowID, &model.UpdateFlowDTO{Active: &inactive})
	assert.NoError(t, err)
	assert.False(t, flow.Active)
	assert.Equal(t, "expense approval", flow.Name)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestFlowService_UpdateFlow_EmptyName(t *testing.T) {
	db, _ := setupTestDB(t)
	service := NewFlowService(db)

	empty := ""
	_, err := service.UpdateFlow(context.Background(), uuid.New(), &model.UpdateFlowDTO{Name: &empty})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestFlowService_DeleteFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("Flow With Submissions Is Not Deletable", func(t *testing.T) {
		db, sqlMock := setupTestDB(t)
		service := NewFlowService(db)

		flowID := uuid.New()
		sqlMock.ExpectBegin()
		sqlMock.ExpectQuery(`SELECT count\(\*\) FROM "submissions" WHERE flow_id = \$1`).
			WithArgs(flowID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		sqlMock.ExpectRollback()

		err := service.DeleteFlow(ctx, flowID)
		assert.True(t, apperr.IsKind(err, apperr.KindState))
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("Unused Flow Deletes With Nodes", func(t *testing.T) {
		db, sqlMock := setupTestDB(t)
		service := NewFlowService(db)

		flowID := uuid.New()
		sqlMock.ExpectBegin()
		sqlMock.ExpectQuery(`SELECT count\(\*\) FROM "submissions" WHERE flow_id = \$1`).
			WithArgs(flowID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		sqlMock.ExpectExec(`DELETE FROM "approval_nodes"`).
			WillReturnResult(sqlmock.NewResult(0, 2))
		sqlMock.ExpectExec(`DELETE FROM "approval_flows"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		sqlMock.ExpectCommit()

		err := service.DeleteFlow(ctx, flowID)
		assert.NoError(t, err)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("Missing Flow", func(t *testing.T) {
		db, sqlMock := setupTestDB(t)
		service := NewFlowService(db)

		flowID := uuid.New()
		sqlMock.ExpectBegin()
		sqlMock.ExpectQuery(`SELECT count\(\*\) FROM "submissions" WHERE flow_id = \$1`).
			WithArgs(flowID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		sqlMock.ExpectExec(`DELETE FROM "approval_nodes"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		sqlMock.ExpectExec(`DELETE FROM "approval_flows"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		sqlMock.ExpectRollback()

		err := service.DeleteFlow(ctx, flowID)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}
