package permissions

import "github.com/taskboard-dev/taskboard/internal/models"

// BoardScoped is any resource whose access is governed by a board.
// Board, Task and Comment implement it explicitly, so callers never
// have to probe a resource's shape to find the owning board.
type BoardScoped interface {
	AccessBoard() *models.Board
}

// CanAccessBoard reports whether the user is the board's owner or one
// of its members. Ownership and membership are independent relations;
// either one grants access.
func CanAccessBoard(userID uint, board *models.Board) bool {
	if board.OwnerID == userID {
		return true
	}

	for _, member := range board.Members {
		if member.ID == userID {
			return true
		}
	}

	return false
}

// CanMutateBoard reports whether the user may rename the board or
// change its membership. Any member may do so, not only the owner.
func CanMutateBoard(userID uint, board *models.Board) bool {
	return CanAccessBoard(userID, board)
}

// CanDeleteBoard reports whether the user may delete the board.
// Only the owner can; membership alone is not enough.
func CanDeleteBoard(userID uint, board *models.Board) bool {
	return board.OwnerID == userID
}

// CanAccess reports whether the user may read or update a
// board-scoped resource. Tasks and comments inherit the visibility of
// their board; there is no resource-level check for reads or updates.
func CanAccess(userID uint, resource BoardScoped) bool {
	return CanAccessBoard(userID, resource.AccessBoard())
}

// CanDeleteTask reports whether the user may delete the task. The
// task's creator and the board's owner can; other members cannot,
// even though they may update the task.
func CanDeleteTask(userID uint, task *models.Task) bool {
	return task.CreatedByID == userID || task.Board.OwnerID == userID
}

// CanDeleteComment reports whether the user may delete the comment.
// Only the author can; the board owner has no special right here.
func CanDeleteComment(userID uint, comment *models.Comment) bool {
	return comment.AuthorID == userID
}
