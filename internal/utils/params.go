package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetBoardID(ctx *gin.Context) (uint64, error) {
	var err error

	boardIDStr := ctx.Param("board_id")

	if boardIDStr == "" {
		return 0, errors.New("Board ID not found")
	}

	boardID, err := strconv.ParseUint(boardIDStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid Board ID")
	}

	return boardID, nil
}

func GetTaskID(ctx *gin.Context) (uint64, error) {
	var err error

	taskIDStr := ctx.Param("task_id")

	if taskIDStr == "" {
		return 0, errors.New("Task ID not found")
	}

	taskID, err := strconv.ParseUint(taskIDStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid Task ID")
	}

	return taskID, nil
}

func GetCommentID(ctx *gin.Context) (uint64, error) {
	var err error

	commentIDStr := ctx.Param("comment_id")

	if commentIDStr == "" {
		return 0, errors.New("Comment ID not found")
	}

	commentID, err := strconv.ParseUint(commentIDStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid Comment ID")
	}

	return commentID, nil
}

func GetTaskCommentID(ctx *gin.Context) (uint64, uint64, error) {
	var err error

	taskID, err := GetTaskID(ctx)

	if err != nil {
		return 0, 0, err
	}

	commentID, err := GetCommentID(ctx)

	if err != nil {
		return 0, 0, err
	}

	return taskID, commentID, nil
}
